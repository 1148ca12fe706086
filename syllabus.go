package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/ch360/campus_backend/workflow"
)

func syllabusIdFromPath(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid syllabus id"})
		return 0, false
	}
	return id, true
}

func createSyllabusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var input models.Syllabus
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "course_code, course_title and department_code are required"})
			return
		}
		if _, err := models.GetDepartmentByCode(c.Request.Context(), input.DepartmentCode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown department: " + input.DepartmentCode})
			return
		}
		syllabus, err := models.CreateSyllabus(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, syllabus)
	}
}

func getSyllabusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := syllabusIdFromPath(c)
		if !ok {
			return
		}
		syllabus, err := models.GetSyllabus(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "syllabus not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, syllabus)
	}
}

type reviewRequest struct {
	Comment string `json:"comment"`
}

func transitionStatus(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrRoleNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotDraft),
		errors.Is(err, workflow.ErrNotInReview),
		errors.Is(err, workflow.ErrAlreadyPublished):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrCommentRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func submitSyllabusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := syllabusIdFromPath(c)
		if !ok {
			return
		}
		syllabus, err := workflow.SubmitSyllabus(c.Request.Context(), id)
		if err != nil {
			c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, syllabus)
	}
}

func approveSyllabusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := syllabusIdFromPath(c)
		if !ok {
			return
		}
		var req reviewRequest
		_ = c.ShouldBindJSON(&req)

		syllabus, err := workflow.ApproveSyllabus(c.Request.Context(), id, req.Comment)
		if err != nil {
			c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, syllabus)
	}
}

func rejectSyllabusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := syllabusIdFromPath(c)
		if !ok {
			return
		}
		var req reviewRequest
		_ = c.ShouldBindJSON(&req)

		syllabus, err := workflow.RejectSyllabus(c.Request.Context(), id, req.Comment)
		if err != nil {
			c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, syllabus)
	}
}

func syllabusHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := syllabusIdFromPath(c)
		if !ok {
			return
		}
		if err := utils.ValidateResourceId[models.Syllabus](c.Request.Context(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "syllabus not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		history, err := models.GetApprovalHistory(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, history)
	}
}
