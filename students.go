package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/gin-gonic/gin"
)

type accountByUidFunc func(ctx context.Context, uid string) (*models.AuthAccount, error)

type profileByUidFunc func(ctx context.Context, uid string) (*models.Student, error)

// getStudentByUidHandler serves the "log in and find my profile" flow:
// the directory account id presented by the student app resolves to the
// profile through the lookup document, without scanning the roster.
func getStudentByUidHandler(accountByUid accountByUidFunc, profileByUid profileByUidFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		uid := strings.TrimSpace(c.Param("uid"))
		if uid == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
			return
		}

		account, err := accountByUid(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown account: " + uid})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		student, err := profileByUid(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no profile linked to account " + uid})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"lookup_path":   models.LookupDocPath(uid),
			"account_email": account.Email,
			"student":       student,
		})
	}
}
