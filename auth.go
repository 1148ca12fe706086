package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/go-playground/validator/v10"
)

var errUnauthorized = errors.New("unauthorized")

// requireUser checks that SessionMiddleware resolved a session.
func requireUser(ctx context.Context) (string, error) {
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return "", errUnauthorized
	}
	return username, nil
}

func requireAdmin(ctx context.Context) error {
	if _, err := requireUser(ctx); err != nil {
		return err
	}
	role, _ := utils.GetUserRoleFromContext(ctx)
	if role != string(models.UserRoleAdmin) {
		return errUnauthorized
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "username or password is incorrect"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "old_password and new_password (min 6 chars) are required"})
			return
		}

		user, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// createUserHandler provisions console users (registrar, reviewers).
// Admin only.
func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := requireAdmin(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			var vErrs validator.ValidationErrors
			if errors.As(err, &vErrs) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			config.LogError(config.GetLogger(), "auth.go", "createUserHandler", "CreateUser", input.Username, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusCreated, user)
	}
}

func listDepartmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		departments, err := models.GetAllDepartments(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, departments)
	}
}

func createDepartmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := requireAdmin(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var input models.Department
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and name are required"})
			return
		}
		department, err := models.CreateDepartment(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, department)
	}
}
