package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/credential"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/provision"
)

type credentialRecord struct {
	RollNo string `json:"roll_no" binding:"required"`
	Name   string `json:"name" binding:"required"`
	DOB    string `json:"dob"`
}

type previewCredentialsRequest struct {
	Records []credentialRecord `json:"records" binding:"required,min=1,dive"`
	Options credential.Options `json:"options"`
}

func normalizeOptions(opts credential.Options) credential.Options {
	if strings.TrimSpace(opts.Domain) == "" {
		opts.Domain = provision.DefaultEmailDomain
	}
	if opts.UsernamePattern == "" {
		opts.UsernamePattern = credential.UsernameRollNo
	}
	if opts.PasswordPattern == "" {
		opts.PasswordPattern = credential.PasswordRollDOB
	}
	return opts
}

// previewCredentialsHandler generates credentials without touching the
// directory or the profile store, so the operator can eyeball the result
// before committing.
func previewCredentialsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req previewCredentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "records (roll_no, name) are required"})
			return
		}
		opts := normalizeOptions(req.Options)

		type previewEntry struct {
			RollNo   string `json:"roll_no"`
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
			Error    string `json:"error,omitempty"`
		}
		out := make([]previewEntry, 0, len(req.Records))
		for _, rec := range req.Records {
			cred, err := credential.Generate(credential.Record{
				RollNo: rec.RollNo,
				Name:   rec.Name,
				DOB:    rec.DOB,
			}, opts)
			entry := previewEntry{RollNo: rec.RollNo}
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.Username = cred.Username
				entry.Password = cred.Password
				entry.Email = cred.Email
			}
			out = append(out, entry)
		}
		c.JSON(http.StatusOK, gin.H{"credentials": out})
	}
}

type saveCredentialsRequest struct {
	Department string             `json:"department" binding:"required"`
	Year       string             `json:"year" binding:"required"`
	Section    string             `json:"section" binding:"required"`
	Rows       []ingest.Row       `json:"rows" binding:"required,min=1"`
	Options    credential.Options `json:"options"`
}

// saveCredentialsHandler provisions accounts and profiles for manually
// entered students using the selected credential patterns.
func saveCredentialsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		if err := requireAdmin(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req saveCredentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department, year, section and rows are required"})
			return
		}
		if _, err := models.GetDepartmentByCode(c.Request.Context(), req.Department); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown department: " + req.Department})
			return
		}
		opts := normalizeOptions(req.Options)

		rowErrors := map[int][]string{}
		for i := range req.Rows {
			row := &req.Rows[i]
			if row.Position == 0 {
				row.Position = i + 1
			}
			errs := ingest.ValidateRow(*row)
			if !credential.QuotaAllowed(row.Quota) {
				errs = append(errs, fmt.Sprintf("Quota must be one of %s", strings.Join(credential.SaveQuotas, ", ")))
			}
			if len(errs) > 0 {
				rowErrors[row.Position] = errs
			}
		}
		if len(rowErrors) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"row_errors": rowErrors})
			return
		}

		provisioner := &provision.Provisioner{
			Provider:    provision.DirectoryProvider{},
			Sink:        provision.NewGormSink(config.GetDB()),
			Gate:        provision.NewGate(provisionInterval()),
			Logger:      logger,
			EmailDomain: opts.Domain,
			Credentials: func(row ingest.Row) (string, string, error) {
				cred, err := credential.Generate(credential.Record{
					RollNo: row.RollNo,
					Name:   row.Name,
					DOB:    row.DOB,
				}, opts)
				if err != nil {
					return "", "", err
				}
				return cred.Email, cred.Password, nil
			},
		}

		part := provision.Partition{
			DepartmentCode: req.Department,
			Year:           req.Year,
			Section:        req.Section,
		}
		stats, err := provisioner.Run(c.Request.Context(), req.Rows, part)
		if err != nil {
			config.LogError(logger, "credentials.go", "saveCredentialsHandler", "Run", part, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}
