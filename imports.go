package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/provision"
	"github.com/ch360/campus_backend/utils"
)

// createImportHandler accepts the roster spreadsheet, parses and
// validates it, and stages an import session. Nothing is provisioned
// until the commit call.
func createImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		username, err := requireUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		departmentCode := strings.TrimSpace(c.PostForm("department"))
		year := strings.TrimSpace(c.PostForm("year"))
		section := strings.TrimSpace(c.PostForm("section"))
		if departmentCode == "" || year == "" || section == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department, year and section are required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > ingest.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}
		// The MIME whitelist is authoritative; a renamed text file must not
		// reach the parser.
		mimeType := fileHeader.Header.Get("Content-Type")
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !ingest.AllowedMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xls and .xlsx spreadsheets are accepted"})
			return
		}

		if _, err := models.GetDepartmentByCode(c.Request.Context(), departmentCode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown department: " + departmentCode})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
			return
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, ingest.MaxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
			return
		}
		if int64(len(content)) > ingest.MaxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		rows, err := ingest.Parse(bytes.NewReader(content))
		if err != nil {
			if errors.Is(err, ingest.ErrInsufficientData) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			config.LogError(logger, "imports.go", "createImportHandler", "Parse", fileHeader.Filename, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse spreadsheet"})
			return
		}

		result := ingest.Validate(rows)

		session, err := models.CreateImportSession(c.Request.Context(), fileHeader.Filename, username,
			departmentCode, year, section, rows, result)
		if err != nil {
			config.LogError(logger, "imports.go", "createImportHandler", "CreateImportSession", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not stage import"})
			return
		}

		// Keep the original workbook for audit when configured.
		if config.ArchiveUploadsToGCS() {
			objectName := path.Join("imports", strconv.Itoa(session.ID), utils.GenerateUniqueFilename()+ext)
			if err := utils.ArchiveSpreadsheetToGCS(c.Request.Context(), objectName, mimeType, bytes.NewReader(content)); err != nil {
				config.LogError(logger, "imports.go", "createImportHandler", "ArchiveSpreadsheetToGCS", objectName, err)
			}
		}

		preview := []ingest.Row{}
		_ = json.Unmarshal([]byte(session.PreviewJSON), &preview)

		c.JSON(http.StatusCreated, gin.H{
			"session":     session,
			"preview":     preview,
			"row_errors":  result.Errors,
			"error_count": result.TotalErrors,
		})
	}
}

func getImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := requireUser(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import id"})
			return
		}

		// Status polls are served from the redis mirror when present.
		var cached models.ImportSession
		if found, err := config.GetRedisObject("ImportSession:"+strconv.Itoa(id), &cached); err == nil && found {
			c.JSON(http.StatusOK, &cached)
			return
		}

		session, err := models.GetImportSession(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "import session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// commitImportHandler runs the provisioning loop for a staged session.
// A redis lock keeps two operators (or a double click) from committing
// the same session twice.
func commitImportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		if err := requireAdmin(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import id"})
			return
		}

		lock, err := config.GetRedisLock().Obtain(c.Request.Context(), "ImportCommit:"+strconv.Itoa(id), 30*time.Minute, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				c.JSON(http.StatusConflict, gin.H{"error": "import is already being committed"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		session, err := models.GetImportSession(c.Request.Context(), id)
		if err != nil {
			_ = lock.Release(c.Request.Context())
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "import session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		switch session.Status {
		case models.ImportStatusValidated, models.ImportStatusFailed:
			// ok to run (Failed allows a retry after a batch error)
		case models.ImportStatusBlocked:
			_ = lock.Release(c.Request.Context())
			c.JSON(http.StatusConflict, gin.H{"error": "import has validation errors; fix the sheet and upload again"})
			return
		default:
			_ = lock.Release(c.Request.Context())
			c.JSON(http.StatusConflict, gin.H{"error": "import is " + string(session.Status)})
			return
		}

		rows, err := session.StagedRows()
		if err != nil {
			_ = lock.Release(c.Request.Context())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load staged rows"})
			return
		}

		// Detach from the request context: a closed browser tab must not
		// abort a half-finished run.
		runCtx := context.Background()
		if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
			runCtx = utils.SetCorrelationIdInContext(runCtx, cid)
		}
		defer func() { _ = lock.Release(runCtx) }()

		if err := session.MarkStatus(runCtx, models.ImportStatusProvisioning); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		provisioner := &provision.Provisioner{
			Provider:    provision.DirectoryProvider{},
			Sink:        provision.NewGormSink(config.GetDB()),
			Gate:        provision.NewGate(provisionInterval()),
			Logger:      logger,
			EmailDomain: provision.DefaultEmailDomain,
			OnProgress: func(s provision.Stats) {
				_ = session.UpdateStats(runCtx, s.Succeeded, s.Failed, s.Skipped, s.AccountsCreated, s.AccountsFailed, s.Progress)
			},
		}

		part := provision.Partition{
			DepartmentCode: session.DepartmentCode,
			Year:           session.Year,
			Section:        session.Section,
		}

		stats, runErr := provisioner.Run(runCtx, rows, part)
		if runErr != nil {
			config.LogError(logger, "imports.go", "commitImportHandler", "Run", session.ID, runErr)
			_ = session.MarkStatus(runCtx, models.ImportStatusFailed)
			c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error(), "stats": stats})
			return
		}

		if err := session.MarkStatus(runCtx, models.ImportStatusCompleted); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
			return
		}

		publishImportCompleted(c.Request.Context(), session, stats)
		c.JSON(http.StatusOK, gin.H{"session": session, "stats": stats})
	}
}

func publishImportCompleted(ctx context.Context, session *models.ImportSession, stats provision.Stats) {
	actor, _ := utils.GetUsernameFromContext(ctx)
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	detail, _ := json.Marshal(stats)

	err := config.PublishCampusEvent(config.CampusEvent{
		EventType:     "import.completed",
		ReferenceId:   strconv.Itoa(session.ID),
		ReferenceType: "import_session",
		Actor:         actor,
		OccurredAt:    time.Now().UTC(),
		Detail:        detail,
		CorrelationId: correlationId,
	})
	if err != nil {
		config.LogError(config.GetLogger(), "imports.go", "publishImportCompleted", "publish", session.ID, err)
	}
}

func provisionInterval() time.Duration {
	if v := strings.TrimSpace(os.Getenv("PROVISION_INTERVAL_MS")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return 100 * time.Millisecond
}
