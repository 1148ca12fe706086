package models

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/utils"
	"gorm.io/gorm"
)

type ImportSessionStatus string

const (
	ImportStatusValidated    ImportSessionStatus = "Validated"    // parsed, zero row errors
	ImportStatusBlocked      ImportSessionStatus = "Blocked"      // parsed, row errors present
	ImportStatusProvisioning ImportSessionStatus = "Provisioning" // commit running
	ImportStatusCompleted    ImportSessionStatus = "Completed"
	ImportStatusFailed       ImportSessionStatus = "Failed" // batch commit failed
)

// ImportSession is the durable record of one upload-and-provision run.
// The legacy console held all of this in page state, so a reload mid-run
// lost everything; persisting the session lets GET /imports/:id report
// the last known status at any time.
type ImportSession struct {
	ID       int                 `gorm:"primary_key" json:"id"`
	FileName string              `gorm:"size:255" json:"file_name"`
	Status   ImportSessionStatus `gorm:"size:20;not null" json:"status"`

	DepartmentCode string `gorm:"size:10" json:"department_code"`
	Year           string `gorm:"size:10" json:"year"`
	Section        string `gorm:"size:10" json:"section"`

	RowsJSON    string `gorm:"type:longtext" json:"-"`
	ErrorsJSON  string `gorm:"type:longtext" json:"-"`
	PreviewJSON string `gorm:"type:longtext" json:"-"`

	TotalRows  int `json:"total_rows"`
	ErrorCount int `json:"error_count"`

	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	AccountsCreated int     `json:"accounts_created"`
	AccountsFailed  int     `json:"accounts_failed"`
	Progress        float64 `json:"progress"`

	CreatedBy string    `gorm:"size:100" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreateImportSession stages a parsed+validated upload against its
// target group.
func CreateImportSession(ctx context.Context, fileName string, createdBy string, departmentCode string, year string, section string, rows []ingest.Row, result ingest.ValidationResult) (*ImportSession, error) {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return nil, err
	}
	previewJSON, err := json.Marshal(ingest.Preview(rows, 5))
	if err != nil {
		return nil, err
	}

	status := ImportStatusValidated
	if result.TotalErrors > 0 {
		status = ImportStatusBlocked
	}

	session := ImportSession{
		FileName:       fileName,
		Status:         status,
		DepartmentCode: departmentCode,
		Year:           year,
		Section:        section,
		RowsJSON:       string(rowsJSON),
		ErrorsJSON:     string(errorsJSON),
		PreviewJSON:    string(previewJSON),
		TotalRows:      len(rows),
		ErrorCount:     result.TotalErrors,
		CreatedBy:      createdBy,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func GetImportSession(ctx context.Context, id int) (*ImportSession, error) {
	db := config.GetDB()
	var session ImportSession
	if err := db.WithContext(ctx).First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &session, nil
}

// StagedRows decodes the staged row set back out of the session.
func (s *ImportSession) StagedRows() ([]ingest.Row, error) {
	var rows []ingest.Row
	if err := json.Unmarshal([]byte(s.RowsJSON), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RowErrors decodes the per-row validation errors.
func (s *ImportSession) RowErrors() (map[int][]string, error) {
	out := map[int][]string{}
	if s.ErrorsJSON == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s.ErrorsJSON), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkStatus flips the session status and mirrors it to redis so status
// polls do not hit the database.
func (s *ImportSession) MarkStatus(ctx context.Context, status ImportSessionStatus) error {
	db := config.GetDB()
	s.Status = status
	if err := db.WithContext(ctx).Model(&ImportSession{}).Where("id = ?", s.ID).
		Update("status", status).Error; err != nil {
		return err
	}
	return s.mirrorToRedis()
}

// UpdateStats persists live counters while provisioning runs.
func (s *ImportSession) UpdateStats(ctx context.Context, succeeded, failed, skipped, accountsCreated, accountsFailed int, progress float64) error {
	db := config.GetDB()
	s.Succeeded = succeeded
	s.Failed = failed
	s.Skipped = skipped
	s.AccountsCreated = accountsCreated
	s.AccountsFailed = accountsFailed
	s.Progress = progress
	if err := db.WithContext(ctx).Model(&ImportSession{}).Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"succeeded":        succeeded,
			"failed":           failed,
			"skipped":          skipped,
			"accounts_created": accountsCreated,
			"accounts_failed":  accountsFailed,
			"progress":         progress,
		}).Error; err != nil {
		return err
	}
	return s.mirrorToRedis()
}

func (s *ImportSession) mirrorToRedis() error {
	return config.SetRedisObject("ImportSession:"+strconv.Itoa(s.ID), s, 24*time.Hour)
}
