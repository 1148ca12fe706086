package models

import (
	"context"
	"errors"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/utils"
	"gorm.io/gorm"
)

type SyllabusStage string

const (
	StageDraft            SyllabusStage = "draft"
	StageDepartmentReview SyllabusStage = "department-review"
	StageCommitteeReview  SyllabusStage = "committee-review"
	StageCouncilReview    SyllabusStage = "council-review"
	StagePublished        SyllabusStage = "published"
)

type ApprovalDecision string

const (
	DecisionSubmitted ApprovalDecision = "submitted"
	DecisionApproved  ApprovalDecision = "approved"
	DecisionRejected  ApprovalDecision = "rejected"
)

// Syllabus is the workflow record tracked through the five-stage approval
// sequence.
type Syllabus struct {
	ID             int           `gorm:"primary_key" json:"id"`
	CourseCode     string        `gorm:"size:20;not null;index" json:"course_code" binding:"required"`
	CourseTitle    string        `gorm:"size:200;not null" json:"course_title" binding:"required"`
	DepartmentCode string        `gorm:"size:10;not null;index" json:"department_code" binding:"required"`
	Content        string        `gorm:"type:longtext" json:"content"`
	Status         SyllabusStage `gorm:"size:30;not null;default:draft" json:"status"`
	CreatedBy      string        `gorm:"size:100" json:"created_by"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyllabusApproval is one immutable history entry. Rows are append-only:
// nothing in this codebase updates or deletes them.
type SyllabusApproval struct {
	ID         int              `gorm:"primary_key" json:"id"`
	SyllabusId int              `gorm:"not null;index" json:"syllabus_id"`
	Stage      SyllabusStage    `gorm:"size:30;not null" json:"stage"`
	Actor      string           `gorm:"size:100;not null" json:"actor"`
	Decision   ApprovalDecision `gorm:"size:20;not null" json:"decision"`
	Comment    string           `gorm:"size:500" json:"comment"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func CreateSyllabus(ctx context.Context, input *Syllabus) (*Syllabus, error) {
	db := config.GetDB()
	input.Status = StageDraft

	username, _ := utils.GetUsernameFromContext(ctx)
	input.CreatedBy = username

	if err := db.WithContext(ctx).Create(input).Error; err != nil {
		return nil, err
	}
	return input, nil
}

func GetSyllabus(ctx context.Context, id int) (*Syllabus, error) {
	db := config.GetDB()
	var result Syllabus
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// GetApprovalHistory lists a record's transitions newest-first.
func GetApprovalHistory(ctx context.Context, syllabusId int) ([]*SyllabusApproval, error) {
	db := config.GetDB()
	var entries []*SyllabusApproval
	err := db.WithContext(ctx).Model(&SyllabusApproval{}).
		Where("syllabus_id = ?", syllabusId).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
