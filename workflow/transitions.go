package workflow

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transition applies one state change under a row lock, appends the
// history entry and publishes the workflow event after commit.
func transition(ctx context.Context, syllabusId int, decision models.ApprovalDecision, comment string,
	apply func(current models.SyllabusStage, role models.UserRole) (models.SyllabusStage, error)) (*models.Syllabus, error) {

	logger := config.GetLogger()
	db := config.GetDB()

	actor, _ := utils.GetUsernameFromContext(ctx)
	roleStr, _ := utils.GetUserRoleFromContext(ctx)
	role := models.UserRole(roleStr)

	var syllabus models.Syllabus
	var recordedStage models.SyllabusStage

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&syllabus, syllabusId).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		recordedStage = syllabus.Status
		next, err := apply(syllabus.Status, role)
		if err != nil {
			return err
		}

		entry := models.SyllabusApproval{
			SyllabusId: syllabus.ID,
			Stage:      recordedStage,
			Actor:      actor,
			Decision:   decision,
			Comment:    comment,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		syllabus.Status = next
		return tx.Model(&models.Syllabus{}).Where("id = ?", syllabus.ID).
			Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"syllabusId": syllabus.ID,
		"from":       recordedStage,
		"to":         syllabus.Status,
		"decision":   decision,
		"actor":      actor,
	}).Info("syllabus transition")

	publishTransition(ctx, &syllabus, recordedStage, decision, actor, comment)
	return &syllabus, nil
}

func publishTransition(ctx context.Context, syllabus *models.Syllabus, from models.SyllabusStage,
	decision models.ApprovalDecision, actor string, comment string) {

	detail, _ := json.Marshal(map[string]interface{}{
		"course_code": syllabus.CourseCode,
		"from":        from,
		"to":          syllabus.Status,
		"comment":     comment,
	})
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	// Best effort: a lost event never fails the transition itself.
	err := config.PublishCampusEvent(config.CampusEvent{
		EventType:     "syllabus." + string(decision),
		ReferenceId:   strconv.Itoa(syllabus.ID),
		ReferenceType: "syllabus",
		Actor:         actor,
		OccurredAt:    time.Now().UTC(),
		Detail:        detail,
		CorrelationId: correlationId,
	})
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "publishTransition", "publish", syllabus.ID, err)
	}
}

// SubmitSyllabus moves a draft into department review.
func SubmitSyllabus(ctx context.Context, syllabusId int) (*models.Syllabus, error) {
	return transition(ctx, syllabusId, models.DecisionSubmitted, "",
		func(current models.SyllabusStage, _ models.UserRole) (models.SyllabusStage, error) {
			return Submit(current)
		})
}

// ApproveSyllabus advances the record one stage for the acting reviewer.
func ApproveSyllabus(ctx context.Context, syllabusId int, comment string) (*models.Syllabus, error) {
	return transition(ctx, syllabusId, models.DecisionApproved, comment, Approve)
}

// RejectSyllabus returns the record to draft with the reviewer's comment.
func RejectSyllabus(ctx context.Context, syllabusId int, comment string) (*models.Syllabus, error) {
	return transition(ctx, syllabusId, models.DecisionRejected, comment,
		func(current models.SyllabusStage, role models.UserRole) (models.SyllabusStage, error) {
			return Reject(current, role, comment)
		})
}
