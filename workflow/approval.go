package workflow

import (
	"errors"

	"github.com/ch360/campus_backend/models"
)

var (
	ErrNotDraft         = errors.New("syllabus can only be submitted from draft")
	ErrNotInReview      = errors.New("syllabus is not in a review stage")
	ErrAlreadyPublished = errors.New("syllabus is already published")
	ErrCommentRequired  = errors.New("a rejection comment is required")
	ErrRoleNotAllowed   = errors.New("role cannot act on this stage")
)

// reviewOrder is the forward path after submission. Published is terminal.
var reviewOrder = []models.SyllabusStage{
	models.StageDepartmentReview,
	models.StageCommitteeReview,
	models.StageCouncilReview,
	models.StagePublished,
}

// stageReviewers maps each review stage to the role that signs off on it.
var stageReviewers = map[models.SyllabusStage]models.UserRole{
	models.StageDepartmentReview: models.UserRoleDeptHead,
	models.StageCommitteeReview:  models.UserRoleCommittee,
	models.StageCouncilReview:    models.UserRoleCouncil,
}

// NextStage returns the stage an approval at current advances to.
func NextStage(current models.SyllabusStage) (models.SyllabusStage, error) {
	for i, stage := range reviewOrder[:len(reviewOrder)-1] {
		if stage == current {
			return reviewOrder[i+1], nil
		}
	}
	if current == models.StagePublished {
		return "", ErrAlreadyPublished
	}
	return "", ErrNotInReview
}

// CanReview reports whether role may approve or reject at the given stage.
// Admins can act anywhere.
func CanReview(role models.UserRole, stage models.SyllabusStage) bool {
	if role == models.UserRoleAdmin {
		return true
	}
	reviewer, ok := stageReviewers[stage]
	return ok && role == reviewer
}

// Submit moves a draft into the first review stage.
func Submit(current models.SyllabusStage) (models.SyllabusStage, error) {
	if current != models.StageDraft {
		return "", ErrNotDraft
	}
	return models.StageDepartmentReview, nil
}

// Approve advances one review stage. Approving council-review publishes
// the syllabus, after which no further transitions exist.
func Approve(current models.SyllabusStage, role models.UserRole) (models.SyllabusStage, error) {
	if !CanReview(role, current) {
		if _, ok := stageReviewers[current]; !ok {
			if current == models.StagePublished {
				return "", ErrAlreadyPublished
			}
			return "", ErrNotInReview
		}
		return "", ErrRoleNotAllowed
	}
	return NextStage(current)
}

// Reject sends the syllabus back to draft from any review stage. The
// comment travels with the history entry so the author knows what to fix.
func Reject(current models.SyllabusStage, role models.UserRole, comment string) (models.SyllabusStage, error) {
	if comment == "" {
		return "", ErrCommentRequired
	}
	if _, ok := stageReviewers[current]; !ok {
		if current == models.StagePublished {
			return "", ErrAlreadyPublished
		}
		return "", ErrNotInReview
	}
	if !CanReview(role, current) {
		return "", ErrRoleNotAllowed
	}
	return models.StageDraft, nil
}
