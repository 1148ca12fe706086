package workflow

import (
	"testing"

	"github.com/ch360/campus_backend/models"
)

func TestSubmitOnlyFromDraft(t *testing.T) {
	next, err := Submit(models.StageDraft)
	if err != nil {
		t.Fatalf("submit from draft: %v", err)
	}
	if next != models.StageDepartmentReview {
		t.Fatalf("submit advanced to %s, want %s", next, models.StageDepartmentReview)
	}

	for _, stage := range []models.SyllabusStage{
		models.StageDepartmentReview,
		models.StageCommitteeReview,
		models.StageCouncilReview,
		models.StagePublished,
	} {
		if _, err := Submit(stage); err != ErrNotDraft {
			t.Fatalf("submit from %s: got %v, want ErrNotDraft", stage, err)
		}
	}
}

func TestApproveAdvancesThroughAllStages(t *testing.T) {
	cases := []struct {
		stage models.SyllabusStage
		role  models.UserRole
		want  models.SyllabusStage
	}{
		{models.StageDepartmentReview, models.UserRoleDeptHead, models.StageCommitteeReview},
		{models.StageCommitteeReview, models.UserRoleCommittee, models.StageCouncilReview},
		{models.StageCouncilReview, models.UserRoleCouncil, models.StagePublished},
	}
	for _, tc := range cases {
		next, err := Approve(tc.stage, tc.role)
		if err != nil {
			t.Fatalf("approve at %s as %s: %v", tc.stage, tc.role, err)
		}
		if next != tc.want {
			t.Fatalf("approve at %s: got %s, want %s", tc.stage, next, tc.want)
		}
	}
}

func TestApproveRoleGating(t *testing.T) {
	if _, err := Approve(models.StageCommitteeReview, models.UserRoleDeptHead); err != ErrRoleNotAllowed {
		t.Fatalf("dept head approving committee stage: got %v, want ErrRoleNotAllowed", err)
	}
	if _, err := Approve(models.StageDepartmentReview, models.UserRoleFaculty); err != ErrRoleNotAllowed {
		t.Fatalf("faculty approving: got %v, want ErrRoleNotAllowed", err)
	}

	// Admins can act at every review stage.
	for _, stage := range []models.SyllabusStage{
		models.StageDepartmentReview,
		models.StageCommitteeReview,
		models.StageCouncilReview,
	} {
		if _, err := Approve(stage, models.UserRoleAdmin); err != nil {
			t.Fatalf("admin approving at %s: %v", stage, err)
		}
	}
}

func TestPublishedIsTerminal(t *testing.T) {
	if _, err := Approve(models.StagePublished, models.UserRoleAdmin); err != ErrAlreadyPublished {
		t.Fatalf("approve published: got %v, want ErrAlreadyPublished", err)
	}
	if _, err := Reject(models.StagePublished, models.UserRoleAdmin, "late objection"); err != ErrAlreadyPublished {
		t.Fatalf("reject published: got %v, want ErrAlreadyPublished", err)
	}
}

func TestRejectRequiresComment(t *testing.T) {
	if _, err := Reject(models.StageDepartmentReview, models.UserRoleDeptHead, ""); err != ErrCommentRequired {
		t.Fatalf("reject without comment: got %v, want ErrCommentRequired", err)
	}
}

func TestRejectReturnsToDraftFromAnyReviewStage(t *testing.T) {
	cases := []struct {
		stage models.SyllabusStage
		role  models.UserRole
	}{
		{models.StageDepartmentReview, models.UserRoleDeptHead},
		{models.StageCommitteeReview, models.UserRoleCommittee},
		{models.StageCouncilReview, models.UserRoleCouncil},
	}
	for _, tc := range cases {
		next, err := Reject(tc.stage, tc.role, "missing unit outcomes")
		if err != nil {
			t.Fatalf("reject at %s: %v", tc.stage, err)
		}
		if next != models.StageDraft {
			t.Fatalf("reject at %s: got %s, want draft", tc.stage, next)
		}
	}
}

func TestRejectFromDraftRefused(t *testing.T) {
	if _, err := Reject(models.StageDraft, models.UserRoleAdmin, "not reviewable"); err != ErrNotInReview {
		t.Fatalf("reject draft: got %v, want ErrNotInReview", err)
	}
}
