package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ch360/campus_backend/models"
	"github.com/ch360/campus_backend/utils"
	"github.com/gin-gonic/gin"
)

// authedRouter builds a router with a session already resolved, the way
// SessionMiddleware leaves it for a logged-in registrar.
func authedRouter(register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := utils.SetUsernameInContext(c.Request.Context(), "registrar")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	register(r)
	return r
}

func TestGetStudentByUidResolvesProfile(t *testing.T) {
	account := &models.AuthAccount{Uid: "u-1", Email: "23691a3201@student.ch360.edu.in"}
	student := &models.Student{
		DocKey:         "u-1",
		DocPath:        models.StudentDocPath("CSE", "2023", "A", "u-1"),
		DepartmentCode: "CSE",
		Year:           "2023",
		Section:        "A",
		RollNo:         "23691A3201",
		Name:           "ANENTHA KRISHNAN",
		AccountUid:     "u-1",
	}
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/students/by-uid/:uid", getStudentByUidHandler(
			func(ctx context.Context, uid string) (*models.AuthAccount, error) {
				if uid != "u-1" {
					t.Fatalf("account lookup got uid %q", uid)
				}
				return account, nil
			},
			func(ctx context.Context, uid string) (*models.Student, error) {
				if uid != "u-1" {
					t.Fatalf("profile lookup got uid %q", uid)
				}
				return student, nil
			},
		))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/by-uid/u-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		LookupPath   string         `json:"lookup_path"`
		AccountEmail string         `json:"account_email"`
		Student      models.Student `json:"student"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.LookupPath != "studentsByUid/u-1" {
		t.Fatalf("lookup_path = %q", body.LookupPath)
	}
	if body.Student.DocPath != "students/CSE/2023-A/u-1" {
		t.Fatalf("doc_path = %q", body.Student.DocPath)
	}
	if body.AccountEmail != "23691a3201@student.ch360.edu.in" {
		t.Fatalf("account_email = %q", body.AccountEmail)
	}
}

func TestGetStudentByUidUnknownAccount(t *testing.T) {
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/students/by-uid/:uid", getStudentByUidHandler(
			func(ctx context.Context, uid string) (*models.AuthAccount, error) {
				return nil, utils.ErrorRecordNotFound
			},
			func(ctx context.Context, uid string) (*models.Student, error) {
				t.Fatal("profile lookup must not run for an unknown account")
				return nil, nil
			},
		))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/by-uid/nobody", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetStudentByUidUnlinkedProfile(t *testing.T) {
	r := authedRouter(func(r *gin.Engine) {
		r.GET("/students/by-uid/:uid", getStudentByUidHandler(
			func(ctx context.Context, uid string) (*models.AuthAccount, error) {
				return &models.AuthAccount{Uid: uid, Email: uid + "@student.ch360.edu.in"}, nil
			},
			func(ctx context.Context, uid string) (*models.Student, error) {
				return nil, utils.ErrorRecordNotFound
			},
		))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/by-uid/u-9", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no profile") {
		t.Fatalf("body = %s, want the unlinked-profile message", w.Body.String())
	}
}

func TestGetStudentByUidRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/by-uid/:uid", getStudentByUidHandler(
		func(ctx context.Context, uid string) (*models.AuthAccount, error) {
			t.Fatal("account lookup must not run anonymously")
			return nil, nil
		},
		func(ctx context.Context, uid string) (*models.Student, error) {
			return nil, nil
		},
	))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/by-uid/u-1", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
