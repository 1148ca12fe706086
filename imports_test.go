package main

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

func rosterUploadRequest(t *testing.T, filename string, contentType string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("department", "CSE")
	_ = w.WriteField("year", "2023")
	_ = w.WriteField("section", "A")
	if withFile {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write([]byte("roll no,student name\n")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// A text file renamed to .xlsx carries a text MIME type and must be
// turned away before it reaches the parser.
func TestCreateImportRejectsNonSpreadsheetMime(t *testing.T) {
	r := authedRouter(func(r *gin.Engine) {
		r.POST("/imports", createImportHandler())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, rosterUploadRequest(t, "roster.xlsx", "text/plain", true))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateImportRequiresFile(t *testing.T) {
	r := authedRouter(func(r *gin.Engine) {
		r.POST("/imports", createImportHandler())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, rosterUploadRequest(t, "", "", false))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
