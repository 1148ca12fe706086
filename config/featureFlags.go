package config

import (
	"os"
	"strings"
)

// StrictProfileRequiresAccount blocks writing a student profile when the
// directory account could not be created. The legacy console wrote the
// profile anyway, keyed by the raw roll number ("create now, link later");
// product has not confirmed which is intended, so the legacy behavior is
// the default.
//
// Set via env:
// - STRICT_PROFILE_REQUIRES_ACCOUNT=true
func StrictProfileRequiresAccount() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_PROFILE_REQUIRES_ACCOUNT")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ArchiveUploadsToGCS toggles the best-effort copy of uploaded spreadsheets
// to the GCS bucket for audit.
//
// Set via env:
// - ARCHIVE_UPLOADS=true
func ArchiveUploadsToGCS() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ARCHIVE_UPLOADS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
