package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ch360/campus_backend/models"
)

// IdentityProvider is the account directory the import provisions into.
// Production uses the directory-service tables; tests substitute fakes.
type IdentityProvider interface {
	// FetchSignInMethods returns the sign-in methods already registered
	// for an email. A non-empty result means the account exists and
	// creation must be skipped.
	FetchSignInMethods(ctx context.Context, email string) ([]string, error)

	// CreateAccount registers a new account and returns the
	// provider-assigned id.
	CreateAccount(ctx context.Context, email string, password string) (string, error)
}

// DirectoryProvider backs IdentityProvider with the auth_accounts table.
type DirectoryProvider struct{}

func (DirectoryProvider) FetchSignInMethods(ctx context.Context, email string) ([]string, error) {
	return models.FetchSignInMethods(ctx, email)
}

func (DirectoryProvider) CreateAccount(ctx context.Context, email string, password string) (string, error) {
	return models.CreateAuthAccount(ctx, email, password)
}

// DefaultEmailDomain is a bit-exact contract: existing accounts were
// provisioned as lowercase(rollNo)@student.ch360.edu.in and must remain
// resolvable.
const DefaultEmailDomain = "student.ch360.edu.in"

// GenerateEmail derives the account email from a roll number alone.
func GenerateEmail(rollNo string, domain string) string {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	return strings.ToLower(rollNo) + "@" + domain
}

// DerivePassword is the default import password: roll number plus the last
// four digits of the current epoch millis.
func DerivePassword(rollNo string, now time.Time) string {
	ms := fmt.Sprint(now.UnixMilli())
	return rollNo + ms[len(ms)-4:]
}
