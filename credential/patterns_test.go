package credential

import (
	"strings"
	"testing"
)

var testRecord = Record{
	RollNo: "23691A3201",
	Name:   "ANENTHA KRISHNAN",
	DOB:    "21-08-2006",
	Email:  "Anentha.K@example.com",
}

func TestGenerateDefaultPatterns(t *testing.T) {
	cred, err := Generate(testRecord, Options{Domain: "student.ch360.edu.in"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cred.Username != "23691a3201" {
		t.Fatalf("username = %q, want lowercased roll number", cred.Username)
	}
	if cred.Password != "23691a320121082006" {
		t.Fatalf("password = %q, want roll+dob digits", cred.Password)
	}
	if cred.Email != "23691a3201@student.ch360.edu.in" {
		t.Fatalf("email = %q", cred.Email)
	}
}

func TestGenerateUsernamePatterns(t *testing.T) {
	cases := []struct {
		pattern  UsernamePattern
		template string
		want     string
	}{
		{UsernameRollNo, "", "23691a3201"},
		{UsernameEmailLocal, "", "anentha.k"},
		{UsernameNameRoll, "", "anentha23691a3201"},
		{UsernameCustom, "{name}.{rollno}", "anentha.23691a3201"},
	}
	for _, tc := range cases {
		cred, err := Generate(testRecord, Options{
			UsernamePattern:  tc.pattern,
			UsernameTemplate: tc.template,
			Domain:           "x.edu",
		})
		if err != nil {
			t.Fatalf("pattern %s: %v", tc.pattern, err)
		}
		if cred.Username != tc.want {
			t.Fatalf("pattern %s: username = %q, want %q", tc.pattern, cred.Username, tc.want)
		}
	}
}

func TestGenerateEmailLocalFallsBackToRoll(t *testing.T) {
	rec := testRecord
	rec.Email = ""
	cred, err := Generate(rec, Options{UsernamePattern: UsernameEmailLocal, Domain: "x.edu"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cred.Username != "23691a3201" {
		t.Fatalf("no existing email should fall back to roll number, got %q", cred.Username)
	}
}

func TestGenerateUnresolvedPlaceholderPassesThrough(t *testing.T) {
	cred, err := Generate(testRecord, Options{
		UsernamePattern:  UsernameCustom,
		UsernameTemplate: "{rollno}-{section}",
		Domain:           "x.edu",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// {section} is not a known token; it stays in the output verbatim.
	if cred.Username != "23691a3201-{section}" {
		t.Fatalf("username = %q, unresolved token should pass through", cred.Username)
	}
}

func TestGenerateRequiresDomain(t *testing.T) {
	if _, err := Generate(testRecord, Options{}); err == nil {
		t.Fatal("empty domain should be rejected")
	}
}

func TestGenerateUnknownPatternsRejected(t *testing.T) {
	if _, err := Generate(testRecord, Options{UsernamePattern: "initials", Domain: "x.edu"}); err == nil {
		t.Fatal("unknown username pattern should be rejected")
	}
	if _, err := Generate(testRecord, Options{PasswordPattern: "pin", Domain: "x.edu"}); err == nil {
		t.Fatal("unknown password pattern should be rejected")
	}
}

func TestRandomPasswordLengthClamps(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultRandomLength},
		{3, MinRandomLength},
		{12, 12},
		{50, MaxRandomLength},
	}
	for _, tc := range cases {
		if got := len(RandomPassword(tc.in, false)); got != tc.want {
			t.Fatalf("RandomPassword(%d) length = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRandomPasswordCharset(t *testing.T) {
	pw := RandomPassword(20, false)
	if strings.ContainsAny(pw, symbolCharset) {
		t.Fatalf("symbols disabled but password %q contains one", pw)
	}
	for _, r := range pw {
		if !strings.ContainsRune(alnumCharset, r) {
			t.Fatalf("password %q contains byte outside charset", pw)
		}
	}
}
