package credential

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ch360/campus_backend/utils"
)

// Record is the subset of a student profile the generator reads.
type Record struct {
	RollNo string
	Name   string
	DOB    string // as typed in the sheet, e.g. 21-08-2006
	Email  string
}

type UsernamePattern string

const (
	UsernameRollNo     UsernamePattern = "rollno"     // raw roll number
	UsernameEmailLocal UsernamePattern = "emaillocal" // local part of existing email
	UsernameNameRoll   UsernamePattern = "nameroll"   // first name + roll number
	UsernameCustom     UsernamePattern = "custom"     // template with placeholders
)

type PasswordPattern string

const (
	PasswordRollDOB  PasswordPattern = "rolldob"  // roll number + DOB digits
	PasswordRollYear PasswordPattern = "rollyear" // roll number + current year
	PasswordNameDOB  PasswordPattern = "namedob"  // first name + DOB digits
	PasswordCustom   PasswordPattern = "custom"   // template with placeholders
	PasswordRandom   PasswordPattern = "random"   // random from charset
)

const (
	DefaultRandomLength = 8
	MinRandomLength     = 6
	MaxRandomLength     = 20

	alnumCharset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	symbolCharset = "!@#$%&*"
)

// Options selects the username/password patterns for one generation run.
type Options struct {
	UsernamePattern  UsernamePattern `json:"username_pattern"`
	UsernameTemplate string          `json:"username_template"`
	PasswordPattern  PasswordPattern `json:"password_pattern"`
	PasswordTemplate string          `json:"password_template"`
	Domain           string          `json:"domain"`
	RandomLength     int             `json:"random_length"`
	IncludeSymbols   bool            `json:"include_symbols"`
}

type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Placeholders understood by custom templates. Substitution is literal;
// an unresolved placeholder passes through to the output untouched, which
// is accepted behavior (the operator sees exactly what they typed).
const (
	TokenRoll = "{rollno}"
	TokenName = "{name}"
	TokenDOB  = "{dob}"
	TokenYear = "{year}"
)

// Generate produces a username, password and composite email for one
// record. Pure function apart from the random password source.
func Generate(rec Record, opts Options) (Credential, error) {
	username, err := buildUsername(rec, opts)
	if err != nil {
		return Credential{}, err
	}
	password, err := buildPassword(rec, opts)
	if err != nil {
		return Credential{}, err
	}

	domain := strings.TrimSpace(opts.Domain)
	if domain == "" {
		return Credential{}, errors.New("domain is required")
	}
	return Credential{
		Username: username,
		Password: password,
		Email:    username + "@" + domain,
	}, nil
}

func buildUsername(rec Record, opts Options) (string, error) {
	switch opts.UsernamePattern {
	case UsernameRollNo, "":
		return strings.ToLower(rec.RollNo), nil
	case UsernameEmailLocal:
		local, _, found := strings.Cut(rec.Email, "@")
		if !found {
			return strings.ToLower(rec.RollNo), nil
		}
		return strings.ToLower(local), nil
	case UsernameNameRoll:
		return firstName(rec.Name) + strings.ToLower(rec.RollNo), nil
	case UsernameCustom:
		return substitute(opts.UsernameTemplate, rec), nil
	default:
		return "", fmt.Errorf("unknown username pattern: %s", opts.UsernamePattern)
	}
}

func buildPassword(rec Record, opts Options) (string, error) {
	switch opts.PasswordPattern {
	case PasswordRollDOB, "":
		return strings.ToLower(rec.RollNo) + utils.DigitsOnly(rec.DOB), nil
	case PasswordRollYear:
		return strings.ToLower(rec.RollNo) + fmt.Sprint(time.Now().Year()), nil
	case PasswordNameDOB:
		return firstName(rec.Name) + utils.DigitsOnly(rec.DOB), nil
	case PasswordCustom:
		return substitute(opts.PasswordTemplate, rec), nil
	case PasswordRandom:
		return RandomPassword(opts.RandomLength, opts.IncludeSymbols), nil
	default:
		return "", fmt.Errorf("unknown password pattern: %s", opts.PasswordPattern)
	}
}

// RandomPassword draws uniformly from the configured charset. Length is
// clamped to the 6..20 range; zero means the default of 8.
func RandomPassword(length int, includeSymbols bool) string {
	if length == 0 {
		length = DefaultRandomLength
	}
	if length < MinRandomLength {
		length = MinRandomLength
	}
	if length > MaxRandomLength {
		length = MaxRandomLength
	}

	charset := alnumCharset
	if includeSymbols {
		charset += symbolCharset
	}

	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(charset[rand.Intn(len(charset))])
	}
	return b.String()
}

func substitute(tpl string, rec Record) string {
	out := strings.ReplaceAll(tpl, TokenRoll, strings.ToLower(rec.RollNo))
	out = strings.ReplaceAll(out, TokenName, firstName(rec.Name))
	out = strings.ReplaceAll(out, TokenDOB, utils.DigitsOnly(rec.DOB))
	out = strings.ReplaceAll(out, TokenYear, fmt.Sprint(time.Now().Year()))
	return out
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// SaveQuotas are the quotas accepted on the credential screen. Narrower
// than the bulk-import sheet's quota set: this flow only handles the
// convenor and management intake that trickles in after the import.
var SaveQuotas = []string{"COV", "MGMT"}

func QuotaAllowed(quota string) bool {
	for _, q := range SaveQuotas {
		if quota == q {
			return true
		}
	}
	return false
}
