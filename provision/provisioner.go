package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/models"
	"github.com/sirupsen/logrus"
)

// Partition is the globally selected target group for one run.
type Partition struct {
	DepartmentCode string `json:"department_code"`
	Year           string `json:"year"`
	Section        string `json:"section"`
}

// Stats are the per-run counters. Final values are the only durable
// artifact of a run (persisted onto the import session).
type Stats struct {
	Total           int     `json:"total"`
	Processed       int     `json:"processed"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	AccountsCreated int     `json:"accounts_created"`
	AccountsFailed  int     `json:"accounts_failed"`
	Commits         int     `json:"commits"`
	Progress        float64 `json:"progress"`

	RowErrors []RowError `json:"row_errors,omitempty"`
}

// RowError records why a single row failed; kept on the session for the
// retry screen.
type RowError struct {
	Position int    `json:"position"`
	RollNo   string `json:"roll_no"`
	Reason   string `json:"reason"`
}

// CredentialFunc overrides email/password derivation per row. The
// credential screen's "save" action uses this; the import flow uses the
// default derivation.
type CredentialFunc func(row ingest.Row) (email string, password string, err error)

// Provisioner runs the per-record provisioning loop. Rows are processed
// strictly sequentially: batch accounting and progress stay simple, and
// the identity provider is never hit with parallel account creations.
type Provisioner struct {
	Provider    IdentityProvider
	Sink        Sink
	Gate        *Gate
	Logger      *logrus.Logger
	EmailDomain string
	BatchLimit  int
	Credentials CredentialFunc

	// OnProgress, when set, is called after every processed row with a
	// snapshot of the counters (used to keep the session row current).
	OnProgress func(Stats)

	now func() time.Time
}

// Run processes every row, fail-soft: a row-level error increments the
// failure counter and the loop moves on. A batch-commit error aborts the
// run; batches already committed stay applied (no rollback).
func (p *Provisioner) Run(ctx context.Context, rows []ingest.Row, part Partition) (Stats, error) {
	stats := Stats{Total: len(rows)}
	limit := p.BatchLimit
	if limit <= 0 {
		limit = BatchLimit
	}
	now := p.now
	if now == nil {
		now = time.Now
	}

	for _, row := range rows {
		p.provisionRow(ctx, row, part, now, &stats)

		stats.Processed++
		stats.Progress = float64(stats.Processed) / float64(stats.Total) * 100

		if p.Sink.Pending() >= limit {
			if err := p.Sink.Commit(ctx); err != nil {
				return stats, fmt.Errorf("batch commit failed: %w", err)
			}
			stats.Commits++
		}
		if p.OnProgress != nil {
			p.OnProgress(stats)
		}
	}

	if p.Sink.Pending() > 0 {
		if err := p.Sink.Commit(ctx); err != nil {
			return stats, fmt.Errorf("final batch commit failed: %w", err)
		}
		stats.Commits++
	}
	if p.OnProgress != nil {
		p.OnProgress(stats)
	}
	return stats, nil
}

func (p *Provisioner) provisionRow(ctx context.Context, row ingest.Row, part Partition, now func() time.Time, stats *Stats) {
	var email, password string
	var err error
	if p.Credentials != nil {
		email, password, err = p.Credentials(row)
		if err != nil {
			stats.Failed++
			stats.RowErrors = append(stats.RowErrors, RowError{Position: row.Position, RollNo: row.RollNo, Reason: err.Error()})
			return
		}
	} else {
		email = GenerateEmail(row.RollNo, p.EmailDomain)
		password = DerivePassword(row.RollNo, now())
	}

	// Account creation is best-effort: an existing account or a provider
	// rejection is counted, and the profile is still written keyed by the
	// raw roll number ("create now, link later").
	uid := ""
	var methods []string
	err = p.gate(ctx, func() error {
		var ferr error
		methods, ferr = p.Provider.FetchSignInMethods(ctx, email)
		return ferr
	})
	switch {
	case err != nil:
		stats.AccountsFailed++
		p.logRow(row, email, "FetchSignInMethods", err)
	case len(methods) > 0:
		stats.Skipped++
	default:
		err = p.gate(ctx, func() error {
			var cerr error
			uid, cerr = p.Provider.CreateAccount(ctx, email, password)
			return cerr
		})
		if err != nil {
			uid = ""
			stats.AccountsFailed++
			p.logRow(row, email, "CreateAccount", err)
		} else {
			stats.AccountsCreated++
		}
	}

	if uid == "" && config.StrictProfileRequiresAccount() {
		stats.Failed++
		stats.RowErrors = append(stats.RowErrors, RowError{Position: row.Position, RollNo: row.RollNo, Reason: "no directory account; profile write blocked"})
		return
	}

	docKey := uid
	if docKey == "" {
		docKey = row.RollNo
	}

	student := models.NewStudentFromRow(row, part.DepartmentCode, part.Year, part.Section, docKey, uid, email)
	p.Sink.Stage(DocOp{Profile: student})
	if uid != "" {
		p.Sink.Stage(DocOp{Lookup: &models.StudentLookup{
			Uid:     uid,
			DocPath: student.DocPath,
		}})
	}
	stats.Succeeded++
}

func (p *Provisioner) gate(ctx context.Context, fn func() error) error {
	if p.Gate == nil {
		return fn()
	}
	return p.Gate.Do(ctx, fn)
}

func (p *Provisioner) logRow(row ingest.Row, email string, step string, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.WithFields(logrus.Fields{
		"module":   "provision",
		"position": row.Position,
		"roll_no":  row.RollNo,
		"email":    email,
		"step":     step,
	}).Error(err.Error())
}
