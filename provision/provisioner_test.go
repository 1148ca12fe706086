package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ch360/campus_backend/ingest"
)

type fakeProvider struct {
	existing   map[string]bool
	fetchErr   map[string]error
	createErr  map[string]error
	created    []string
	fetchCalls int
}

func (p *fakeProvider) FetchSignInMethods(_ context.Context, email string) ([]string, error) {
	p.fetchCalls++
	if err := p.fetchErr[email]; err != nil {
		return nil, err
	}
	if p.existing[email] {
		return []string{"password"}, nil
	}
	return nil, nil
}

func (p *fakeProvider) CreateAccount(_ context.Context, email string, _ string) (string, error) {
	if err := p.createErr[email]; err != nil {
		return "", err
	}
	p.created = append(p.created, email)
	return "uid-" + email, nil
}

type fakeSink struct {
	staged    []DocOp
	commits   [][]DocOp
	commitErr error
}

func (s *fakeSink) Stage(op DocOp) {
	s.staged = append(s.staged, op)
}

func (s *fakeSink) Pending() int {
	return len(s.staged)
}

func (s *fakeSink) Commit(_ context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	batch := make([]DocOp, len(s.staged))
	copy(batch, s.staged)
	s.commits = append(s.commits, batch)
	s.staged = nil
	return nil
}

func makeRows(n int) []ingest.Row {
	rows := make([]ingest.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, ingest.Row{
			RollNo:   fmt.Sprintf("23691A32%02d", i),
			Name:     fmt.Sprintf("STUDENT %d", i),
			Position: i + 1,
		})
	}
	return rows
}

var testPartition = Partition{DepartmentCode: "CSE", Year: "2023", Section: "B"}

func TestRunBatchesEveryFiftyOps(t *testing.T) {
	rows := makeRows(120)

	// Every account already exists, so each row stages exactly one
	// profile op: 120 ops over a threshold of 50 means three commits.
	provider := &fakeProvider{existing: map[string]bool{}}
	for _, row := range rows {
		provider.existing[GenerateEmail(row.RollNo, "")] = true
	}
	sink := &fakeSink{}

	p := &Provisioner{Provider: provider, Sink: sink}
	stats, err := p.Run(context.Background(), rows, testPartition)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Commits != 3 {
		t.Fatalf("commits = %d, want 3", stats.Commits)
	}
	if got := []int{len(sink.commits[0]), len(sink.commits[1]), len(sink.commits[2])}; got[0] != 50 || got[1] != 50 || got[2] != 20 {
		t.Fatalf("batch sizes = %v, want [50 50 20]", got)
	}
	if stats.Skipped != 120 || stats.AccountsCreated != 0 {
		t.Fatalf("existing accounts should be skipped: %+v", stats)
	}
	if stats.Succeeded != 120 || stats.Processed != 120 {
		t.Fatalf("all rows should succeed: %+v", stats)
	}
	if stats.Progress != 100 {
		t.Fatalf("progress = %v, want 100", stats.Progress)
	}
}

func TestRunCreatesAccountsAndLookups(t *testing.T) {
	rows := makeRows(2)
	provider := &fakeProvider{}
	sink := &fakeSink{}

	p := &Provisioner{Provider: provider, Sink: sink}
	stats, err := p.Run(context.Background(), rows, testPartition)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.AccountsCreated != 2 {
		t.Fatalf("accounts created = %d, want 2", stats.AccountsCreated)
	}
	// Each created account stages a profile plus a lookup op.
	if len(sink.commits) != 1 || len(sink.commits[0]) != 4 {
		t.Fatalf("want one commit of 4 ops, got %+v", sink.commits)
	}
	var profiles, lookups int
	for _, op := range sink.commits[0] {
		if op.Profile != nil {
			profiles++
			if op.Profile.AccountUid == "" {
				t.Fatalf("profile missing account uid: %+v", op.Profile)
			}
			if op.Profile.DocKey != op.Profile.AccountUid {
				t.Fatalf("profile should be keyed by uid, got %q", op.Profile.DocKey)
			}
		}
		if op.Lookup != nil {
			lookups++
			if op.Lookup.DocPath == "" {
				t.Fatalf("lookup missing doc path")
			}
		}
	}
	if profiles != 2 || lookups != 2 {
		t.Fatalf("profiles = %d, lookups = %d, want 2 and 2", profiles, lookups)
	}
}

func TestRunAccountFailureStillWritesProfile(t *testing.T) {
	rows := makeRows(3)
	failEmail := GenerateEmail(rows[1].RollNo, "")
	provider := &fakeProvider{
		createErr: map[string]error{failEmail: errors.New("quota exceeded")},
	}
	sink := &fakeSink{}

	p := &Provisioner{Provider: provider, Sink: sink}
	stats, err := p.Run(context.Background(), rows, testPartition)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.AccountsFailed != 1 || stats.AccountsCreated != 2 {
		t.Fatalf("stats = %+v, want 1 failed / 2 created", stats)
	}
	// The failed row still succeeds: its profile is keyed by the raw
	// roll number and carries no account uid.
	if stats.Succeeded != 3 {
		t.Fatalf("succeeded = %d, want 3 (profile written anyway)", stats.Succeeded)
	}
	var orphan bool
	for _, op := range sink.commits[0] {
		if op.Profile != nil && op.Profile.AccountUid == "" {
			orphan = true
			if op.Profile.DocKey != rows[1].RollNo {
				t.Fatalf("orphan profile keyed by %q, want roll number %q", op.Profile.DocKey, rows[1].RollNo)
			}
		}
	}
	if !orphan {
		t.Fatal("expected a profile without an account uid")
	}
}

func TestRunStrictModeBlocksOrphanProfiles(t *testing.T) {
	t.Setenv("STRICT_PROFILE_REQUIRES_ACCOUNT", "true")

	rows := makeRows(2)
	failEmail := GenerateEmail(rows[0].RollNo, "")
	provider := &fakeProvider{
		createErr: map[string]error{failEmail: errors.New("provider down")},
	}
	sink := &fakeSink{}

	p := &Provisioner{Provider: provider, Sink: sink}
	stats, err := p.Run(context.Background(), rows, testPartition)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Fatalf("stats = %+v, want 1 failed / 1 succeeded", stats)
	}
	if len(stats.RowErrors) != 1 || stats.RowErrors[0].RollNo != rows[0].RollNo {
		t.Fatalf("row errors = %+v", stats.RowErrors)
	}
	// Only the successful row's ops reach the sink.
	for _, op := range sink.commits[0] {
		if op.Profile != nil && op.Profile.RollNo == rows[0].RollNo {
			t.Fatal("blocked row should not stage a profile")
		}
	}
}

func TestRunCredentialFuncFailureSkipsProvider(t *testing.T) {
	rows := makeRows(2)
	provider := &fakeProvider{}
	sink := &fakeSink{}

	p := &Provisioner{
		Provider: provider,
		Sink:     sink,
		Credentials: func(row ingest.Row) (string, string, error) {
			if row.Position == 1 {
				return "", "", errors.New("no pattern match")
			}
			return GenerateEmail(row.RollNo, ""), "pw", nil
		},
	}
	stats, err := p.Run(context.Background(), rows, testPartition)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Failed != 1 || stats.Succeeded != 1 {
		t.Fatalf("stats = %+v, want 1 failed / 1 succeeded", stats)
	}
	if provider.fetchCalls != 1 {
		t.Fatalf("fetch calls = %d; failed credential row must not hit the provider", provider.fetchCalls)
	}
}

func TestRunCommitErrorAbortsButKeepsCommittedBatches(t *testing.T) {
	rows := makeRows(60)
	provider := &fakeProvider{existing: map[string]bool{}}
	for _, row := range rows {
		provider.existing[GenerateEmail(row.RollNo, "")] = true
	}
	sink := &fakeSink{}

	committed := 0
	p := &Provisioner{Provider: provider, Sink: sink, OnProgress: func(s Stats) {
		if s.Commits > committed {
			committed = s.Commits
			// Fail the next (final, partial) commit.
			sink.commitErr = errors.New("deadline exceeded")
		}
	}}

	_, err := p.Run(context.Background(), rows, testPartition)
	if err == nil {
		t.Fatal("commit error should abort the run")
	}
	// The first batch stays applied; there is no rollback.
	if len(sink.commits) != 1 || len(sink.commits[0]) != 50 {
		t.Fatalf("committed batches = %+v, want one batch of 50", sink.commits)
	}
}

func TestRunReportsProgressPerRow(t *testing.T) {
	rows := makeRows(4)
	provider := &fakeProvider{}
	sink := &fakeSink{}

	var progress []float64
	p := &Provisioner{Provider: provider, Sink: sink, OnProgress: func(s Stats) {
		progress = append(progress, s.Progress)
	}}
	if _, err := p.Run(context.Background(), rows, testPartition); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Four per-row callbacks plus the final post-commit one.
	if len(progress) != 5 {
		t.Fatalf("progress callbacks = %d, want 5", len(progress))
	}
	want := []float64{25, 50, 75, 100, 100}
	for i, p := range progress {
		if p != want[i] {
			t.Fatalf("progress[%d] = %v, want %v", i, p, want[i])
		}
	}
}

func TestGenerateEmailContract(t *testing.T) {
	if got := GenerateEmail("23691A3201", ""); got != "23691a3201@student.ch360.edu.in" {
		t.Fatalf("GenerateEmail = %q", got)
	}
	if got := GenerateEmail("23691A3201", "other.edu"); got != "23691a3201@other.edu" {
		t.Fatalf("GenerateEmail with domain = %q", got)
	}
}

func TestDerivePasswordUsesLastFourEpochDigits(t *testing.T) {
	now := time.UnixMilli(1724991234567)
	if got := DerivePassword("23691A3201", now); got != "23691A32014567" {
		t.Fatalf("DerivePassword = %q, want roll+4567", got)
	}
}
