package provision

import (
	"context"

	"github.com/ch360/campus_backend/models"
	"gorm.io/gorm"
)

// BatchLimit is the fixed batch threshold: a commit is issued whenever
// this many operations are staged.
const BatchLimit = 50

// DocOp is one staged document write. Exactly one of Profile/Lookup is
// set; a row that obtained an account id stages two ops.
type DocOp struct {
	Profile *models.Student
	Lookup  *models.StudentLookup
}

// Sink collects staged document writes and commits them in groups.
// Batching is a throughput optimization only, not cross-row atomicity.
type Sink interface {
	Stage(op DocOp)
	Pending() int
	Commit(ctx context.Context) error
}

// GormSink commits each batch inside a single transaction.
type GormSink struct {
	db  *gorm.DB
	ops []DocOp
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Stage(op DocOp) {
	s.ops = append(s.ops, op)
}

func (s *GormSink) Pending() int {
	return len(s.ops)
}

func (s *GormSink) Commit(ctx context.Context) error {
	if len(s.ops) == 0 {
		return nil
	}
	ops := s.ops
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if op.Profile != nil {
				if err := models.UpsertStudent(tx, op.Profile); err != nil {
					return err
				}
			}
			if op.Lookup != nil {
				if err := models.UpsertStudentLookup(tx, op.Lookup); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.ops = nil
	return nil
}
