package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentLookup is the secondary document keyed by account uid, pointing
// back at the profile's DocPath. Legacy convention: studentsByUid/{uid}.
// Writes use merge semantics: an existing row keeps fields the write does
// not carry.
type StudentLookup struct {
	Uid       string    `gorm:"primaryKey;size:40" json:"uid"`
	DocPath   string    `gorm:"size:255;not null" json:"doc_path"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LookupDocPath builds the legacy lookup path for an account id.
func LookupDocPath(uid string) string {
	return "studentsByUid/" + uid
}

// UpsertStudentLookup merges the lookup document for one uid.
func UpsertStudentLookup(tx *gorm.DB, l *StudentLookup) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"doc_path"}),
	}).Create(l).Error
}
