package models

import (
	"context"
	"fmt"
	"time"

	"github.com/ch360/campus_backend/config"
	"github.com/ch360/campus_backend/ingest"
	"github.com/ch360/campus_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Student is the persisted profile document. DocPath preserves the legacy
// document-store convention and is load-bearing for the "log in and find
// my profile" flow:
//
//	students/{departmentShortCode}/{year}-{section}/{accountIdOrRollNo}
type Student struct {
	ID             int    `gorm:"primary_key" json:"id"`
	DocKey         string `gorm:"size:100;not null;index" json:"doc_key"`
	DocPath        string `gorm:"size:255;not null;unique" json:"doc_path"`
	DepartmentCode string `gorm:"size:10;not null;index" json:"department_code"`
	Year           string `gorm:"size:10;not null" json:"year"`
	Section        string `gorm:"size:10;not null" json:"section"`

	RollNo        string `gorm:"size:20;not null;index" json:"roll_no"`
	Name          string `gorm:"size:100;not null" json:"name"`
	Quota         string `gorm:"size:10" json:"quota"`
	Gender        string `gorm:"size:10" json:"gender"`
	StudentMobile string `gorm:"size:20" json:"student_mobile"`
	ParentMobile  string `gorm:"size:20" json:"parent_mobile"`
	AadharNo      string `gorm:"size:20" json:"aadhar_no"`
	FatherName    string `gorm:"size:100" json:"father_name"`
	MotherName    string `gorm:"size:100" json:"mother_name"`
	Address       string `gorm:"size:255" json:"address"`
	DOB           string `gorm:"size:20" json:"dob"`

	Email      string `gorm:"size:100" json:"email"`
	AccountUid string `gorm:"size:40;index" json:"account_uid"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// StudentDocPath builds the partitioned profile path.
func StudentDocPath(departmentCode string, year string, section string, key string) string {
	return fmt.Sprintf("students/%s/%s-%s/%s", departmentCode, year, section, key)
}

// NewStudentFromRow maps a staged import row onto a profile document under
// the selected partition. key is the account uid, or the raw roll number
// when no account was created.
func NewStudentFromRow(row ingest.Row, departmentCode string, year string, section string, key string, uid string, email string) *Student {
	return &Student{
		DocKey:         key,
		DocPath:        StudentDocPath(departmentCode, year, section, key),
		DepartmentCode: departmentCode,
		Year:           year,
		Section:        section,
		RollNo:         row.RollNo,
		Name:           row.Name,
		Quota:          row.Quota,
		Gender:         row.Gender,
		StudentMobile:  row.StudentMobile,
		ParentMobile:   row.ParentMobile,
		AadharNo:       row.AadharNo,
		FatherName:     row.FatherName,
		MotherName:     row.MotherName,
		Address:        row.Address,
		DOB:            row.DOB,
		Email:          email,
		AccountUid:     uid,
	}
}

// UpsertStudent writes one profile document; re-importing the same group
// overwrites the existing profile at the same path.
func UpsertStudent(tx *gorm.DB, s *Student) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_path"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"roll_no", "name", "quota", "gender", "student_mobile", "parent_mobile",
			"aadhar_no", "father_name", "mother_name", "address", "dob", "email", "account_uid",
		}),
	}).Create(s).Error
}

// GetStudentsByGroup lists one year-section group of a department in roll
// number order.
func GetStudentsByGroup(ctx context.Context, departmentCode string, year string, section string) ([]*Student, error) {
	db := config.GetDB()
	var results []*Student
	err := db.WithContext(ctx).Model(&Student{}).
		Where("department_code = ? AND year = ? AND section = ?", departmentCode, year, section).
		Order("roll_no").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ResolveProfileByUid finds a profile from a logged-in account id via the
// lookup document, without scanning the students table.
func ResolveProfileByUid(ctx context.Context, uid string) (*Student, error) {
	db := config.GetDB()

	var lookup StudentLookup
	if err := db.WithContext(ctx).Model(&StudentLookup{}).Where("uid = ?", uid).Take(&lookup).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var student Student
	if err := db.WithContext(ctx).Model(&Student{}).Where("doc_path = ?", lookup.DocPath).Take(&student).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &student, nil
}
