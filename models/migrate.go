package models

import (
	"log"

	"github.com/ch360/campus_backend/config"
)

// MigrateTable runs AutoMigrate for every model. Can be skipped on
// startup with SKIP_MIGRATIONS=true (run as a separate job instead).
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&User{},
		&Department{},
		&AuthAccount{},
		&Student{},
		&StudentLookup{},
		&ImportSession{},
		&Syllabus{},
		&SyllabusApproval{},
	)
	if err != nil {
		log.Printf("auto-migrate failed: %v", err)
		return
	}
	log.Println("database migration completed")
}
