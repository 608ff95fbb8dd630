package database

import (
	"github.com/glebarez/sqlite"
	"github.com/lingoflow/backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		// pure-Go sqlite driver, no cgo
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.Project{},
		&model.Page{},
		&model.Row{},
		&model.PromptTemplate{},
		&model.GlossaryTerm{},
		&model.GlossaryCategory{},
		&model.User{},
		&model.AuditEntry{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
