package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormModels "skydeck/flightdeck/internal/models/gorm"
)

// ORM is the GORM handle used by the record and preview repositories.
var ORM *gorm.DB

// SQLX is the raw-SQL handle used by the directory repository.
var SQLX *sqlx.DB

// InitORM opens the GORM connection and migrates the engine's tables.
// driver is "sqlite" or "postgres".
func InitORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(
		&gormModels.ManualFlight{},
		&gormModels.PreviewSlot{},
		&gormModels.UIInput{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	ORM = db
	return db, nil
}

// InitSQLX opens the sqlx connection for the directory tables.
func InitSQLX(driver, dsn string) (*sqlx.DB, error) {
	driverName := driver
	if driver == "sqlite" {
		driverName = "sqlite3"
	}
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect with sqlx (%s): %w", driver, err)
	}
	SQLX = db
	return db, nil
}
