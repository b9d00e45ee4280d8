package infra

import (
	"stallsync/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. Schema setup is
// the caller's job via RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations applies the schema via AutoMigrate.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Site{},
		&model.Stall{},
		&model.User{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.SaleTransaction{},
		&model.SoldItem{},
	)
}
