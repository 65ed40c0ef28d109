package database

import (
	"fmt"
	"log"

	"github.com/anjiri1684/edirpay/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func gormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}
}

// Open connects to postgres without touching the package level handle.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// OpenDialector is used by tests and tooling that bring their own driver.
func OpenDialector(d gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(d, gormConfig())
}

func ConnectDB(dsn string) *gorm.DB {
	db, err := Open(dsn)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	DB = db
	log.Println("✅ Database connected successfully")
	return db
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Member{},
		&models.Submission{},
		&models.ApproverMessage{},
		&models.DecisionLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
