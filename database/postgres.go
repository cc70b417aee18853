package database

import (
	"strings"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(databaseURL string) {
	var err error
	DB, err = Open(databaseURL)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to connect to database")
	}

	utils.Logger.Info("Database connected")

	if err := Migrate(DB); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to migrate database")
	}

	utils.Logger.Info("Database migrated")
}

// Open picks the driver from the URL: "sqlite:" for local development and
// tests, PostgreSQL for everything else.
func Open(databaseURL string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel()),
	}
	if path, ok := strings.CutPrefix(databaseURL, "sqlite:"); ok {
		return gorm.Open(sqlite.Open(path), cfg)
	}
	return gorm.Open(postgres.Open(databaseURL), cfg)
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.TripMember{},
		&models.Tag{},
		&models.Spend{},
		&models.SpendAssignment{},
		&models.Choice{},
		&models.ChoiceOption{},
		&models.ChoiceResponse{},
		&models.ChecklistTemplate{},
		&models.TemplateItem{},
		&models.Checklist{},
		&models.ChecklistItem{},
		&models.Activity{},
		&models.Invitation{},
	)
}

func gormLogLevel() logger.LogLevel {
	switch utils.Logger.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return logger.Info
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return logger.Error
	default:
		return logger.Warn
	}
}
