package database

import (
	"fmt"
	"time"

	"github.com/andytwoods/iceplunge/internal/config"
	logging "github.com/andytwoods/iceplunge/internal/logging"
	"github.com/andytwoods/iceplunge/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	// Route GORM's own logging through zap; the slow-query threshold
	// comes from the logging config.
	slowThreshold := time.Duration(config.Conf.Logging.SlowQueryMs) * time.Millisecond
	gormLogger := logging.NewGormLogger(log, logger.Warn, slowThreshold)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create partial indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.User{},
		&models.NotificationProfile{},
		&models.PromptEvent{},
		&models.PlungeLog{},
		&models.CognitiveSession{},
		&models.TaskResult{},
		&models.MoodRating{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	// The dispatcher repeatedly asks for due-but-unsent prompts; index only
	// the unsent rows.
	dueIndex := `CREATE INDEX IF NOT EXISTS idx_prompts_due ON prompt_events (scheduled_at) WHERE sent_at IS NULL;`
	if err := DB.Exec(dueIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on prompt_events", zap.Error(err))
	}

	// Index submissions per user and task type for the session index counts.
	resultIndex := `CREATE INDEX IF NOT EXISTS idx_results_session_type ON task_results (session_id, task_type);`
	if err := DB.Exec(resultIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on task_results", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
