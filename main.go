package main

import (
	"github.com/andytwoods/iceplunge/internal/config"
	"github.com/andytwoods/iceplunge/internal/database"
	logger "github.com/andytwoods/iceplunge/internal/logging"
	"github.com/andytwoods/iceplunge/internal/models"
	"github.com/andytwoods/iceplunge/internal/repository"
	"github.com/andytwoods/iceplunge/internal/router"
	"github.com/andytwoods/iceplunge/internal/services"

	"go.uber.org/zap"
)

func main() {
	// A basic logger for the config phase; the real logger needs config first.
	bootLog, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}

	if err := config.Init(".", bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(".")
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	database.Init(log)
	store := repository.New(database.DB)

	registry, err := models.LoadTaskRegistry(config.Conf.Study.TaskRegistryPath)
	if err != nil {
		log.Fatal("Failed to load task registry", zap.Error(err))
	}

	limiter := services.NewRateLimiter(store,
		config.Conf.Study.MaxVoluntarySessionsPerHour,
		config.Conf.Study.MaxVoluntarySessionsPerDay)
	sessionService := services.NewSessionService(store, registry, limiter, log)
	scheduler := services.NewNotificationScheduler(store,
		config.Conf.Notifications.DailyPromptCap,
		config.Conf.Notifications.MinGapMinutes, log)

	push := services.NewOneSignalClient(config.Conf.OneSignal.AppID, config.Conf.OneSignal.APIKey, log)
	dispatcher := services.NewDispatcher(store, scheduler, push, log)
	dispatcher.Start()

	r := router.Setup(log, store, sessionService, scheduler)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
