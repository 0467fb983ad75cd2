package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Study         StudyConfig         `mapstructure:"study"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	OneSignal     OneSignalConfig     `mapstructure:"onesignal"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory   string `mapstructure:"directory"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	Compress    bool   `mapstructure:"compress"`
	SlowQueryMs int    `mapstructure:"slow_query_ms"`
}

// StudyConfig holds the anti-gaming limits on voluntary cognitive sessions.
type StudyConfig struct {
	MaxVoluntarySessionsPerHour int    `mapstructure:"max_voluntary_sessions_per_hour"`
	MaxVoluntarySessionsPerDay  int    `mapstructure:"max_voluntary_sessions_per_day"`
	TaskRegistryPath            string `mapstructure:"task_registry_path"`
}

// NotificationsConfig holds prompt scheduling limits.
type NotificationsConfig struct {
	DailyPromptCap int `mapstructure:"daily_prompt_cap"`
	MinGapMinutes  int `mapstructure:"min_gap_minutes"`
}

// OneSignalConfig holds credentials for the push delivery service.
type OneSignalConfig struct {
	AppID  string `mapstructure:"app_id"`
	APIKey string `mapstructure:"api_key"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me-in-production")

	// Database defaults
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "iceplunge-db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true)     // Compress old logs
	v.SetDefault("logging.slow_query_ms", 200) // Warn on queries slower than this

	// Study defaults
	v.SetDefault("study.max_voluntary_sessions_per_hour", 2)
	v.SetDefault("study.max_voluntary_sessions_per_day", 8)
	v.SetDefault("study.task_registry_path", "config/tasks.yaml")

	// Notification defaults
	v.SetDefault("notifications.daily_prompt_cap", 4)
	v.SetDefault("notifications.min_gap_minutes", 45)

	// OneSignal credentials come from the environment in production
	v.SetDefault("onesignal.app_id", "")
	v.SetDefault("onesignal.api_key", "")
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("ICEPLUNGE") // e.g., ICEPLUNGE_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
