// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the base YAML config, overlays the environment-specific file,
// and applies environment variable overrides.
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_REDIS_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile looks for a .env in the usual run locations and the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crm-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 32
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.LeadsIndex == "" {
		cfg.Database.Elasticsearch.LeadsIndex = "leads"
	}
	if cfg.Services.Calendar.Timeout == 0 {
		cfg.Services.Calendar.Timeout = 10000
	}
	if cfg.Services.Extractor.Timeout == 0 {
		cfg.Services.Extractor.Timeout = 10000
	}
	if cfg.Services.GenAI.Timeout == 0 {
		cfg.Services.GenAI.Timeout = 30000
	}
	if cfg.Services.GenAI.MaxTokens == 0 {
		cfg.Services.GenAI.MaxTokens = 1024
	}
	if cfg.Interpreter.PendingTTL == 0 {
		cfg.Interpreter.PendingTTL = 600
	}
	if cfg.Interpreter.MinConfidence == 0 {
		cfg.Interpreter.MinConfidence = 0.3
	}
	if cfg.Interpreter.EscalateThreshold == 0 {
		cfg.Interpreter.EscalateThreshold = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Services.Calendar.BaseURL == "" {
		return fmt.Errorf("services.calendar.base_url is required")
	}
	if cfg.Services.Extractor.BaseURL == "" {
		return fmt.Errorf("services.extractor.base_url is required")
	}
	if cfg.Services.GenAI.BaseURL == "" {
		return fmt.Errorf("services.genai.base_url is required")
	}
	if cfg.Interpreter.MinConfidence < 0 || cfg.Interpreter.MinConfidence > 1 {
		return fmt.Errorf("interpreter.min_confidence must be in [0,1]")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SNSTopicARN == "" && cfg.Notifications.SESTo == "" {
		return fmt.Errorf("notifications enabled but no SNS topic or SES recipient configured")
	}
	return nil
}
