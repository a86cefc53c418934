package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	StorageBackend string `yaml:"storage_backend"` // "file" or "sqlite"
	StoragePath    string `yaml:"storage_path"`

	AdminSecret   string `yaml:"admin_secret"`
	RetentionDays int    `yaml:"retention_days"`

	PruneSchedule   string `yaml:"prune_schedule"`  // 5-field cron, empty disables
	ReportSchedule  string `yaml:"report_schedule"` // 5-field cron, empty disables
	ReportOutputDir string `yaml:"report_output_dir"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	Timezone string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// .env first, then config.yaml, then env vars on top.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.StorageBackend, "STORAGE_BACKEND")
	envOverride(&cfg.StoragePath, "STORAGE_PATH")
	envOverride(&cfg.AdminSecret, "ADMIN_SECRET")
	envOverrideInt(&cfg.RetentionDays, "RETENTION_DAYS")
	envOverride(&cfg.PruneSchedule, "PRUNE_SCHEDULE")
	envOverride(&cfg.ReportSchedule, "REPORT_SCHEDULE")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "file"
	}
	if cfg.StoragePath == "" {
		switch cfg.StorageBackend {
		case "sqlite":
			cfg.StoragePath = "./analytics.db"
		default:
			cfg.StoragePath = "./analytics.json"
		}
	}
	if cfg.AdminSecret == "" {
		// The original shipped a hardcoded dashboard password; the gate
		// is a behavioral contract, not a security mechanism.
		cfg.AdminSecret = "bex2024"
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = "0 3 * * *"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate
	if cfg.StorageBackend != "file" && cfg.StorageBackend != "sqlite" {
		log.Fatalf("storage_backend must be 'file' or 'sqlite', got '%s'", cfg.StorageBackend)
	}
	if cfg.RetentionDays < 1 {
		log.Fatalf("invalid retention_days '%d': must be >= 1", cfg.RetentionDays)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if cfg.PruneSchedule != "" {
		if _, err := parser.Parse(cfg.PruneSchedule); err != nil {
			log.Fatalf("invalid prune_schedule '%s': %v", cfg.PruneSchedule, err)
		}
	}
	if cfg.ReportSchedule != "" {
		if _, err := parser.Parse(cfg.ReportSchedule); err != nil {
			log.Fatalf("invalid report_schedule '%s': %v", cfg.ReportSchedule, err)
		}
	}
	if cfg.SlackBotToken == "" && cfg.ReportChannelID != "" {
		log.Fatalf("report_channel_id is set but slack_bot_token is not")
	}

	if cfg.Timezone == "Local" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}
