package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	CompletionsAPIURL string
	CompletionsAPIKey string
	CompletionsModel  string
	GmailAPIURL       string
	UserEmail         string
	OutreachLabel     string
	DBPath            string
	AppDataPath       string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		CompletionsAPIURL: getEnv("COMPLETIONS_API_URL", "https://api.openai.com/v1", printEnv),
		CompletionsAPIKey: getEnv("COMPLETIONS_API_KEY", "", printEnv),
		CompletionsModel:  getEnv("COMPLETIONS_MODEL", "gpt-4.1-mini", printEnv),
		GmailAPIURL:       getEnv("GMAIL_API_URL", "https://gmail.googleapis.com", printEnv),
		UserEmail:         getEnv("USER_EMAIL", "", printEnv),
		OutreachLabel:     getEnv("OUTREACH_LABEL", "SalesLoop", printEnv),
		AppDataPath:       getEnv("APP_DATA_PATH", "./output", printEnv),
	}

	conf.DBPath = getEnv("DB_PATH", filepath.Join(conf.AppDataPath, "sqlite", "store.db"), printEnv)

	return conf, nil
}
