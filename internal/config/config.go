package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	LogLevel    string

	// Contact relay settings. RelayURL is what the contact bridge POSTs to;
	// by default it points back at this server's own /contact-handler.
	ContactTo      string
	ContactFrom    string
	ContactLogPath string
	RelayURL       string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Simulated assistant typing delay bounds, in milliseconds.
	ChatDelayMinMs int
	ChatDelayMaxMs int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", "verbitsky_site.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ContactTo:      getEnv("CONTACT_TO", "tyler@verbitskysystems.com"),
		ContactFrom:    getEnv("CONTACT_FROM", "noreply@verbitskysystems.com"),
		ContactLogPath: getEnv("CONTACT_LOG_PATH", "logs/contact-submissions.log"),
		RelayURL:       getEnv("RELAY_URL", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		ChatDelayMinMs: getEnvAsInt("CHAT_DELAY_MIN_MS", 1000),
		ChatDelayMaxMs: getEnvAsInt("CHAT_DELAY_MAX_MS", 3000),
	}

	if AppConfig.RelayURL == "" {
		AppConfig.RelayURL = "http://localhost:" + AppConfig.HTTPPort + "/contact-handler"
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
