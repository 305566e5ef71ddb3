package config

import (
	"errors"
	"fmt"
	"strings"
)

// APIConfig holds runtime configuration for the gateway service.
type APIConfig struct {
	Environment    string
	Addr           string
	DatabaseURL    string
	MigrationsDir  string
	JWTSecret      string
	OpenAIAPIKey   string
	OpenAIOrgID    string
	OpenAIProject  string
	OpenAIBaseURL  string
	Model          string
	AllowedOrigins []string
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:    GetString("APP_ENV", "development"),
		Addr:           GetString("API_ADDR", ":3000"),
		DatabaseURL:    GetString("DATABASE_URL", ""),
		MigrationsDir:  GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:      GetString("JWT_SECRET", ""),
		OpenAIAPIKey:   GetString("OPENAI_API_KEY", ""),
		OpenAIOrgID:    GetString("OPENAI_ORG_ID", ""),
		OpenAIProject:  GetString("OPENAI_PROJECT_ID", ""),
		OpenAIBaseURL:  GetString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:          GetString("OPENAI_MODEL", "gpt-4o-mini"),
		AllowedOrigins: GetStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// Validate checks that every secret the process cannot run without is set.
// A missing secret must abort startup rather than let the gateway issue
// unsigned tokens or call upstream anonymously.
func (c APIConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: required environment variables unset: %s", strings.Join(missing, ", "))
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("config: CORS allow-list is empty")
	}
	return nil
}
