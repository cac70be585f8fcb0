package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	RapidAPIKey     string
	RapidAPIHost    string
	RapidAPIURL     string
	OpenAIKey       string
	OpenAIBaseURL   string
	SummaryModel    string
	ChatModel       string
	TranscribeModel string
	ScratchDir      string
	CORSAllowOrigin string
	WriteTimeout    time.Duration
}

// ConfigurationError reports missing or invalid settings.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid environment: "+strings.Join(e.Invalid, ", "))
	}
	return "configuration error: " + strings.Join(parts, "; ")
}

// Load reads .env (if present) then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	host := env("RAPIDAPI_HOST", "youtube-to-mp315.p.rapidapi.com")
	cfg := &Config{
		Port:            env("PORT", "3001"),
		RapidAPIKey:     env("RAPIDAPI_KEY", ""),
		RapidAPIHost:    host,
		RapidAPIURL:     env("RAPIDAPI_URL", "https://"+host+"/download"),
		OpenAIKey:       env("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SummaryModel:    env("SUMMARY_MODEL", "gpt-4o"),
		ChatModel:       env("CHAT_MODEL", "gpt-4"),
		TranscribeModel: env("TRANSCRIBE_MODEL", "whisper-1"),
		ScratchDir:      env("SCRATCH_DIR", os.TempDir()),
		CORSAllowOrigin: env("CORS_ALLOW_ORIGIN", "*"),
	}

	cerr := &ConfigurationError{}
	wt, err := time.ParseDuration(env("HTTP_WRITE_TIMEOUT", "15m"))
	if err != nil || wt <= 0 {
		cerr.Invalid = append(cerr.Invalid, "HTTP_WRITE_TIMEOUT")
	}
	cfg.WriteTimeout = wt

	if err := cfg.validate(cerr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(cerr *ConfigurationError) error {
	if c.RapidAPIKey == "" {
		cerr.Missing = append(cerr.Missing, "RAPIDAPI_KEY")
	}
	if c.OpenAIKey == "" {
		cerr.Missing = append(cerr.Missing, "OPENAI_API_KEY")
	}
	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
