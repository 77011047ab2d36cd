// Package config reads service settings from the environment (and an optional
// .env file) through viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"eip-explainer/internal/integrations/eipsource"
	"eip-explainer/internal/integrations/openai"
)

const (
	KeyPublicHost       = "public_host"
	KeyPort             = "port"
	KeyLogLevel         = "log_level"
	KeyOpenAIAPIKey     = "openai_api_key"
	KeyOpenAIModel      = "openai_model"
	KeyOpenAIBaseURL    = "openai_base_url"
	KeyParamPrefix      = "param_prefix"
	KeyPrimaryURL       = "eip_primary_url"
	KeyFallbackURL      = "eip_fallback_url"
	KeyHTTPTimeout      = "http_timeout"
	KeyAuditTable       = "audit_table"
	KeyImageConcurrency = "image_concurrency"
)

type Config struct {
	PublicHost       string
	Port             int
	LogLevel         slog.Level
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	ParamPrefix      string
	PrimaryURL       string
	FallbackURL      string
	HTTPTimeout      time.Duration
	AuditTable       string
	ImageConcurrency int64
}

// LoadDotEnv loads .env from the working directory when present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config: no .env file loaded", "err", err)
	}
}

// Bind registers defaults and environment lookups on v.
func Bind(v *viper.Viper) {
	v.SetDefault(KeyPublicHost, "http://localhost:3000")
	v.SetDefault(KeyPort, 3000)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyOpenAIModel, openai.DefaultModel)
	v.SetDefault(KeyPrimaryURL, eipsource.DefaultPrimaryURL)
	v.SetDefault(KeyFallbackURL, eipsource.DefaultFallbackURL)
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyImageConcurrency, 4)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// NEXT_PUBLIC_HOST is what earlier deployments set.
	_ = v.BindEnv(KeyPublicHost, "PUBLIC_HOST", "NEXT_PUBLIC_HOST")
}

// Load reads a Config from v. Call Bind first.
func Load(v *viper.Viper) (Config, error) {
	level, err := ParseLogLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		PublicHost:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyPublicHost)), "/"),
		Port:             v.GetInt(KeyPort),
		LogLevel:         level,
		OpenAIAPIKey:     strings.TrimSpace(v.GetString(KeyOpenAIAPIKey)),
		OpenAIModel:      strings.TrimSpace(v.GetString(KeyOpenAIModel)),
		OpenAIBaseURL:    strings.TrimSpace(v.GetString(KeyOpenAIBaseURL)),
		ParamPrefix:      strings.TrimSpace(v.GetString(KeyParamPrefix)),
		PrimaryURL:       strings.TrimSpace(v.GetString(KeyPrimaryURL)),
		FallbackURL:      strings.TrimSpace(v.GetString(KeyFallbackURL)),
		HTTPTimeout:      v.GetDuration(KeyHTTPTimeout),
		AuditTable:       strings.TrimSpace(v.GetString(KeyAuditTable)),
		ImageConcurrency: v.GetInt64(KeyImageConcurrency),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.PublicHost == "" {
		return errors.New("config: PUBLIC_HOST must not be empty")
	}
	if c.OpenAIAPIKey == "" && c.ParamPrefix == "" {
		return errors.New("config: one of OPENAI_API_KEY or PARAM_PREFIX is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.ImageConcurrency <= 0 {
		return fmt.Errorf("config: IMAGE_CONCURRENCY must be positive, got %d", c.ImageConcurrency)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	}
	return nil
}

// NeedsAWS reports whether any AWS client has to be built.
func (c Config) NeedsAWS() bool {
	return c.ParamPrefix != "" || c.AuditTable != ""
}

// HasOpenAI reports whether a key source is configured, without revealing it.
func (c Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != "" || c.ParamPrefix != ""
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
