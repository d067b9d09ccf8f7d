package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Sections are separated by
// a double underscore, e.g. GUESCUS_GITHUB__GUEST_TOKEN.
const EnvPrefix = "GUESCUS_"

// Summary providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config represents normalized runtime configuration for the service and CLI.
type Config struct {
	Addr         string
	PublicOrigin string
	Log          LogConfig
	GitHub       GitHubConfig
	Composer     ComposerConfig
	GuestRate    GuestRateConfig
	Session      SessionConfig
	Summary      SummaryConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type GitHubConfig struct {
	// GuestToken is the shared service credential guests post under.
	GuestToken string
	// GuestLogin is the account behind GuestToken. Only its comments may
	// carry a guest marker. The web service looks it up when unset.
	GuestLogin  string
	GraphQLURL  string
	RESTBaseURL string
	MaxRetries  int
}

type ComposerConfig struct {
	Cooldown    time.Duration
	NicknameMax int
}

// GuestRateConfig bounds guest submissions per client address on the server.
type GuestRateConfig struct {
	PerMinute int
	Burst     int
}

type SessionConfig struct {
	TTL time.Duration
}

type SummaryConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// Loader loads configuration from defaults, an optional TOML file and the environment.
type Loader interface {
	Load(path string) (Config, error)
}

// NewLoader constructs the default configuration loader.
func NewLoader() Loader {
	return &koanfLoader{}
}

type koanfLoader struct{}

func defaults() map[string]any {
	return map[string]any{
		"addr":                  ":8080",
		"log.level":             "info",
		"log.format":            "json",
		"github.max_retries":    3,
		"composer.cooldown":     "60s",
		"composer.nickname_max": 50,
		"guest_rate.per_minute": 6,
		"guest_rate.burst":      3,
		"session.ttl":           "12h",
	}
}

func (l *koanfLoader) Load(path string) (Config, error) {
	_ = l

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, WrapError("load defaults", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, WrapError("load file "+path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, WrapError("load environment", err)
	}

	cfg := Config{
		Addr:         k.String("addr"),
		PublicOrigin: strings.TrimRight(k.String("public_origin"), "/"),
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		GitHub: GitHubConfig{
			GuestToken:  k.String("github.guest_token"),
			GuestLogin:  k.String("github.guest_login"),
			GraphQLURL:  k.String("github.graphql_url"),
			RESTBaseURL: k.String("github.rest_base_url"),
			MaxRetries:  k.Int("github.max_retries"),
		},
		GuestRate: GuestRateConfig{
			PerMinute: k.Int("guest_rate.per_minute"),
			Burst:     k.Int("guest_rate.burst"),
		},
		Composer: ComposerConfig{
			NicknameMax: k.Int("composer.nickname_max"),
		},
		Summary: SummaryConfig{
			Provider: strings.ToLower(k.String("summary.provider")),
			APIKey:   k.String("summary.api_key"),
			BaseURL:  k.String("summary.base_url"),
			Model:    k.String("summary.model"),
		},
	}

	var err error
	if cfg.Composer.Cooldown, err = parseDuration(k, "composer.cooldown"); err != nil {
		return Config{}, WrapError("validate", err)
	}
	if cfg.Session.TTL, err = parseDuration(k, "session.ttl"); err != nil {
		return Config{}, WrapError("validate", err)
	}

	applyFallbacks(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, WrapError("validate", err)
	}
	return cfg, nil
}

// envKey maps GUESCUS_GITHUB__GUEST_TOKEN to github.guest_token.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func parseDuration(k *koanf.Koanf, key string) (time.Duration, error) {
	raw := strings.TrimSpace(k.String(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, NewValidationError(key, fmt.Sprintf("must be a duration such as 60s: %v", err))
	}
	return d, nil
}

// applyFallbacks honours the conventional unprefixed variables when the
// prefixed ones are not set.
func applyFallbacks(cfg *Config) {
	if cfg.GitHub.GuestToken == "" {
		cfg.GitHub.GuestToken = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.Summary.APIKey != "" {
		return
	}
	switch cfg.Summary.Provider {
	case ProviderOpenAI:
		cfg.Summary.APIKey = os.Getenv("OPENAI_API_KEY")
	case ProviderGemini:
		cfg.Summary.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks option values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return NewValidationError("log.format", "must be json or console")
	}
	if c.GitHub.MaxRetries < 0 {
		return NewValidationError("github.max_retries", "must not be negative")
	}
	if c.Composer.Cooldown < 0 {
		return NewValidationError("composer.cooldown", "must not be negative")
	}
	if c.Composer.NicknameMax <= 0 {
		return NewValidationError("composer.nickname_max", "must be positive")
	}
	if c.GuestRate.PerMinute < 0 || c.GuestRate.Burst < 0 {
		return NewValidationError("guest_rate", "must not be negative")
	}
	if c.Session.TTL <= 0 {
		return NewValidationError("session.ttl", "must be positive")
	}
	switch c.Summary.Provider {
	case "":
	case ProviderOpenAI, ProviderGemini:
		if c.Summary.APIKey == "" {
			return NewValidationError("summary.api_key", "required when summary.provider is set")
		}
	default:
		return NewValidationError("summary.provider", "must be openai, gemini or empty")
	}
	return nil
}
