package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Scenarios     ScenariosConfig
	AI            AIConfig
	Vanna         VannaConfig
	Search        SearchConfig
	History       HistoryConfig
	Export        ExportConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig is one scenario's MySQL connection profile.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Charset      string
	MaxOpenConns int
	QueryTimeout time.Duration
}

type ScenariosConfig struct {
	SchemaDir  string
	Scenario13 DatabaseConfig
	Scenario45 DatabaseConfig
}

type AIConfig struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type VannaConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type SearchConfig struct {
	Enabled    bool
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

type HistoryConfig struct {
	Enabled bool
	Path    string
}

type ExportConfig struct {
	OutputDir string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("ASKDB_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid ASKDB_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "ASKDB_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_SCHEMA_DIR", &cfg.Scenarios.SchemaDir); err != nil {
		return Config{}, err
	}
	if err := applyDatabase(lookup, "ASKDB_DB_SCENARIO_1_3", &cfg.Scenarios.Scenario13); err != nil {
		return Config{}, err
	}
	if err := applyDatabase(lookup, "ASKDB_DB_SCENARIO_4_5", &cfg.Scenarios.Scenario45); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_AI_ENABLED", &cfg.AI.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_BASE_URL", &cfg.AI.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AI_MODEL", &cfg.AI.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "ASKDB_AI_TEMPERATURE", &cfg.AI.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_AI_MAX_TOKENS", &cfg.AI.MaxTokens); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_AI_TIMEOUT", &cfg.AI.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_VANNA_ENABLED", &cfg.Vanna.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_VANNA_BASE_URL", &cfg.Vanna.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_VANNA_TIMEOUT", &cfg.Vanna.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_SEARCH_ENABLED", &cfg.Search.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_SEARCH_BASE_URL", &cfg.Search.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "ASKDB_SEARCH_MAX_RESULTS", &cfg.Search.MaxResults); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "ASKDB_SEARCH_TIMEOUT", &cfg.Search.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_HISTORY_ENABLED", &cfg.History.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_HISTORY_PATH", &cfg.History.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_EXPORT_OUTPUT_DIR", &cfg.Export.OutputDir); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "ASKDB_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "ASKDB_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ASKDB_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		return Config{}, fmt.Errorf("ASKDB_AI_API_KEY is required when LLM generation is enabled")
	}
	if cfg.Vanna.Enabled && cfg.Vanna.BaseURL == "" {
		return Config{}, fmt.Errorf("ASKDB_VANNA_BASE_URL is required when the vanna backend is enabled")
	}
	return cfg, nil
}

func applyDatabase(lookup LookupFunc, prefix string, dst *DatabaseConfig) error {
	if err := applyString(lookup, prefix+"_HOST", &dst.Host); err != nil {
		return err
	}
	if err := applyInt(lookup, prefix+"_PORT", &dst.Port); err != nil {
		return err
	}
	if err := applyString(lookup, prefix+"_USER", &dst.User); err != nil {
		return err
	}
	if err := applyString(lookup, prefix+"_PASSWORD", &dst.Password); err != nil {
		return err
	}
	if err := applyString(lookup, prefix+"_NAME", &dst.Database); err != nil {
		return err
	}
	if err := applyString(lookup, prefix+"_CHARSET", &dst.Charset); err != nil {
		return err
	}
	if err := applyInt(lookup, prefix+"_MAX_OPEN_CONNS", &dst.MaxOpenConns); err != nil {
		return err
	}
	return applyDuration(lookup, prefix+"_QUERY_TIMEOUT", &dst.QueryTimeout)
}

func defaultsForProfile(profile Profile) Config {
	database := DatabaseConfig{
		Host:         "localhost",
		Port:         3306,
		User:         "root",
		Charset:      "utf8mb4",
		MaxOpenConns: 10,
		QueryTimeout: 30 * time.Second,
	}

	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "askdb-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Scenarios: ScenariosConfig{
			SchemaDir:  "schema",
			Scenario13: database,
			Scenario45: database,
		},
		AI: AIConfig{
			Enabled:     false,
			BaseURL:     "https://api.openai.com",
			Model:       "qwen-plus",
			Temperature: 0.1,
			MaxTokens:   1000,
			Timeout:     30 * time.Second,
		},
		Vanna: VannaConfig{
			Enabled: false,
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			Enabled:    false,
			BaseURL:    "https://api.duckduckgo.com",
			MaxResults: 5,
			Timeout:    10 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "askdb_history.db",
		},
		Export: ExportConfig{
			OutputDir: "output",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.History.Path = ":memory:"
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
