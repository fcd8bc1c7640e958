// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GITHUB_TOKEN, AUTH_SECRET.
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

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory and project root, so
// binaries and tests behave the same regardless of where they run from.
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
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "appforge"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// The notifier's full backoff budget (1+2+4+8+16s) plus publish time
		// must fit inside the write timeout.
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = "https://api.github.com"
	}
	if cfg.GitHub.DefaultBranch == "" {
		cfg.GitHub.DefaultBranch = "main"
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = 15 * time.Second
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 30 * time.Second
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 1200
	}
	if cfg.Notify.MaxAttempts == 0 {
		cfg.Notify.MaxAttempts = 6
	}
	if cfg.Notify.InitialBackoff == 0 {
		cfg.Notify.InitialBackoff = 1 * time.Second
	}
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 15 * time.Second
	}
	if cfg.Evaluator.Timeout == 0 {
		cfg.Evaluator.Timeout = 15 * time.Second
	}
	if cfg.Evaluator.ReadmeMinLength == 0 {
		cfg.Evaluator.ReadmeMinLength = 20
	}
	if cfg.Evaluator.ResultsFile == "" {
		cfg.Evaluator.ResultsFile = "evaluation_results.json"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.Redis.Address == "" {
		cfg.Store.Redis.Address = "localhost:6379"
	}
	if cfg.Store.Postgres.SSLMode == "" {
		cfg.Store.Postgres.SSLMode = "disable"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// overrideFromEnv applies the flat environment variables the deployment
// platform supplies when no config file is mounted.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" && cfg.GitHub.Token == "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_OWNER"); v != "" && cfg.GitHub.Owner == "" {
		cfg.GitHub.Owner = v
	}
	if v := os.Getenv("VALID_SECRET"); v != "" && cfg.Auth.Secret == "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("GENERATOR_API_KEY"); v != "" && cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = v
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	switch cfg.Generator.Provider {
	case "", "openai", "gemini":
	default:
		return fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
	if cfg.Notify.MaxAttempts <= 0 {
		return fmt.Errorf("notify.max_attempts must be positive")
	}
	if cfg.Notify.InitialBackoff <= 0 {
		return fmt.Errorf("notify.initial_backoff must be positive")
	}
	return nil
}
