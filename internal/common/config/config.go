// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Evaluator EvaluatorConfig `mapstructure:"evaluator"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MetricsAddress string        `mapstructure:"metrics_address"`
}

// AuthConfig holds the accepted caller secrets. Secrets may be supplied as a
// single comma-separated string (VALID_SECRET style) or a YAML list.
type AuthConfig struct {
	Secrets []string `mapstructure:"secrets"`
	Secret  string   `mapstructure:"secret"`
}

// AcceptedSecrets merges both forms, trimming empties.
func (a AuthConfig) AcceptedSecrets() []string {
	out := make([]string, 0, len(a.Secrets)+1)
	for _, s := range a.Secrets {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	for _, s := range strings.Split(a.Secret, ",") {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type GitHubConfig struct {
	Token         string        `mapstructure:"token"`
	Owner         string        `mapstructure:"owner"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	DefaultBranch string        `mapstructure:"default_branch"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// GeneratorConfig configures the optional content-generation collaborator.
// Provider is one of "openai", "gemini" or "" (disabled, deterministic
// templates only).
type GeneratorConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (g GeneratorConfig) Enabled() bool {
	return g.Provider != ""
}

type NotifyConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type EvaluatorConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	ReadmeMinLength int           `mapstructure:"readme_min_length"`
	ResultsFile     string        `mapstructure:"results_file"`
}

// StoreConfig selects the submission store backend: memory, redis or postgres.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
