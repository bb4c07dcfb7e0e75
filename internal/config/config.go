package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "paramsync.yaml"

type Config struct {
	DatabaseURL     string   `yaml:"database_url"`
	Database        string   `yaml:"database"`
	Desired         string   `yaml:"desired"`
	MigrationsDir   string   `yaml:"migrations_dir"`
	PostgresVersion string   `yaml:"postgres_version"`
	Exclude         []string `yaml:"exclude"`
	LogLevel        string   `yaml:"log_level"`
}

type Flags struct {
	URL             string
	Database        string
	Desired         string
	MigrationsDir   string
	PostgresVersion string
	Exclude         []string
	LogLevel        string
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.DatabaseURL = expandEnv(cfg.DatabaseURL)
	cfg.Database = expandEnv(cfg.Database)
	cfg.Desired = expandEnv(cfg.Desired)
	cfg.MigrationsDir = expandEnv(cfg.MigrationsDir)
	cfg.PostgresVersion = expandEnv(cfg.PostgresVersion)
	cfg.LogLevel = expandEnv(cfg.LogLevel)
	for i, pattern := range cfg.Exclude {
		cfg.Exclude[i] = expandEnv(pattern)
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL(flags *Flags) (string, error) {
	if flags != nil && flags.URL != "" {
		return flags.URL, nil
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	return "", fmt.Errorf("database_url is required (set in config or pass --url flag)")
}

// GetDatabase returns the name of the database parameters are synchronized
// for. Without an explicit name it falls back to the database in the
// connection URL, then to "postgres".
func (c *Config) GetDatabase(flags *Flags) string {
	if flags != nil && flags.Database != "" {
		return flags.Database
	}
	if c.Database != "" {
		return c.Database
	}
	if url, err := c.GetDatabaseURL(flags); err == nil {
		if connCfg, err := pgx.ParseConfig(url); err == nil && connCfg.Database != "" {
			return connCfg.Database
		}
	}
	return "postgres"
}

func (c *Config) GetDesired(flags *Flags) string {
	if flags != nil && flags.Desired != "" {
		return flags.Desired
	}
	if c.Desired != "" {
		return c.Desired
	}
	return "parameters.yaml"
}

func (c *Config) GetMigrationsDir(flags *Flags) string {
	if flags != nil && flags.MigrationsDir != "" {
		return flags.MigrationsDir
	}
	if c.MigrationsDir != "" {
		return c.MigrationsDir
	}
	return "migrations"
}

func (c *Config) GetPostgresVersion(flags *Flags) string {
	if flags != nil && flags.PostgresVersion != "" {
		return flags.PostgresVersion
	}
	if c.PostgresVersion != "" {
		return c.PostgresVersion
	}
	return "16"
}

// GetExclude combines the patterns from the config file and the flags.
func (c *Config) GetExclude(flags *Flags) []string {
	patterns := append([]string(nil), c.Exclude...)
	if flags != nil {
		patterns = append(patterns, flags.Exclude...)
	}
	return patterns
}

func (c *Config) GetLogLevel(flags *Flags) string {
	if flags != nil && flags.LogLevel != "" {
		return flags.LogLevel
	}
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return os.ExpandEnv(s)
}
