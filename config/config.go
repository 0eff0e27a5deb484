package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDataPaths are tried in order when DATA_PATHS is unset.
var DefaultDataPaths = []string{"apps_with_features.csv", "data/apps_with_features.csv"}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string

	DataPaths     []string
	DataDelimiter rune
	DataTable     string
	SQLitePath    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	SnapshotDir string
	ChromeBin   string

	LogLevel string

	Dashboard *Dashboard
}

// Load reads the .env file(s) and returns a populated Config. When
// DASHBOARD_CONFIG names a YAML file its values override DefaultDashboard.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		HTTPAddr: getEnv("HTTP_ADDR", "127.0.0.1:8501"),

		DataPaths:     getEnvList("DATA_PATHS", DefaultDataPaths),
		DataDelimiter: getEnvRune("DATA_DELIMITER", 0),
		DataTable:     getEnv("DATA_TABLE", "apps"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/apppulse.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "apppulse"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "apppulse"),
		PostgresDB:       getEnv("POSTGRES_DB", "apppulse"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		SnapshotDir: getEnv("SNAPSHOT_DIR", "./output/snapshots"),
		ChromeBin:   getEnv("CHROME_BIN", ""),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	dash := DefaultDashboard()
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		var err error
		if dash, err = LoadDashboard(path); err != nil {
			return nil, err
		}
	}
	cfg.Dashboard = dash

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Debug reports whether debug logging was requested.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnvRune reads a single-character value; "\t" and "tab" mean a tab.
func getEnvRune(key string, fallback rune) rune {
	val := os.Getenv(key)
	switch strings.ToLower(val) {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	}
	r := []rune(val)
	if len(r) != 1 {
		return fallback
	}
	return r[0]
}
