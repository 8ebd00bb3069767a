package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the service settings. Values come from defaults, then an
// optional config file named by DASHBOARD_CONFIG, then the environment.
type Config struct {
	Port         string         `mapstructure:"port"`
	Database     DatabaseConfig `mapstructure:"database"`
	Log          LogConfig      `mapstructure:"log"`
	CORS         CORSConfig     `mapstructure:"cors"`
	SeedDemoData bool           `mapstructure:"seed_demo_data"`
	// AnomalyAlertThreshold is the flag rate, in percent, above which the
	// metrics report marks a scope as elevated.
	AnomalyAlertThreshold float64 `mapstructure:"anomaly_alert_threshold"`
}

// DatabaseConfig selects the row source.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	FrontendURL      string `mapstructure:"frontend_url"`
	FrontendURLHTTPS string `mapstructure:"frontend_url_https"`
	APIURL           string `mapstructure:"api_url"`
	APIURLHTTPS      string `mapstructure:"api_url_https"`
	FrontendPort     string `mapstructure:"frontend_port"`
}

// AllowedOrigins returns the configured origins, falling back to the
// frontend dev server on localhost.
func (c CORSConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range []string{c.FrontendURL, c.FrontendURLHTTPS, c.APIURL, c.APIURLHTTPS} {
		if o != "" {
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	if len(origins) == 0 {
		port := c.FrontendPort
		if port == "" {
			port = "3000"
		}
		origins = []string{"http://localhost:" + port, "https://localhost:" + port}
	}
	return origins
}

// envBindings maps config keys to environment variables, first match wins.
var envBindings = map[string][]string{
	"port":                     {"PORT"},
	"database.driver":          {"DB_DRIVER"},
	"database.dsn":             {"DATABASE_DSN", "ConnectionStrings__DefaultConnection"},
	"database.max_open_conns":  {"DB_MAX_OPEN"},
	"database.max_idle_conns":  {"DB_MAX_IDLE"},
	"database.connect_timeout": {"DB_CONNECT_TIMEOUT"},
	"log.level":                {"LOG_LEVEL"},
	"log.format":               {"LOG_FORMAT"},
	"log.file":                 {"LOG_FILE"},
	"log.max_size_mb":          {"LOG_MAX_SIZE_MB"},
	"log.max_backups":          {"LOG_MAX_BACKUPS"},
	"log.max_age_days":         {"LOG_MAX_AGE_DAYS"},
	"cors.frontend_url":        {"FRONTEND_URL"},
	"cors.frontend_url_https":  {"FRONTEND_URL_HTTPS"},
	"cors.api_url":             {"API_URL"},
	"cors.api_url_https":       {"API_URL_HTTPS"},
	"cors.frontend_port":       {"FRONTEND_PORT"},
	"seed_demo_data":           {"SEED_DEMO_DATA"},
	"anomaly_alert_threshold":  {"ANOMALY_ALERT_THRESHOLD"},
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none)
// into the environment without overriding variables already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load builds the configuration.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "sqlite://:memory:")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.connect_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("cors.frontend_url", "")
	v.SetDefault("cors.frontend_url_https", "")
	v.SetDefault("cors.api_url", "")
	v.SetDefault("cors.api_url_https", "")
	v.SetDefault("cors.frontend_port", "3000")
	v.SetDefault("seed_demo_data", false)
	v.SetDefault("anomaly_alert_threshold", 20.0)
}
