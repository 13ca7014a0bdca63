package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment
// variables, optionally overlaid by a YAML file named in SVK_CONFIG.
type Config struct {
	BaseURL   string `yaml:"base_url"`
	AreaLabel string `yaml:"area_label"`
	AreaCode  string `yaml:"area_code"`

	DefaultDays    int  `yaml:"default_days"`
	AutoAdjustDays bool `yaml:"auto_adjust_days"`
	MaxDays        int  `yaml:"max_days"`

	Headless       bool   `yaml:"headless"`
	ChromeBin      string `yaml:"chrome_bin"`
	PageTimeoutSec int    `yaml:"page_timeout_sec"`
	SettleMs       int    `yaml:"settle_ms"`
	RateLimitMs    int    `yaml:"rate_limit_ms"`
	MaxRetries     int    `yaml:"max_retries"`

	ScreenshotOnError bool   `yaml:"screenshot_on_error"`
	ScreenshotFile    string `yaml:"screenshot_file"`

	DataDir        string `yaml:"data_dir"`
	MasterFile     string `yaml:"master_file"`
	ExcelFile      string `yaml:"excel_file"`
	ParquetFile    string `yaml:"parquet_file"`
	ParquetEnabled bool   `yaml:"parquet_enabled"`
	SummaryFile    string `yaml:"summary_file"`

	PostgresEnabled  bool   `yaml:"postgres_enabled"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	MetricsTextfile string `yaml:"metrics_textfile"`
	Schedule        string `yaml:"schedule"`
}

// Load reads the .env file, applies the optional YAML overlay and returns a
// validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		BaseURL:   getEnv("SVK_BASE_URL", "https://www.svk.se/om-kraftsystemet/kontrollrummet/"),
		AreaLabel: getEnv("SVK_AREA_LABEL", "Elområde Stockholm (SE3)"),
		AreaCode:  getEnv("SVK_AREA_CODE", "SE3"),

		DefaultDays:    getEnvInt("DAYS_TO_SCRAPE", 3),
		AutoAdjustDays: getEnvBool("AUTO_ADJUST_DAYS", true),
		MaxDays:        getEnvInt("MAX_DAYS", 30),

		Headless:       getEnvBool("HEADLESS", true),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		PageTimeoutSec: getEnvInt("PAGE_TIMEOUT_SEC", 30),
		SettleMs:       getEnvInt("SETTLE_MS", 2000),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		ScreenshotOnError: getEnvBool("SCREENSHOT_ON_ERROR", true),
		ScreenshotFile:    getEnv("SCREENSHOT_FILE", "error_screenshot.png"),

		DataDir:        getEnv("DATA_DIR", "data"),
		MasterFile:     getEnv("MASTER_FILE", "svk_power_data_master.csv"),
		ExcelFile:      getEnv("EXCEL_FILE", "svk_power_data_master.xlsx"),
		ParquetFile:    getEnv("PARQUET_FILE", "svk_power_data_master.parquet"),
		ParquetEnabled: getEnvBool("PARQUET_ENABLED", false),
		SummaryFile:    getEnv("SUMMARY_FILE", "data_summary.txt"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "svk_power"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		Schedule:        getEnv("SCHEDULE", ""),
	}

	if path := os.Getenv("SVK_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var problems []string
	if c.BaseURL == "" {
		problems = append(problems, "base url is required")
	}
	if c.AreaLabel == "" {
		problems = append(problems, "area label is required")
	}
	if c.DefaultDays < 1 {
		problems = append(problems, "default days must be at least 1")
	}
	if c.MaxDays < c.DefaultDays {
		problems = append(problems, "max days must not be below default days")
	}
	if c.DataDir == "" {
		problems = append(problems, "data dir is required")
	}
	if c.MasterFile == "" || c.ExcelFile == "" || c.SummaryFile == "" {
		problems = append(problems, "master, excel and summary file names are required")
	}
	if c.PageTimeoutSec < 1 {
		problems = append(problems, "page timeout must be positive")
	}
	if len(problems) > 0 {
		return errors.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// RawDir is where per-run raw snapshots are written.
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// ProcessedDir holds the master table, its mirrors and the summary.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.DataDir, "processed")
}

func (c *Config) MasterPath() string  { return filepath.Join(c.ProcessedDir(), c.MasterFile) }
func (c *Config) ExcelPath() string   { return filepath.Join(c.ProcessedDir(), c.ExcelFile) }
func (c *Config) ParquetPath() string { return filepath.Join(c.ProcessedDir(), c.ParquetFile) }
func (c *Config) SummaryPath() string { return filepath.Join(c.ProcessedDir(), c.SummaryFile) }

// ScreenshotPath is where the browser's last failure screenshot is kept.
func (c *Config) ScreenshotPath() string {
	name := c.ScreenshotFile
	if name == "" {
		name = "error_screenshot.png"
	}
	return filepath.Join(c.DataDir, name)
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
