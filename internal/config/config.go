// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	IMAPServer      string        `toml:"imap_server"`
	Username        string        `toml:"username"`
	Password        string        `toml:"password"`
	Mailbox         string        `toml:"mailbox"`
	SenderFilter    string        `toml:"sender_filter"`
	SessionSubject  string        `toml:"session_subject"`
	ProgressSubject string        `toml:"progress_subject"`
	DataDir         string        `toml:"data_dir"`
	DatabasePath    string        `toml:"database_path"`
	Bucket          string        `toml:"bucket"`
	Region          string        `toml:"region"`
	S3Endpoint      string        `toml:"s3_endpoint"`
	CredentialsFile string        `toml:"credentials_file"`
	LogLevel        string        `toml:"log_level"`
	LogFormat       string        `toml:"log_format"`
	ConfigFile      string        `toml:"-"`
	IMAPTimeout     time.Duration `toml:"imap_timeout"`
	SyncBackoff     time.Duration `toml:"sync_backoff"`
	IMAPPort        int           `toml:"imap_port"`
	FetchLimit      int           `toml:"fetch_limit"`
	BatchSize       int           `toml:"batch_size"`
	SyncRetries     int           `toml:"sync_retries"`
	TargetWeekly    float64       `toml:"target_weekly_minutes"`
	StretchWeekly   float64       `toml:"stretch_weekly_minutes"`
	IMAPUseTLS      bool          `toml:"imap_tls"`
	EnsureBucket    bool          `toml:"ensure_bucket"`
	Notifications   bool          `toml:"notifications"`
}

// Default values
const (
	defaultIMAPPort        = 993
	defaultMailbox         = "INBOX"
	defaultIMAPTimeout     = 30 * time.Second
	defaultFetchLimit      = 2000
	defaultBatchSize       = 50
	defaultSender          = "no-reply@tutor.synthesis.com"
	defaultSessionSubject  = "Synthesis Session:"
	defaultProgressSubject = "progress with Synthesis Tutor"
	defaultBucket          = "synthesis-tracker-data"
	defaultRegion          = "us-east-1"
	defaultSyncRetries     = 3
	defaultSyncBackoff     = 500 * time.Millisecond
	defaultTargetWeekly    = 60
	defaultStretchWeekly   = 80
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// ErrMailNotConfigured is returned by ValidateMail when mailbox credentials
// are missing.
var ErrMailNotConfigured = errors.New("IMAP_SERVER, USERNAME and PASSWORD are required")

// Load builds the configuration from defaults, an optional TOML file, .env
// files and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := defaults()

	if path := getConfigFilePath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.ConfigFile = path
		}
	}

	cfg.applyEnv()

	if cfg.CredentialsFile != "" {
		// Accepts "export AWS_ACCESS_KEY_ID=..." lines; existing env wins.
		if err := godotenv.Load(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("load credentials file %s: %w", cfg.CredentialsFile, err)
		}
	}

	home, _ := os.UserHomeDir()
	cfg.DataDir = expandHome(cfg.DataDir, home)
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "runs.db")
	}
	cfg.DatabasePath = expandHome(cfg.DatabasePath, home)

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.SyncRetries <= 0 {
		cfg.SyncRetries = 1
	}

	if err := ensureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateMail reports whether the mailbox settings needed for extraction
// are present.
func (c *Config) ValidateMail() error {
	var missing []string
	if c.IMAPServer == "" {
		missing = append(missing, "IMAP_SERVER")
	}
	if c.Username == "" {
		missing = append(missing, "USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrMailNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// IMAPAddress returns the host:port of the mail server.
func (c *Config) IMAPAddress() string {
	return fmt.Sprintf("%s:%d", c.IMAPServer, c.IMAPPort)
}

func defaults() *Config {
	return &Config{
		IMAPPort:        defaultIMAPPort,
		IMAPUseTLS:      true,
		Mailbox:         defaultMailbox,
		IMAPTimeout:     defaultIMAPTimeout,
		FetchLimit:      defaultFetchLimit,
		BatchSize:       defaultBatchSize,
		SenderFilter:    defaultSender,
		SessionSubject:  defaultSessionSubject,
		ProgressSubject: defaultProgressSubject,
		DataDir:         getDefaultDataDir(),
		Bucket:          defaultBucket,
		Region:          defaultRegion,
		SyncRetries:     defaultSyncRetries,
		SyncBackoff:     defaultSyncBackoff,
		TargetWeekly:    defaultTargetWeekly,
		StretchWeekly:   defaultStretchWeekly,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
	}
}

func (c *Config) applyEnv() {
	c.IMAPServer = getEnvString("IMAP_SERVER", c.IMAPServer)
	c.IMAPPort = getEnvInt("IMAP_PORT", c.IMAPPort)
	c.IMAPUseTLS = getEnvBool("IMAP_TLS", c.IMAPUseTLS)
	c.Username = getEnvString("USERNAME", c.Username)
	c.Password = getEnvString("PASSWORD", c.Password)
	c.Mailbox = getEnvString("IMAP_MAILBOX", c.Mailbox)
	c.IMAPTimeout = getEnvDuration("IMAP_TIMEOUT", c.IMAPTimeout)
	c.FetchLimit = getEnvInt("FETCH_LIMIT", c.FetchLimit)
	c.BatchSize = getEnvInt("FETCH_BATCH_SIZE", c.BatchSize)
	c.SenderFilter = getEnvString("SENDER_FILTER", c.SenderFilter)
	c.SessionSubject = getEnvString("SESSION_SUBJECT", c.SessionSubject)
	c.ProgressSubject = getEnvString("PROGRESS_SUBJECT", c.ProgressSubject)
	c.DataDir = getEnvString("DATA_DIR", c.DataDir)
	c.DatabasePath = getEnvString("DATABASE_PATH", c.DatabasePath)
	c.Bucket = getEnvString("S3_BUCKET", c.Bucket)
	c.Region = getEnvString("AWS_REGION", c.Region)
	c.S3Endpoint = getEnvString("S3_ENDPOINT", c.S3Endpoint)
	c.EnsureBucket = getEnvBool("S3_ENSURE_BUCKET", c.EnsureBucket)
	c.CredentialsFile = getEnvString("AWS_CREDENTIALS_FILE", c.CredentialsFile)
	c.SyncRetries = getEnvInt("SYNC_RETRIES", c.SyncRetries)
	c.SyncBackoff = getEnvDuration("SYNC_BACKOFF", c.SyncBackoff)
	c.TargetWeekly = getEnvFloat("TARGET_WEEKLY_MINUTES", c.TargetWeekly)
	c.StretchWeekly = getEnvFloat("STRETCH_WEEKLY_MINUTES", c.StretchWeekly)
	c.Notifications = getEnvBool("NOTIFICATIONS", c.Notifications)
	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvString("LOG_FORMAT", c.LogFormat)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "synthesis-tracker", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getConfigFilePath returns the TOML config location, honouring
// SYNTHESIS_CONFIG.
func getConfigFilePath() string {
	if path := os.Getenv("SYNTHESIS_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "synthesis-tracker", "config.toml")
}

// getDefaultDataDir returns the directory holding the JSON outputs and the
// run database.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "synthesis-tracker")
}

func expandHome(path, home string) string {
	if home != "" && len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
