package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME and the working directory at a fresh temp dir so Load
// never picks up a developer's real configuration.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("SYNTHESIS_CONFIG", "")
	t.Chdir(tmpDir)
	for _, key := range []string{"IMAP_SERVER", "USERNAME", "PASSWORD", "FETCH_LIMIT", "FETCH_BATCH_SIZE", "SYNC_RETRIES", "DATA_DIR", "DATABASE_PATH", "AWS_CREDENTIALS_FILE"} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	os.Setenv(key, val)
	defer os.Unsetenv(key)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	t.Setenv("TEST_ENV_BAD_INT", "forty")
	t.Setenv("TEST_ENV_FLOAT", "62.5")
	t.Setenv("TEST_ENV_BOOL", "false")

	if got := getEnvInt("TEST_ENV_INT", 1); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}
	if got := getEnvInt("TEST_ENV_BAD_INT", 1); got != 1 {
		t.Errorf("getEnvInt() = %d, want default 1", got)
	}
	if got := getEnvFloat("TEST_ENV_FLOAT", 0); got != 62.5 {
		t.Errorf("getEnvFloat() = %v, want 62.5", got)
	}
	if got := getEnvBool("TEST_ENV_BOOL", true); got {
		t.Error("getEnvBool() = true, want false")
	}
	if got := getEnvBool("TEST_ENV_MISSING_BOOL", true); !got {
		t.Error("getEnvBool() should return default when unset")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestExpandHome(t *testing.T) {
	if got := expandHome("~/data", "/home/z"); got != filepath.Join("/home/z", "data") {
		t.Errorf("expandHome() = %q", got)
	}
	if got := expandHome("/abs/path", "/home/z"); got != "/abs/path" {
		t.Errorf("expandHome() should leave absolute paths alone, got %q", got)
	}
	if got := expandHome("~", "/home/z"); got != "~" {
		t.Errorf("expandHome() should leave a bare ~ alone, got %q", got)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	// Basic check that it contains current directory
	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.IMAPPort != defaultIMAPPort || !cfg.IMAPUseTLS {
		t.Errorf("unexpected IMAP defaults: port=%d tls=%v", cfg.IMAPPort, cfg.IMAPUseTLS)
	}
	if cfg.SenderFilter != defaultSender {
		t.Errorf("SenderFilter = %q, want %q", cfg.SenderFilter, defaultSender)
	}
	if cfg.FetchLimit != defaultFetchLimit || cfg.BatchSize != defaultBatchSize {
		t.Errorf("unexpected fetch defaults: limit=%d batch=%d", cfg.FetchLimit, cfg.BatchSize)
	}
	if cfg.SyncRetries != defaultSyncRetries || cfg.SyncBackoff != defaultSyncBackoff {
		t.Errorf("unexpected sync defaults: retries=%d backoff=%v", cfg.SyncRetries, cfg.SyncBackoff)
	}

	wantDir := filepath.Join(tmpDir, ".config", "synthesis-tracker")
	if cfg.DataDir != wantDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, wantDir)
	}
	if cfg.DatabasePath != filepath.Join(wantDir, "runs.db") {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if _, err := os.Stat(wantDir); err != nil {
		t.Errorf("data dir should be created: %v", err)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
	}

	if err := cfg.ValidateMail(); !errors.Is(err, ErrMailNotConfigured) {
		t.Errorf("ValidateMail() = %v, want ErrMailNotConfigured", err)
	}
}

func TestLoad_TOMLAndEnvPrecedence(t *testing.T) {
	tmpDir := isolate(t)

	cfgDir := filepath.Join(tmpDir, ".config", "synthesis-tracker")
	if err := os.MkdirAll(cfgDir, 0o750); err != nil {
		t.Fatal(err)
	}
	content := `
imap_server = "imap.toml.test"
imap_timeout = "45s"
fetch_limit = 100
data_dir = "~/synthesis"
target_weekly_minutes = 90.0
`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FETCH_LIMIT", "200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.IMAPServer != "imap.toml.test" {
		t.Errorf("IMAPServer = %q, want imap.toml.test", cfg.IMAPServer)
	}
	if cfg.IMAPTimeout != 45*time.Second {
		t.Errorf("IMAPTimeout = %v, want 45s", cfg.IMAPTimeout)
	}
	if cfg.FetchLimit != 200 {
		t.Errorf("FetchLimit = %d, env should win over file", cfg.FetchLimit)
	}
	if cfg.TargetWeekly != 90 {
		t.Errorf("TargetWeekly = %v, want 90", cfg.TargetWeekly)
	}
	if cfg.DataDir != filepath.Join(tmpDir, "synthesis") {
		t.Errorf("DataDir = %q, want expanded home path", cfg.DataDir)
	}
	if cfg.ConfigFile == "" {
		t.Error("ConfigFile should record the file that was read")
	}
	if got := cfg.IMAPAddress(); got != "imap.toml.test:993" {
		t.Errorf("IMAPAddress() = %q", got)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	tmpDir := isolate(t)

	path := filepath.Join(tmpDir, "broken.toml")
	if err := os.WriteFile(path, []byte("imap_port = \"not a number\""), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYNTHESIS_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on an invalid config file")
	}
}

func TestLoad_WithEnvFile(t *testing.T) {
	tmpDir := isolate(t)

	envPath := filepath.Join(tmpDir, ".env")
	content := "IMAP_SERVER=imap.env.test\nUSERNAME=zoey@example.com\nPASSWORD=secret"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// godotenv never overrides variables that already exist, even empty ones.
	for _, key := range []string{"IMAP_SERVER", "USERNAME", "PASSWORD"} {
		os.Unsetenv(key)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.IMAPServer != "imap.env.test" {
		t.Errorf("IMAPServer = %q, want imap.env.test", cfg.IMAPServer)
	}
	if err := cfg.ValidateMail(); err != nil {
		t.Errorf("ValidateMail() = %v, want nil", err)
	}
}

func TestLoad_CredentialsFile(t *testing.T) {
	tmpDir := isolate(t)

	path := filepath.Join(tmpDir, "aws-creds.sh")
	content := "export SYNTHESIS_TEST_ACCESS_KEY=AKIATEST\nexport SYNTHESIS_TEST_SECRET=shh\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AWS_CREDENTIALS_FILE", path)
	defer os.Unsetenv("SYNTHESIS_TEST_ACCESS_KEY")
	defer os.Unsetenv("SYNTHESIS_TEST_SECRET")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := os.Getenv("SYNTHESIS_TEST_ACCESS_KEY"); got != "AKIATEST" {
		t.Errorf("credentials file not applied, got %q", got)
	}

	t.Setenv("AWS_CREDENTIALS_FILE", filepath.Join(tmpDir, "missing.sh"))
	if _, err := Load(); err == nil {
		t.Error("Load() should fail when the credentials file is missing")
	}
}
