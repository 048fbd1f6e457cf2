package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Sheet contains configuration for the destination spreadsheet.
type Sheet struct {
	SpreadsheetID string `toml:"spreadsheet_id"`
	Worksheet     string `toml:"worksheet"`
	EntryColumn   string `toml:"entry_column"`
	HeaderRows    int    `toml:"header_rows"`
	// AnswerColumns maps an answer slot ("q1") to the sheet column that
	// receives its transcription ("D"). Immutable for the whole run.
	AnswerColumns map[string]string `toml:"answer_columns"`
	// AudioColumns optionally maps a slot to the column whose cells link
	// the recording as a HYPERLINK formula. Links found there are a
	// fallback source for recordings missing from the folder listing.
	AudioColumns map[string]string `toml:"audio_columns"`
}

// Source contains configuration for the audio folder.
type Source struct {
	FolderID string `toml:"folder_id"`
}

// Google contains OAuth credentials for the Drive and Sheets APIs.
type Google struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// Transcription contains speech-to-text settings.
type Transcription struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
	// RetryCount is the number of retries after the first attempt for
	// transient failures.
	RetryCount     int `toml:"retry_count"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Email contains SMTP settings for the run summary.
type Email struct {
	Enabled    bool     `toml:"enabled"`
	SMTPHost   string   `toml:"smtp_host"`
	SMTPPort   int      `toml:"smtp_port"`
	Sender     string   `toml:"sender"`
	Password   string   `toml:"password"`
	Recipients []string `toml:"recipients"`
}

// Schedule contains the daemon-mode cron expression.
type Schedule struct {
	Cron string `toml:"cron"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quill.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sheet         Sheet         `toml:"sheet"`
	Source        Source        `toml:"source"`
	Google        Google        `toml:"google"`
	Transcription Transcription `toml:"transcription"`
	Email         Email         `toml:"email"`
	Schedule      Schedule      `toml:"schedule"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories quill writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunDBPath returns the run-history database location.
func (c *Config) RunDBPath() string {
	return filepath.Join(c.Paths.DataDir, "runs.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "quill.lock")
}

// Slots returns the configured answer slots in deterministic order.
func (s Sheet) Slots() []string {
	slots := make([]string, 0, len(s.AnswerColumns))
	for slot := range s.AnswerColumns {
		slots = append(slots, slot)
	}
	sortSlots(slots)
	return slots
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
