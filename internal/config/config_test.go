package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QUILL_SPREADSHEET_ID", "sheet-123")
	t.Setenv("QUILL_FOLDER_ID", "folder-456")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")
}

func TestLoadDefaultsWithEnvCredentials(t *testing.T) {
	setRequiredEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "quill") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Sheet.SpreadsheetID != "sheet-123" {
		t.Fatalf("expected spreadsheet id from env, got %q", cfg.Sheet.SpreadsheetID)
	}
	if cfg.Sheet.Worksheet != "Sheet1" {
		t.Fatalf("unexpected worksheet: %q", cfg.Sheet.Worksheet)
	}
	if cfg.Transcription.Model != "whisper-1" {
		t.Fatalf("unexpected model: %q", cfg.Transcription.Model)
	}
	if cfg.Transcription.RetryCount != 2 {
		t.Fatalf("unexpected retry count: %d", cfg.Transcription.RetryCount)
	}
	if cfg.Email.Enabled {
		t.Fatal("expected email disabled by default")
	}
	if got := cfg.Sheet.Slots(); len(got) != 4 || got[0] != "q1" || got[3] != "q4" {
		t.Fatalf("unexpected slots: %v", got)
	}
	if cfg.RunDBPath() != filepath.Join(cfg.Paths.DataDir, "runs.db") {
		t.Fatalf("unexpected run db path: %q", cfg.RunDBPath())
	}
}

func TestLoadParsesFileAndNormalizesColumns(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[sheet]
spreadsheet_id = "from-file"
entry_column = "a"

[sheet.answer_columns]
q1 = "d"
q2 = "f"

[sheet.audio_columns]
Q1 = "c"

[email]
enabled = true
smtp_host = "smtp.example.com"
sender = "quill@example.com"
recipients = [" first@example.com ", "", "second@example.com"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Sheet.SpreadsheetID != "from-file" {
		t.Fatalf("file value should win over env, got %q", cfg.Sheet.SpreadsheetID)
	}
	if cfg.Sheet.EntryColumn != "A" {
		t.Fatalf("entry column not uppercased: %q", cfg.Sheet.EntryColumn)
	}
	if cfg.Sheet.AnswerColumns["q1"] != "D" || cfg.Sheet.AnswerColumns["q2"] != "F" {
		t.Fatalf("answer columns not normalized: %v", cfg.Sheet.AnswerColumns)
	}
	if cfg.Sheet.AudioColumns["q1"] != "C" {
		t.Fatalf("audio columns not normalized: %v", cfg.Sheet.AudioColumns)
	}
	if len(cfg.Email.Recipients) != 2 || cfg.Email.Recipients[0] != "first@example.com" {
		t.Fatalf("recipients not cleaned: %v", cfg.Email.Recipients)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	setRequiredEnv(t)

	cases := []struct {
		name     string
		mutate   func(*config.Config)
		fragment string
	}{
		{
			name:     "missing spreadsheet",
			mutate:   func(c *config.Config) { c.Sheet.SpreadsheetID = "" },
			fragment: "spreadsheet_id",
		},
		{
			name:     "missing folder",
			mutate:   func(c *config.Config) { c.Source.FolderID = "" },
			fragment: "folder_id",
		},
		{
			name:     "bad slot name",
			mutate:   func(c *config.Config) { c.Sheet.AnswerColumns = map[string]string{"answer1": "D"} },
			fragment: "q<N>",
		},
		{
			name:     "bad column letter",
			mutate:   func(c *config.Config) { c.Sheet.AnswerColumns = map[string]string{"q1": "4"} },
			fragment: "column letter",
		},
		{
			name: "duplicate destination column",
			mutate: func(c *config.Config) {
				c.Sheet.AnswerColumns = map[string]string{"q1": "D", "q2": "D"}
			},
			fragment: "both map",
		},
		{
			name:     "slot targets entry column",
			mutate:   func(c *config.Config) { c.Sheet.AnswerColumns = map[string]string{"q1": "A"} },
			fragment: "entry column",
		},
		{
			name: "audio column collides with answer column",
			mutate: func(c *config.Config) {
				c.Sheet.AudioColumns = map[string]string{"q1": c.Sheet.AnswerColumns["q2"]}
			},
			fragment: "audio_columns",
		},
		{
			name: "audio column for unknown slot",
			mutate: func(c *config.Config) {
				c.Sheet.AudioColumns = map[string]string{"q9": "C"}
			},
			fragment: "no matching answer column",
		},
		{
			name:     "negative retries",
			mutate:   func(c *config.Config) { c.Transcription.RetryCount = -1 },
			fragment: "retry_count",
		},
		{
			name:     "zero timeout",
			mutate:   func(c *config.Config) { c.Transcription.TimeoutSeconds = 0 },
			fragment: "timeout_seconds",
		},
		{
			name: "email enabled without recipients",
			mutate: func(c *config.Config) {
				c.Email.Enabled = true
				c.Email.SMTPHost = "smtp.example.com"
				c.Email.Sender = "quill@example.com"
				c.Email.Recipients = nil
			},
			fragment: "recipients",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q missing fragment %q", err, tc.fragment)
			}
		})
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config did not load: exists=%v err=%v", exists, err)
	}
}

func validConfig() config.Config {
	cfg := config.Default()
	cfg.Sheet.SpreadsheetID = "sheet"
	cfg.Source.FolderID = "folder"
	cfg.Google = config.Google{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}
	cfg.Transcription.APIKey = "sk-test"
	return cfg
}
