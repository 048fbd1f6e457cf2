package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"quill/internal/journal"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSheet()
	c.normalizeCredentials()
	c.normalizeEmail()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSheet() {
	c.Sheet.SpreadsheetID = strings.TrimSpace(c.Sheet.SpreadsheetID)
	if c.Sheet.SpreadsheetID == "" {
		c.Sheet.SpreadsheetID = strings.TrimSpace(os.Getenv("QUILL_SPREADSHEET_ID"))
	}
	c.Sheet.Worksheet = strings.TrimSpace(c.Sheet.Worksheet)
	c.Sheet.EntryColumn = strings.ToUpper(strings.TrimSpace(c.Sheet.EntryColumn))

	normalized := make(map[string]string, len(c.Sheet.AnswerColumns))
	for slot, column := range c.Sheet.AnswerColumns {
		slot = strings.ToLower(strings.TrimSpace(slot))
		column = strings.ToUpper(strings.TrimSpace(column))
		if slot == "" || column == "" {
			continue
		}
		normalized[slot] = column
	}
	c.Sheet.AnswerColumns = normalized

	audio := make(map[string]string, len(c.Sheet.AudioColumns))
	for slot, column := range c.Sheet.AudioColumns {
		slot = strings.ToLower(strings.TrimSpace(slot))
		column = strings.ToUpper(strings.TrimSpace(column))
		if slot == "" || column == "" {
			continue
		}
		audio[slot] = column
	}
	c.Sheet.AudioColumns = audio

	c.Source.FolderID = strings.TrimSpace(c.Source.FolderID)
	if c.Source.FolderID == "" {
		c.Source.FolderID = strings.TrimSpace(os.Getenv("QUILL_FOLDER_ID"))
	}
}

func (c *Config) normalizeCredentials() {
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}

	c.Google.ClientID = strings.TrimSpace(c.Google.ClientID)
	if c.Google.ClientID == "" {
		c.Google.ClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	}
	c.Google.ClientSecret = strings.TrimSpace(c.Google.ClientSecret)
	if c.Google.ClientSecret == "" {
		c.Google.ClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	}
	c.Google.RefreshToken = strings.TrimSpace(c.Google.RefreshToken)
	if c.Google.RefreshToken == "" {
		c.Google.RefreshToken = strings.TrimSpace(os.Getenv("GOOGLE_REFRESH_TOKEN"))
	}
}

func (c *Config) normalizeEmail() {
	c.Email.SMTPHost = strings.TrimSpace(c.Email.SMTPHost)
	c.Email.Sender = strings.TrimSpace(c.Email.Sender)
	c.Email.Password = strings.TrimSpace(c.Email.Password)
	if c.Email.Password == "" {
		c.Email.Password = strings.TrimSpace(os.Getenv("SMTP_PASSWORD"))
	}

	recipients := make([]string, 0, len(c.Email.Recipients))
	for _, recipient := range c.Email.Recipients {
		if recipient = strings.TrimSpace(recipient); recipient != "" {
			recipients = append(recipients, recipient)
		}
	}
	if len(recipients) == 0 {
		for _, recipient := range strings.Split(os.Getenv("RECIPIENT_EMAIL"), ",") {
			if recipient = strings.TrimSpace(recipient); recipient != "" {
				recipients = append(recipients, recipient)
			}
		}
	}
	c.Email.Recipients = recipients
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func sortSlots(slots []string) {
	sort.Slice(slots, func(i, j int) bool {
		return journal.SlotLess(slots[i], slots[j])
	})
}
