package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	columnPattern = regexp.MustCompile(`^[A-Z]{1,3}$`)
	slotPattern   = regexp.MustCompile(`^q[0-9]+$`)
)

// Validate ensures the configuration is usable before the run starts.
func (c *Config) Validate() error {
	if err := c.validateSheet(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSheet() error {
	if c.Sheet.SpreadsheetID == "" {
		return errors.New("sheet.spreadsheet_id is required (or set QUILL_SPREADSHEET_ID)")
	}
	if c.Sheet.Worksheet == "" {
		return errors.New("sheet.worksheet must be set")
	}
	if !columnPattern.MatchString(c.Sheet.EntryColumn) {
		return fmt.Errorf("sheet.entry_column %q is not a column letter", c.Sheet.EntryColumn)
	}
	if c.Sheet.HeaderRows < 0 {
		return errors.New("sheet.header_rows must be >= 0")
	}
	if len(c.Sheet.AnswerColumns) == 0 {
		return errors.New("sheet.answer_columns must map at least one slot")
	}
	seen := make(map[string]string, len(c.Sheet.AnswerColumns))
	for slot, column := range c.Sheet.AnswerColumns {
		if !slotPattern.MatchString(slot) {
			return fmt.Errorf("sheet.answer_columns: slot %q must match q<N>", slot)
		}
		if !columnPattern.MatchString(column) {
			return fmt.Errorf("sheet.answer_columns: column %q for slot %s is not a column letter", column, slot)
		}
		if column == c.Sheet.EntryColumn {
			return fmt.Errorf("sheet.answer_columns: slot %s maps to the entry column %s", slot, column)
		}
		if other, dup := seen[column]; dup {
			return fmt.Errorf("sheet.answer_columns: slots %s and %s both map to column %s", other, slot, column)
		}
		seen[column] = slot
	}
	for slot, column := range c.Sheet.AudioColumns {
		if !slotPattern.MatchString(slot) {
			return fmt.Errorf("sheet.audio_columns: slot %q must match q<N>", slot)
		}
		if !columnPattern.MatchString(column) {
			return fmt.Errorf("sheet.audio_columns: column %q for slot %s is not a column letter", column, slot)
		}
		if column == c.Sheet.EntryColumn {
			return fmt.Errorf("sheet.audio_columns: slot %s maps to the entry column %s", slot, column)
		}
		if other, dup := seen[column]; dup {
			return fmt.Errorf("sheet.audio_columns: slot %s maps to column %s, already claimed by slot %s", slot, column, other)
		}
		seen[column] = slot
		if _, ok := c.Sheet.AnswerColumns[slot]; !ok {
			return fmt.Errorf("sheet.audio_columns: slot %s has no matching answer column", slot)
		}
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.Source.FolderID == "" {
		return errors.New("source.folder_id is required (or set QUILL_FOLDER_ID)")
	}
	return nil
}

func (c *Config) validateCredentials() error {
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" || c.Google.RefreshToken == "" {
		return errors.New("google client_id, client_secret, and refresh_token are required (or set GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REFRESH_TOKEN)")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/quill/config.toml"
		}
		return fmt.Errorf("transcription.api_key is required. Set OPENAI_API_KEY or edit %s (create with 'quill config init')", defaultPath)
	}
	if c.Transcription.RetryCount < 0 {
		return errors.New("transcription.retry_count must be >= 0")
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEmail() error {
	if !c.Email.Enabled {
		return nil
	}
	if c.Email.SMTPHost == "" {
		return errors.New("email.smtp_host must be set when email.enabled is true")
	}
	if c.Email.SMTPPort <= 0 {
		return errors.New("email.smtp_port must be positive")
	}
	if c.Email.Sender == "" {
		return errors.New("email.sender must be set when email.enabled is true")
	}
	if len(c.Email.Recipients) == 0 {
		return errors.New("email.recipients must include at least one address when email.enabled is true")
	}
	for _, recipient := range c.Email.Recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("email.recipients: %q is not an address", recipient)
		}
	}
	return nil
}
