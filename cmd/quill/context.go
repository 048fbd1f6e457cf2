package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/notifications"
	"quill/internal/runlog"
	"quill/internal/runner"
	"quill/internal/services/drive"
	"quill/internal/services/googleauth"
	"quill/internal/services/sheets"
	"quill/internal/transcribe"
	"quill/internal/writer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Secrets may live in a local .env instead of the config file.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
	})
	return c.logger, c.loggerErr
}

// pipeline bundles the assembled runner with the resources it borrows.
type pipeline struct {
	runner  *runner.Runner
	history *runlog.Store
}

func (p *pipeline) Close() {
	_ = p.history.Close()
}

// Run satisfies schedule.Pipeline.
func (p *pipeline) Run(ctx context.Context) error {
	_, err := p.runner.Run(ctx)
	return err
}

// buildPipeline wires the full processing chain from configuration: Drive
// and Sheets clients over one authorized HTTP client, the transcriber with
// its retry policy, the cell writer, notifications, and run history.
func (c *commandContext) buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	httpClient, err := googleauth.NewClient(ctx, googleauth.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RefreshToken: cfg.Google.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("build google client: %w", err)
	}

	driveClient := drive.New(httpClient)
	sheetsClient := sheets.New(httpClient, cfg.Sheet.SpreadsheetID, cfg.Sheet.Worksheet)

	whisper := transcribe.NewWhisper(
		cfg.Transcription.APIKey,
		cfg.Transcription.Model,
		time.Duration(cfg.Transcription.TimeoutSeconds)*time.Second,
	)
	worker := transcribe.NewWorker(driveClient, whisper, transcribe.Policy{Retries: cfg.Transcription.RetryCount}, logger)

	history, err := runlog.Open(cfg.RunDBPath())
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}

	r := runner.New(
		runner.Options{
			FolderID:      cfg.Source.FolderID,
			EntryColumn:   cfg.Sheet.EntryColumn,
			HeaderRows:    cfg.Sheet.HeaderRows,
			AnswerColumns: cfg.Sheet.AnswerColumns,
			AudioColumns:  cfg.Sheet.AudioColumns,
			LockPath:      cfg.LockPath(),
		},
		driveClient,
		sheetsClient,
		worker,
		writer.New(sheetsClient, cfg.Sheet.AnswerColumns, logger),
		notifications.NewService(cfg),
		history,
		logger,
	)
	return &pipeline{runner: r, history: history}, nil
}

func (c *commandContext) openHistory() (*runlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return runlog.Open(cfg.RunDBPath())
}
