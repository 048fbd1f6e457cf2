package config

const (
	defaultDataDir            = "~/.local/share/quill"
	defaultLogDir             = "~/.local/share/quill/logs"
	defaultWorksheet          = "Sheet1"
	defaultEntryColumn        = "A"
	defaultHeaderRows         = 1
	defaultTranscriptionModel = "whisper-1"
	defaultRetryCount         = 2
	defaultTimeoutSeconds     = 120
	defaultSMTPPort           = 587
	defaultScheduleCron       = "@every 1h"
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Sheet: Sheet{
			Worksheet:   defaultWorksheet,
			EntryColumn: defaultEntryColumn,
			HeaderRows:  defaultHeaderRows,
			AnswerColumns: map[string]string{
				"q1": "D",
				"q2": "F",
				"q3": "H",
				"q4": "J",
			},
		},
		Transcription: Transcription{
			Model:          defaultTranscriptionModel,
			RetryCount:     defaultRetryCount,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Email: Email{
			SMTPPort: defaultSMTPPort,
		},
		Schedule: Schedule{
			Cron: defaultScheduleCron,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
