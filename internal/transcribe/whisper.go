package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"quill/internal/services"
)

// Transcriber converts audio bytes into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, data []byte) (string, error)
}

// Whisper calls the OpenAI transcription endpoint.
type Whisper struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewWhisper builds a Whisper transcriber. The timeout bounds each API
// call; an expired call is classified transient and charged to the retry
// budget by the caller.
func NewWhisper(apiKey, model string, timeout time.Duration) *Whisper {
	if strings.TrimSpace(model) == "" {
		model = openai.Whisper1
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Whisper{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (w *Whisper) Transcribe(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", services.Wrap(services.ErrPermanent, "whisper", "transcribe", fmt.Sprintf("%s is empty", name), nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.CreateTranscription(callCtx, openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(data),
		FilePath: name,
	})
	if err != nil {
		return "", classify(name, err)
	}
	return resp.Text, nil
}

// classify maps API failures onto the error taxonomy: rate limits, server
// errors, and timeouts are transient; every other API rejection (bad or
// unsupported audio among them) is permanent and spends no retry budget.
func classify(name string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests,
			apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "whisper", "transcribe", name, err)
		default:
			return services.Wrap(services.ErrPermanent, "whisper", "transcribe", name, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTransient, "whisper", "transcribe", fmt.Sprintf("%s timed out", name), err)
	}
	return services.Wrap(services.ErrTransient, "whisper", "transcribe", name, err)
}
