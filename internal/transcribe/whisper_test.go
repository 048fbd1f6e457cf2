package transcribe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quill/internal/services"
	"quill/internal/transcribe"
)

func TestWhisperRejectsEmptyAudioPermanently(t *testing.T) {
	w := transcribe.NewWhisper("sk-test", "whisper-1", time.Second)
	_, err := w.Transcribe(context.Background(), "E1_q1.webm", nil)
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("empty audio must be a permanent failure, got %v", err)
	}
	if services.IsTransient(err) {
		t.Fatal("empty audio must not be retried")
	}
}
