package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"quill/internal/logging"
)

func TestConsoleFormatIncludesComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithComponent(logger, "reconcile").Info("work planned", logging.Int("items", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO reconcile: work planned") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "items=3") {
		t.Fatalf("expected items attr in %q", line)
	}
}

func TestConsoleQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("item failed", logging.String("detail", "rate limit hit"))

	if !strings.Contains(buf.String(), `detail="rate limit hit"`) {
		t.Fatalf("expected quoted attr in %q", buf.String())
	}
}

func TestJSONFormatEmitsLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("slow listing", logging.Int("files", 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["level"] != "warn" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if record["msg"] != "slow listing" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
