package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

func jsonLogger(buf *bytes.Buffer, level Level) *Logger {
	return New(Config{Level: level, Format: FormatJSON, Output: NewOutput(buf), ServiceName: "oactl"})
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown", "path", "/inform/inform/")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["msg"] != "shown" || entry["path"] != "/inform/inform/" || entry["service"] != "oactl" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestWithErrorOAError(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelDebug)

	err := errors.Wrap(errors.ErrCodeServer, "server unavailable", fmt.Errorf("502 bad gateway")).WithStatus(502)
	logger.WithError(fmt.Errorf("list informs: %w", err)).Error("request failed")

	var entry map[string]any
	if e := json.Unmarshal(buf.Bytes(), &entry); e != nil {
		t.Fatalf("invalid json: %v", e)
	}
	if entry["error_code"] != "HTTP-003" {
		t.Errorf("error_code = %v", entry["error_code"])
	}
	if entry["error_kind"] != "server" {
		t.Errorf("error_kind = %v", entry["error_kind"])
	}
	if entry["status"] != float64(502) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestWithErrorPlainAndNil(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LevelDebug)

	if logger.WithError(nil) != logger {
		t.Errorf("WithError(nil) should return the same logger")
	}

	logger.WithError(fmt.Errorf("boom")).Info("x")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected plain error attr, got %q", buf.String())
	}
}

func TestConfigFromFlags(t *testing.T) {
	cfg := ConfigFromFlags("info", "json", false, false)
	if cfg.Level != LevelInfo || cfg.Format != FormatJSON {
		t.Errorf("unexpected config %+v", cfg)
	}
	if ConfigFromFlags("error", "", true, false).Level != LevelDebug {
		t.Errorf("verbose should force debug")
	}
	if ConfigFromFlags("", "", false, true).Level != LevelError {
		t.Errorf("quiet should force error")
	}
	if ConfigFromFlags("", "", false, false).Level != LevelWarn {
		t.Errorf("default level should be warn")
	}
}

func TestDefaultLogger(t *testing.T) {
	custom := Discard()
	SetDefaultLogger(custom)
	defer SetDefaultLogger(nil)

	if DefaultLogger() != custom {
		t.Errorf("DefaultLogger should return the configured logger")
	}
	if OrDefault(nil) != custom {
		t.Errorf("OrDefault(nil) should fall back to the default")
	}
	other := Discard()
	if OrDefault(other) != other {
		t.Errorf("OrDefault should keep a non-nil logger")
	}
}
