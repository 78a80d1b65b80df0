package ops

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/patrickReiis/rap-battle-nostr/internal/config"
)

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "debug", Format: "text"}, &buf)

	logger.Debug("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("output missing message: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("output missing field: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "warn", Format: "text"}, &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("info message leaked through warn level: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("warn message missing: %s", output)
	}
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "info", Format: "json"}, &buf)

	logger.Info("json message")

	if !strings.Contains(buf.String(), `"msg":"json message"`) {
		t.Errorf("expected JSON output, got: %s", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "info", Format: "text"}, &buf)

	logger.WithComponent("scheduler").Info("tick")

	if !strings.Contains(buf.String(), "component=scheduler") {
		t.Errorf("output missing component field: %s", buf.String())
	}
}

func TestLogPollCycle_FailureIsWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&config.Logging{Level: "info", Format: "text"}, &buf)

	logger.LogPollCycle("leaderboard", 12*time.Millisecond, errors.New("timeout"))

	output := buf.String()
	if !strings.Contains(output, "poll cycle failed") {
		t.Errorf("output missing failure message: %s", output)
	}
	if !strings.Contains(output, "view=leaderboard") {
		t.Errorf("output missing view field: %s", output)
	}
}

func TestOutcomeOf(t *testing.T) {
	if OutcomeOf(nil) != OutcomeOK {
		t.Errorf("OutcomeOf(nil) = %q, want %q", OutcomeOf(nil), OutcomeOK)
	}
	if OutcomeOf(errors.New("x")) != OutcomeError {
		t.Errorf("OutcomeOf(err) = %q, want %q", OutcomeOf(errors.New("x")), OutcomeError)
	}
}
