package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestZeroLogger_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Info("info-test", Field{Key: "key", Value: "value"})

	output := buf.String()

	if !strings.Contains(output, "info-test") {
		t.Errorf("expected 'info-test' in log, got: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("expected field key=value, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected level=info, got: %s", output)
	}
}

func TestZeroLogger_DebugShownInDev(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Debug("debug-test")

	output := buf.String()
	if !strings.Contains(output, "debug-test") {
		t.Errorf("expected debug log in development, got: %s", output)
	}
}

func TestZeroLogger_DebugHiddenInProduction(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("production", buf)

	log.Debug("debug-hidden") // should NOT appear

	output := buf.String()
	if output != "" {
		t.Errorf("expected NO debug log output in production, got: %s", output)
	}
}

func TestZeroLogger_Warn(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Warn("warn-test", Field{Key: "warn", Value: "yes"})

	output := buf.String()

	if !strings.Contains(output, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", output)
	}
	if !strings.Contains(output, `"warn":"yes"`) {
		t.Errorf("expected field warn=yes, got: %s", output)
	}
}

func TestZeroLogger_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Error("error-test")

	output := buf.String()

	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("expected error level, got: %s", output)
	}
}

func TestZeroLogger_ErrorField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Error("fetch-failed", Field{Key: "err", Value: errors.New("connection refused")})

	output := buf.String()
	if !strings.Contains(output, `"err":"connection refused"`) {
		t.Errorf("expected error message in field, got: %s", output)
	}
}

func TestZeroLogger_Int64Field(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	log.Info("batch", Field{Key: "batch_id", Value: int64(1541815603606036480)})

	output := buf.String()
	if !strings.Contains(output, `"batch_id":1541815603606036480`) {
		t.Errorf("expected int64 field, got: %s", output)
	}
}

func TestZeroLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter("development", buf)

	child := log.With(Field{Key: "batch_id", Value: int64(42)}, Field{Key: "source", Value: "aviationstack"})
	child.Info("first")
	child.Warn("second", Field{Key: "records", Value: 3})
	log.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines[:2] {
		if !strings.Contains(line, `"batch_id":42`) || !strings.Contains(line, `"source":"aviationstack"`) {
			t.Errorf("expected child fields, got: %s", line)
		}
	}
	if !strings.Contains(lines[1], `"records":3`) {
		t.Errorf("expected call fields on child line, got: %s", lines[1])
	}
	if strings.Contains(lines[2], "batch_id") {
		t.Errorf("parent must not carry child fields, got: %s", lines[2])
	}
}
