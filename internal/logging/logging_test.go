package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("transport")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("connected", "addr", "127.0.0.1:5005")

	out := buf.String()
	if strings.Contains(out, `msg="INFO connected`) {
		t.Fatalf("unexpected nested severity prefix in message: %s", out)
	}
	if !strings.Contains(out, "msg=connected") {
		t.Fatalf("expected plain connected message, got: %s", out)
	}
	if !strings.Contains(out, "component=transport") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "addr=127.0.0.1:5005") {
		t.Fatalf("expected addr field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("transport")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)

	L("capture").Info("frame sent", "tiles", 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"capture"`) {
		t.Fatalf("expected json component field, got: %s", out)
	}
	if !strings.Contains(out, `"tiles":3`) {
		t.Fatalf("expected json tiles field, got: %s", out)
	}
}
