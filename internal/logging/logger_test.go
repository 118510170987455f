package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gridauto/internal/logging"
)

func TestConsoleFormatIncludesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("opened case", logging.String("case_path", "/tmp/demo.pwb"))

	out := buf.String()
	if !strings.Contains(out, "INF") {
		t.Fatalf("expected level tag in output: %q", out)
	}
	if !strings.Contains(out, "case_path=/tmp/demo.pwb") {
		t.Fatalf("expected attribute in output: %q", out)
	}
}

func TestJSONFormatEmitsValidRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("call complete", logging.String(logging.FieldFunction, "GetFieldList"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "call complete" {
		t.Fatalf("unexpected message: %#v", record["msg"])
	}
	if record[logging.FieldFunction] != "GetFieldList" {
		t.Fatalf("unexpected function attr: %#v", record[logging.FieldFunction])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info record should have been filtered: %q", out)
	}
	if !strings.Contains(out, "should be kept") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	// Must not panic or emit anywhere.
	logger.Error("ignored", logging.Error(nil))
}
