package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestDevLogger tests the development logger's pretty JSON output
func TestDevLogger(t *testing.T) {
	var buf bytes.Buffer

	handler := &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}),
		writer: &buf,
	}

	devLogger := slog.New(handler)
	devLogger.Info("test message", "key", "value")
	output := buf.String()

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("Output is not valid JSON: %v\nOutput was: %s", err, output)
		return
	}

	if result["msg"] != "test message" {
		t.Errorf("Expected message 'test message', got '%v'", result["msg"])
	}
	if result["key"] != "value" {
		t.Errorf("Expected key 'value', got '%v'", result["key"])
	}
	if result["level"] != "INFO" {
		t.Errorf("Expected level 'INFO', got '%v'", result["level"])
	}
}

// TestProdLogger tests the production logger's JSON output
func TestProdLogger(t *testing.T) {
	var buf bytes.Buffer
	prodLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	prodLogger.Info("test message", "key", "value")
	output := buf.String()

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("Output is not valid JSON: %v", err)
	}

	if result["msg"] != "test message" {
		t.Errorf("Expected message 'test message', got '%v'", result["msg"])
	}
	if result["key"] != "value" {
		t.Errorf("Expected key 'value', got '%v'", result["key"])
	}
	if result["level"] != "INFO" {
		t.Errorf("Expected level 'INFO', got '%v'", result["level"])
	}
}

// TestQueryLogger verifies the channel and connection name are tagged on
// every record, matching the fixed logging channel connections document.
func TestQueryLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := QueryLogger(base, "mysql_dev")
	logger.Debug("query_executed", "sql", "SELECT * FROM `users` WHERE `users`.`id` = ?", "bindings", []any{1})

	var result map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if result["channel"] != QueriesChannel {
		t.Errorf("expected channel %q, got %v", QueriesChannel, result["channel"])
	}
	if result["connection"] != "mysql_dev" {
		t.Errorf("expected connection 'mysql_dev', got %v", result["connection"])
	}
}
