package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLogStampsEntry(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	Log("warn", "backend_error", map[string]any{"key": "search_1.2.3.4", "level": "ignored"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not one JSON object: %q", buf.String())
	}
	if entry["level"] != "warn" || entry["msg"] != "backend_error" {
		t.Fatalf("stamp not applied: %v", entry)
	}
	if entry["key"] != "search_1.2.3.4" {
		t.Fatalf("field dropped: %v", entry)
	}
	if _, ok := entry["ts"].(string); !ok {
		t.Fatalf("missing ts: %v", entry)
	}
}
