package cloudwatch

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	applicationPort "github.com/pkondrashkov/gallery-api/internal/application/port"
)

func TestConvertToLogEvent(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/aws/test",
		logStreamName: "test-stream",
	}

	timestamp := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelInfo,
		Message:   "Image uploaded",
		Fields: map[string]interface{}{
			"key":        "gallery/abc.jpg",
			"action":     "upload",
			"size_bytes": 4096,
		},
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	// Verify timestamp
	expectedTimestamp := timestamp.UnixMilli()
	if event.Timestamp == nil || *event.Timestamp != expectedTimestamp {
		t.Errorf("Expected Timestamp=%d, got %v", expectedTimestamp, event.Timestamp)
	}

	// Verify message is valid JSON
	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	// Verify structured fields
	if logData["level"] != string(applicationPort.LogLevelInfo) {
		t.Errorf("Expected level=INFO, got %v", logData["level"])
	}

	if logData["message"] != "Image uploaded" {
		t.Errorf("Expected message='Image uploaded', got %v", logData["message"])
	}

	fields, ok := logData["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected fields to be a map")
	}

	if fields["key"] != "gallery/abc.jpg" {
		t.Errorf("Expected key=gallery/abc.jpg, got %v", fields["key"])
	}

	if fields["action"] != "upload" {
		t.Errorf("Expected action=upload, got %v", fields["action"])
	}

	// Note: JSON numbers are float64
	if size, ok := fields["size_bytes"].(float64); !ok || size != 4096 {
		t.Errorf("Expected size_bytes=4096, got %v", fields["size_bytes"])
	}
}

func TestConvertToLogEvent_NoFields(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/aws/test",
		logStreamName: "test-stream",
	}

	timestamp := time.Now()
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelError,
		Message:   "Error occurred",
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	var logData map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &logData); err != nil {
		t.Fatalf("Failed to parse log message as JSON: %v", err)
	}

	if logData["level"] != string(applicationPort.LogLevelError) {
		t.Errorf("Expected level=ERROR, got %v", logData["level"])
	}

	if logData["message"] != "Error occurred" {
		t.Errorf("Expected message='Error occurred', got %v", logData["message"])
	}
}

func TestConvertToLogEvent_Truncation(t *testing.T) {
	p := &LogsPublisher{
		logGroupName:  "/aws/test",
		logStreamName: "test-stream",
	}

	// Create a very large message that exceeds CloudWatch limit
	largeMessage := string(make([]byte, maxLogEventSize+1000))

	timestamp := time.Now()
	entry := applicationPort.LogEntry{
		Timestamp: timestamp,
		Level:     applicationPort.LogLevelInfo,
		Message:   largeMessage,
		Fields:    nil,
	}

	event, err := p.convertToLogEvent(entry)
	if err != nil {
		t.Fatalf("Failed to convert log entry: %v", err)
	}

	if event.Message == nil {
		t.Fatal("Expected Message to be set")
	}

	// Verify message was truncated
	messageLen := len(*event.Message)
	if messageLen > maxLogEventSize {
		t.Errorf("Expected message to be truncated to %d bytes, got %d", maxLogEventSize, messageLen)
	}

	// Verify truncation marker
	if messageLen >= 3 {
		lastThree := (*event.Message)[messageLen-3:]
		if lastThree != "..." {
			t.Error("Expected truncation marker '...' at end of message")
		}
	}
}

func TestLogsConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    LogsPublisherConfig
		expectErr bool
	}{
		{
			name: "valid config",
			config: LogsPublisherConfig{
				LogGroupName:  "/aws/test",
				LogStreamName: "test-stream",
				Region:        "us-east-1",
				BufferSize:    50,
				FlushInterval: 5 * time.Second,
			},
			expectErr: false,
		},
		{
			name: "missing log group",
			config: LogsPublisherConfig{
				LogStreamName: "test-stream",
				Region:        "us-east-1",
			},
			expectErr: true,
		},
		{
			name: "missing log stream",
			config: LogsPublisherConfig{
				LogGroupName: "/aws/test",
				Region:       "us-east-1",
			},
			expectErr: true,
		},
		{
			name: "missing region",
			config: LogsPublisherConfig{
				LogGroupName:  "/aws/test",
				LogStreamName: "test-stream",
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config.LogGroupName == "" && !tt.expectErr {
				t.Error("Expected log group validation to fail")
			}

			if tt.config.LogStreamName == "" && !tt.expectErr {
				t.Error("Expected log stream validation to fail")
			}

			if tt.config.Region == "" && !tt.expectErr {
				t.Error("Expected region validation to fail")
			}
		})
	}
}

func TestChronologicalOrdering(t *testing.T) {
	now := time.Now()
	entries := []applicationPort.LogEntry{
		{Timestamp: now.Add(5 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Third"},
		{Timestamp: now, Level: applicationPort.LogLevelInfo, Message: "First"},
		{Timestamp: now.Add(2 * time.Second), Level: applicationPort.LogLevelInfo, Message: "Second"},
	}

	// Sort by timestamp the same way flushBufferUnsafe does. We can't call
	// flushBufferUnsafe directly as it requires AWS credentials.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	if entries[0].Message != "First" {
		t.Error("Expected first entry to be 'First'")
	}
	if entries[1].Message != "Second" {
		t.Error("Expected second entry to be 'Second'")
	}
	if entries[2].Message != "Third" {
		t.Error("Expected third entry to be 'Third'")
	}

	for i := 0; i < len(entries)-1; i++ {
		if entries[i+1].Timestamp.Before(entries[i].Timestamp) {
			t.Errorf("Entries not in chronological order at index %d", i)
		}
	}
}
