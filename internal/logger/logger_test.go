package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		envLevel string
		want     LogLevel
	}{
		{"Debug level", "DEBUG", DEBUG},
		{"Info level", "INFO", INFO},
		{"Warn level", "WARN", WARN},
		{"Error level", "ERROR", ERROR},
		{"Empty defaults to Info", "", INFO},
		{"Invalid defaults to Info", "INVALID", INFO},
		{"Case insensitive", "debug", DEBUG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("LOG_LEVEL", tt.envLevel)
			defer os.Unsetenv("LOG_LEVEL")

			if got := getLogLevel(); got != tt.want {
				t.Errorf("getLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		format    string
		args      []interface{}
		want      string
	}{
		{
			name:      "Simple message",
			namespace: "TEST",
			format:    "Hello",
			args:      nil,
			want:      "[TEST] Hello",
		},
		{
			name:      "Message with args",
			namespace: "APP",
			format:    "Count: %d",
			args:      []interface{}{42},
			want:      "[APP] Count: 42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMessage(tt.namespace, tt.format, tt.args...)
			if got != tt.want {
				t.Errorf("formatMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func captureOutput(level string, f func()) string {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel("INFO")
	}()

	f()
	return buf.String()
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name      string
		setLevel  string
		logFunc   func(string, string, ...interface{})
		message   string
		shouldLog bool
		wantLevel string
	}{
		{"Debug logs when Debug", "DEBUG", Debug, "debug message", true, "debug"},
		{"Debug doesn't log when Info", "INFO", Debug, "debug message", false, ""},
		{"Info logs when Info", "INFO", Info, "info message", true, "info"},
		{"Info doesn't log when Error", "ERROR", Info, "info message", false, ""},
		{"Warn logs when Warn", "WARN", Warn, "warn message", true, "warn"},
		{"Error always logs", "ERROR", Error, "error message", true, "error"},
		{"Error logs when Debug", "DEBUG", Error, "error message", true, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := strings.TrimSpace(captureOutput(tt.setLevel, func() {
				tt.logFunc("TEST", tt.message)
			}))

			hasOutput := output != ""
			if hasOutput != tt.shouldLog {
				t.Fatalf("Expected log output: %v, got output: %q", tt.shouldLog, output)
			}
			if !tt.shouldLog {
				return
			}

			var entry map[string]interface{}
			if err := json.Unmarshal([]byte(output), &entry); err != nil {
				t.Fatalf("Expected a JSON log line, got %q: %v", output, err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry["level"], tt.wantLevel)
			}
			if entry["namespace"] != "TEST" {
				t.Errorf("namespace = %v, want TEST", entry["namespace"])
			}
			if entry["message"] != "[TEST] "+tt.message {
				t.Errorf("message = %v, want %q", entry["message"], "[TEST] "+tt.message)
			}
		})
	}
}
