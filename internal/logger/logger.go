package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
)

var (
	mu           sync.RWMutex
	currentLevel = getLogLevel()
	base         = newLogger(os.Stderr)
)

const (
	APP       = "APP"
	CHAT      = "CHAT"
	CONFIG    = "CONFIG"
	SESSION   = "SESSION"
	TRANSPORT = "TRANSPORT"
	UI        = "UI"
)

func getLogLevel() LogLevel {
	return parseLevel(os.Getenv("LOG_LEVEL"))
}

func parseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects all log output to w. The interactive UI uses this to
// keep log lines off the terminal it is drawing on.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w)
}

// SetLevel overrides the level read from LOG_LEVEL. Unknown names fall back to INFO.
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = parseLevel(level)
}

func enabled(level LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel >= level
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func formatMessage(namespace, format string, v ...interface{}) string {
	msg := fmt.Sprintf(format, v...)
	return fmt.Sprintf("[%s] %s", namespace, msg)
}

func Debug(namespace, format string, v ...interface{}) {
	if enabled(DEBUG) {
		l := current()
		l.Debug().Str("namespace", namespace).Msg(formatMessage(namespace, format, v...))
	}
}

func Info(namespace, format string, v ...interface{}) {
	if enabled(INFO) {
		l := current()
		l.Info().Str("namespace", namespace).Msg(formatMessage(namespace, format, v...))
	}
}

func Warn(namespace, format string, v ...interface{}) {
	if enabled(WARN) {
		l := current()
		l.Warn().Str("namespace", namespace).Msg(formatMessage(namespace, format, v...))
	}
}

func Error(namespace, format string, v ...interface{}) {
	if enabled(ERROR) {
		l := current()
		l.Error().Str("namespace", namespace).Msg(formatMessage(namespace, format, v...))
	}
}
