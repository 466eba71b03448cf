package logger

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level is the logging severity threshold. Messages below the
// configured level are dropped.
type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// current holds the active threshold. Atomic so handlers and the
// refresh loops can log concurrently without a lock.
var current atomic.Int32

func init() {
	current.Store(int32(INFO))
}

// ParseLevel converts a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// SetLevel sets the global logging threshold from a config string.
func SetLevel(s string) {
	current.Store(int32(ParseLevel(s)))
}

// GetLevel returns the active threshold as a string.
func GetLevel() string {
	switch Level(current.Load()) {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

func emit(lvl Level, tag, format string, v ...interface{}) {
	if lvl < Level(current.Load()) {
		return
	}
	log.Printf("[%s] %s", tag, fmt.Sprintf(format, v...))
}

// Debug logs debug level messages
func Debug(format string, v ...interface{}) {
	emit(DEBUG, "DEBUG", format, v...)
}

// Info logs info level messages
func Info(format string, v ...interface{}) {
	emit(INFO, "INFO", format, v...)
}

// Warn logs warning level messages
func Warn(format string, v ...interface{}) {
	emit(WARN, "WARN", format, v...)
}

// Error logs error level messages
func Error(format string, v ...interface{}) {
	emit(ERROR, "ERROR", format, v...)
}
