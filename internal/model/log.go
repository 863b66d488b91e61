package model

import (
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelError LogLevel = "ERROR"
)

const LogSourceSymbols = "exchange-symbols"

// Log is a diagnostic line shipped to the log sink. It never carries symbol data.
type Log struct {
	ID        uuid.UUID `json:"id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

func NewLog(level LogLevel, message string) Log {
	return Log{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Source:    LogSourceSymbols,
	}
}
