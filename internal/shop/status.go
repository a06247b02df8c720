package shop

import "time"

// Level classifies a status message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Status is the single user-facing status line.
type Status struct {
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newStatus(level Level, msg string) Status {
	return Status{Message: msg, Level: level, UpdatedAt: time.Now()}
}
