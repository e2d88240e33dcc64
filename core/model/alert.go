package model

import (
	"errors"
	"fmt"
	"strings"
)

// AlertLevel tags the severity of an alert. Levels are not ordered; they
// select how a notification is presented.
type AlertLevel string

const (
	LevelCritical AlertLevel = "critical"
	LevelWarning  AlertLevel = "warning"
	LevelInfo     AlertLevel = "info"
)

// ErrInvalidLevel is returned by ParseLevel for unknown levels.
var ErrInvalidLevel = errors.New("invalid alert level")

// ParseLevel converts s to an AlertLevel.
func ParseLevel(s string) (AlertLevel, error) {
	switch l := AlertLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelCritical, LevelWarning, LevelInfo:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// String implements fmt.Stringer.
func (l AlertLevel) String() string { return string(l) }

// Alert is an immutable alarm raised by the plant.
type Alert struct {
	ID      string     `json:"id"`
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
	Time    string     `json:"time"` // local wall clock, HH:MM:SS
}

// AlertTemplate is a canned alert used by the alert generator.
type AlertTemplate struct {
	Level   AlertLevel `json:"level" yaml:"level"`
	Message string     `json:"message" yaml:"message"`
}

// TimeLayout is the wall-clock layout used for Alert.Time.
const TimeLayout = "15:04:05"
