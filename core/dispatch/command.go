package dispatch

import (
	"errors"
	"time"
)

// Status is the lifecycle stage of a command.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSending      Status = "sending"
	StatusAcknowledged Status = "acknowledged"
	StatusExecuting    Status = "executing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Terminal reports whether no further transition follows s.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

var (
	// ErrBusy is returned when a command is still in flight.
	ErrBusy = errors.New("dispatch command in progress")
	// ErrUnknownAsset is returned for assets outside the configured catalog.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrInvalidTarget is returned for set-points outside [0, max].
	ErrInvalidTarget = errors.New("invalid target")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dispatch controller closed")
)

// Command is one manual dispatch order.
type Command struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"assetId"`
	TargetMW  float64   `json:"targetMW"`
	RampRate  float64   `json:"rampRate"`
	Status    Status    `json:"status"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is published on every status change, including creation.
type Event struct {
	Command Command
	// Previous is empty for the creation event.
	Previous Status
}
