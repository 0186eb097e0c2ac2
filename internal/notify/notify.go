// Package notify delivers user-visible outcomes of background work.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks -source=notify.go Notifier

// DefaultCapacity is the number of notices a Ring keeps
const DefaultCapacity = 100

// Level classifies a notice
type Level string

const (
	// LevelInfo is a neutral outcome
	LevelInfo Level = "info"
	// LevelSuccess is a completed action
	LevelSuccess Level = "success"
	// LevelError is a failed action
	LevelError Level = "error"
)

// Notice is one user-visible message
type Notice struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Notifier publishes notices
type Notifier interface {
	Notify(level Level, message string)
}

// Ring logs every notice and keeps the most recent ones in memory
type Ring struct {
	mu       sync.Mutex
	capacity int
	notices  []Notice
	now      func() time.Time
}

// NewRing creates a ring holding up to capacity notices; non-positive uses DefaultCapacity
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity, now: time.Now}
}

// Notify implements Notifier
func (r *Ring) Notify(level Level, message string) {
	switch level {
	case LevelError:
		slog.Warn("Notice", "level", string(level), "message", message)
	default:
		slog.Info("Notice", "level", string(level), "message", message)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Time: r.now().UTC(), Level: level, Message: message})
	if over := len(r.notices) - r.capacity; over > 0 {
		r.notices = append([]Notice(nil), r.notices[over:]...)
	}
}

// Recent returns the kept notices, oldest first
func (r *Ring) Recent() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Discard is a Notifier that drops everything
type Discard struct{}

// Notify implements Notifier
func (Discard) Notify(Level, string) {}
