// Package dispatch implements the Alert Dispatcher: formats AlertEvents
// through a small template engine, throttles per-aircraft and per-hour, and
// delivers to one or more outbound interfaces (serial, MQTT) with routing,
// retry/backoff and AES-CTR encryption.
package dispatch

import (
	"time"

	"go1090/internal/watchlist"
)

// Priority is an Outbound Message's delivery priority level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// OutboundMessage is the unit the Dispatcher retries/delivers.
type OutboundMessage struct {
	ID            uint64
	Content       []byte
	ChannelName   string
	Priority      Priority
	CreatedAt     time.Time
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time

	// Event is kept only for the optional alert log; delivery logic never
	// inspects it.
	Event watchlist.AlertEvent
}

// Expired reports whether the message has outlived message_ttl from its
// creation.
func (m *OutboundMessage) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.CreatedAt) > ttl
}
