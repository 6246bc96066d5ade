package model

import "time"

// Message lifecycle states. The Processor moves a message
// pending -> queued -> sent/failed; provider callbacks move it
// sent -> delivered -> opened -> clicked, or sent -> failed/bounced.
const (
	StatusPending   = "pending"
	StatusQueued    = "queued"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusOpened    = "opened"
	StatusClicked   = "clicked"
	StatusFailed    = "failed"
	StatusBounced   = "bounced"
)

// statusRank orders the lifecycle so callback transitions only ever
// move forward. failed/bounced are terminal.
var statusRank = map[string]int{
	StatusPending:   0,
	StatusQueued:    1,
	StatusSent:      2,
	StatusDelivered: 3,
	StatusOpened:    4,
	StatusClicked:   5,
	StatusFailed:    6,
	StatusBounced:   6,
}

// StatusAdvances reports whether moving from one status to another is a
// forward transition. Events that would move a message backwards (a late
// "delivered" after "opened") must be ignored.
func StatusAdvances(from, to string) bool {
	if from == StatusFailed || from == StatusBounced {
		return false
	}
	return statusRank[to] > statusRank[from]
}

// TerminalFailureStatus is the terminal status used when a send on the
// given channel permanently fails.
func TerminalFailureStatus(channel string) string {
	if channel == ChannelEmail {
		return StatusBounced
	}
	return StatusFailed
}

// Message is one concrete scheduled communication for a journey step.
type Message struct {
	ID                int       `db:"id" json:"id"`
	JourneyID         int       `db:"journey_id" json:"journey_id"`
	StepNumber        int       `db:"step_number" json:"step_number"`
	Channel           string    `db:"channel" json:"channel"`
	Recipient         string    `db:"recipient" json:"recipient"`
	RenderedContent   string    `db:"rendered_content" json:"rendered_content"`
	Status            string    `db:"status" json:"status"`
	ScheduledAt       time.Time `db:"scheduled_at" json:"scheduled_at"`
	AttemptCount      int       `db:"attempt_count" json:"attempt_count"`
	LastError         string    `db:"last_error" json:"last_error,omitempty"`
	CorrelationID     string    `db:"correlation_id" json:"correlation_id"`
	ProviderMessageID string    `db:"provider_message_id" json:"provider_message_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
