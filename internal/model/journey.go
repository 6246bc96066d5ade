package model

import "time"

// Journey lifecycle states.
const (
	JourneyActive    = "active"
	JourneyCompleted = "completed"
	JourneyPaused    = "paused"
	JourneyFailed    = "failed"
)

// LeadJourney tracks one lead's progress through one campaign.
// There is at most one journey per (lead, campaign) pair.
type LeadJourney struct {
	ID                int        `db:"id" json:"id"`
	LeadID            int        `db:"lead_id" json:"lead_id"`
	CampaignID        int        `db:"campaign_id" json:"campaign_id"`
	CurrentStep       int        `db:"current_step" json:"current_step"` // 0 = no step completed yet
	Status            string     `db:"status" json:"status"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	LastInteractionAt *time.Time `db:"last_interaction_at" json:"last_interaction_at,omitempty"`
	SMSSent           int        `db:"sms_sent" json:"sms_sent"`
	EmailSent         int        `db:"email_sent" json:"email_sent"`
	Opens             int        `db:"opens" json:"opens"`
	Clicks            int        `db:"clicks" json:"clicks"`
	Converted         bool       `db:"converted" json:"converted"`
}
