package model

import "time"

// Supported message channels.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type DripCampaign struct {
	ID              int        `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Active          bool       `db:"active" json:"active"`
	SkipFailedSteps bool       `db:"skip_failed_steps" json:"skip_failed_steps"`
	ConversionEvent string     `db:"conversion_event" json:"conversion_event,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DripStep is one ordered unit of a campaign. StepNumber values for a
// campaign are dense and start at 1.
type DripStep struct {
	ID           int    `db:"id" json:"id"`
	CampaignID   int    `db:"campaign_id" json:"campaign_id"`
	StepNumber   int    `db:"step_number" json:"step_number"`
	Channel      string `db:"channel" json:"channel"` // sms, email
	DelayMinutes int    `db:"delay_minutes" json:"delay_minutes"`
	Template     string `db:"template" json:"template"`
}

// Delay is the wait measured from the previous step's completion
// (journey start for step 1).
func (s *DripStep) Delay() time.Duration {
	return time.Duration(s.DelayMinutes) * time.Minute
}
