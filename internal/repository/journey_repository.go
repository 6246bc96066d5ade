package repository

import (
    "database/sql"
    "fmt"
    "time"

    appErrors "github.com/o4villegas/lead-fuego-sub001/internal/errors"
    "github.com/o4villegas/lead-fuego-sub001/internal/model"
)

type JourneyRepositoryInterface interface {
    Create(j *model.LeadJourney) (bool, error)
    GetByID(id int) (*model.LeadJourney, error)
    GetByLeadAndCampaign(leadID, campaignID int) (*model.LeadJourney, error)
    AdvanceStep(journeyID, fromStep int) (bool, error)
    MarkCompleted(journeyID int, at time.Time) error
    MarkFailed(journeyID int) error
    IncrementSent(journeyID int, channel string) error
    RecordEngagement(journeyID int, status string, at time.Time) error
    MarkConverted(journeyID int, at time.Time) error
}

type JourneyRepository struct {
    DB *sql.DB
}

const journeyColumns = `id, lead_id, campaign_id, current_step, status, started_at,
        completed_at, last_interaction_at, sms_sent, email_sent, opens, clicks, converted`

// Create inserts a new journey at step 0. The (lead_id, campaign_id)
// unique constraint makes the trigger idempotent: a duplicate capture
// returns the existing journey with created=false.
func (r *JourneyRepository) Create(j *model.LeadJourney) (bool, error) {
    query := `
        INSERT INTO lead_journeys (lead_id, campaign_id, current_step, status, started_at)
        VALUES ($1, $2, 0, 'active', $3)
        ON CONFLICT (lead_id, campaign_id) DO NOTHING
        RETURNING id
    `
    err := r.DB.QueryRow(query, j.LeadID, j.CampaignID, j.StartedAt).Scan(&j.ID)
    if err == nil {
        j.CurrentStep = 0
        j.Status = model.JourneyActive
        return true, nil
    }
    if err != sql.ErrNoRows {
        return false, err
    }

    existing, err := r.GetByLeadAndCampaign(j.LeadID, j.CampaignID)
    if err != nil {
        return false, err
    }
    if existing == nil {
        return false, fmt.Errorf("journey insert conflicted but no row found for lead %d campaign %d", j.LeadID, j.CampaignID)
    }
    *j = *existing
    return false, nil
}

func (r *JourneyRepository) scanRow(row *sql.Row) (*model.LeadJourney, error) {
    var j model.LeadJourney
    err := row.Scan(
        &j.ID, &j.LeadID, &j.CampaignID, &j.CurrentStep, &j.Status, &j.StartedAt,
        &j.CompletedAt, &j.LastInteractionAt, &j.SMSSent, &j.EmailSent, &j.Opens, &j.Clicks, &j.Converted,
    )
    if err != nil {
        return nil, err
    }
    return &j, nil
}

func (r *JourneyRepository) GetByID(id int) (*model.LeadJourney, error) {
    query := `SELECT ` + journeyColumns + ` FROM lead_journeys WHERE id=$1`
    j, err := r.scanRow(r.DB.QueryRow(query, id))
    if err == sql.ErrNoRows {
        return nil, appErrors.NewJourneyNotFound(id)
    }
    return j, err
}

func (r *JourneyRepository) GetByLeadAndCampaign(leadID, campaignID int) (*model.LeadJourney, error) {
    query := `SELECT ` + journeyColumns + ` FROM lead_journeys WHERE lead_id=$1 AND campaign_id=$2`
    j, err := r.scanRow(r.DB.QueryRow(query, leadID, campaignID))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return j, err
}

// AdvanceStep bumps current_step by exactly one, guarded on the step the
// caller observed. A false return means another writer got there first.
func (r *JourneyRepository) AdvanceStep(journeyID, fromStep int) (bool, error) {
    query := `
        UPDATE lead_journeys
        SET current_step = current_step + 1
        WHERE id=$1 AND current_step=$2 AND status='active'
    `
    res, err := r.DB.Exec(query, journeyID, fromStep)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

func (r *JourneyRepository) MarkCompleted(journeyID int, at time.Time) error {
    query := `UPDATE lead_journeys SET status='completed', completed_at=$1 WHERE id=$2 AND status='active'`
    _, err := r.DB.Exec(query, at, journeyID)
    return err
}

func (r *JourneyRepository) MarkFailed(journeyID int) error {
    query := `UPDATE lead_journeys SET status='failed' WHERE id=$1 AND status='active'`
    _, err := r.DB.Exec(query, journeyID)
    return err
}

func (r *JourneyRepository) IncrementSent(journeyID int, channel string) error {
    column := "sms_sent"
    if channel == model.ChannelEmail {
        column = "email_sent"
    }
    query := fmt.Sprintf(`UPDATE lead_journeys SET %s = %s + 1 WHERE id=$1`, column, column)
    _, err := r.DB.Exec(query, journeyID)
    return err
}

// RecordEngagement bumps the counter matching the callback status and
// refreshes last_interaction_at. Delivered only touches the timestamp.
func (r *JourneyRepository) RecordEngagement(journeyID int, status string, at time.Time) error {
    var query string
    switch status {
    case model.StatusOpened:
        query = `UPDATE lead_journeys SET opens = opens + 1, last_interaction_at=$1 WHERE id=$2`
    case model.StatusClicked:
        query = `UPDATE lead_journeys SET clicks = clicks + 1, last_interaction_at=$1 WHERE id=$2`
    case model.StatusDelivered:
        query = `UPDATE lead_journeys SET last_interaction_at=$1 WHERE id=$2`
    default:
        return nil
    }
    _, err := r.DB.Exec(query, at, journeyID)
    return err
}

// MarkConverted sets the conversion marker and completes the journey
// early. This is the only completion path besides step exhaustion.
func (r *JourneyRepository) MarkConverted(journeyID int, at time.Time) error {
    query := `
        UPDATE lead_journeys
        SET converted=TRUE, status='completed', completed_at=$1
        WHERE id=$2 AND NOT converted
    `
    _, err := r.DB.Exec(query, at, journeyID)
    return err
}

var _ JourneyRepositoryInterface = (*JourneyRepository)(nil)
