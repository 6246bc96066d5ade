package repository

import (
    "database/sql"
    "fmt"
    "time"

    appErrors "github.com/o4villegas/lead-fuego-sub001/internal/errors"
    "github.com/o4villegas/lead-fuego-sub001/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(c *model.DripCampaign, steps []model.DripStep) error
    GetByID(id int) (*model.DripCampaign, error)
    GetSteps(campaignID int) ([]model.DripStep, error)
    GetStep(campaignID, stepNumber int) (*model.DripStep, error)
    ListCampaigns(offset, limit int, active *bool) ([]*model.DripCampaign, int, error)
    SetActive(campaignID int, active bool) error
    GetCampaignStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
    DB *sql.DB
}

// Create inserts the campaign together with its ordered steps. Steps are
// written inside one transaction so a campaign is never visible half-built.
func (r *CampaignRepository) Create(c *model.DripCampaign, steps []model.DripStep) error {
    c.CreatedAt = time.Now()

    tx, err := r.DB.Begin()
    if err != nil {
        return err
    }
    defer tx.Rollback()

    query := `
        INSERT INTO drip_campaigns (name, active, skip_failed_steps, conversion_event, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
    if err := tx.QueryRow(query, c.Name, c.Active, c.SkipFailedSteps, c.ConversionEvent, c.CreatedAt).Scan(&c.ID); err != nil {
        return err
    }

    stepQuery := `
        INSERT INTO drip_steps (campaign_id, step_number, channel, delay_minutes, template)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
    for i := range steps {
        steps[i].CampaignID = c.ID
        if err := tx.QueryRow(stepQuery, c.ID, steps[i].StepNumber, steps[i].Channel, steps[i].DelayMinutes, steps[i].Template).Scan(&steps[i].ID); err != nil {
            return err
        }
    }

    return tx.Commit()
}

func (r *CampaignRepository) GetByID(id int) (*model.DripCampaign, error) {
    query := `
        SELECT id, name, active, skip_failed_steps, conversion_event, created_at, updated_at
        FROM drip_campaigns WHERE id=$1
    `
    var c model.DripCampaign
    err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Active, &c.SkipFailedSteps, &c.ConversionEvent, &c.CreatedAt, &c.UpdatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    return &c, nil
}

// GetSteps returns the campaign's steps ordered by step_number.
func (r *CampaignRepository) GetSteps(campaignID int) ([]model.DripStep, error) {
    query := `
        SELECT id, campaign_id, step_number, channel, delay_minutes, template
        FROM drip_steps
        WHERE campaign_id=$1
        ORDER BY step_number ASC
    `
    rows, err := r.DB.Query(query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    steps := []model.DripStep{}
    for rows.Next() {
        var s model.DripStep
        if err := rows.Scan(&s.ID, &s.CampaignID, &s.StepNumber, &s.Channel, &s.DelayMinutes, &s.Template); err != nil {
            return nil, err
        }
        steps = append(steps, s)
    }
    return steps, rows.Err()
}

// GetStep fetches one step; returns (nil, nil) when the step number does
// not exist, which the scheduler reads as "journey complete".
func (r *CampaignRepository) GetStep(campaignID, stepNumber int) (*model.DripStep, error) {
    query := `
        SELECT id, campaign_id, step_number, channel, delay_minutes, template
        FROM drip_steps
        WHERE campaign_id=$1 AND step_number=$2
    `
    var s model.DripStep
    err := r.DB.QueryRow(query, campaignID, stepNumber).Scan(&s.ID, &s.CampaignID, &s.StepNumber, &s.Channel, &s.DelayMinutes, &s.Template)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &s, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, active *bool) ([]*model.DripCampaign, int, error) {
    campaigns := []*model.DripCampaign{}
    query := `SELECT id, name, active, skip_failed_steps, conversion_event, created_at, updated_at FROM drip_campaigns WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if active != nil {
        query += fmt.Sprintf(" AND active=$%d", argPos)
        args = append(args, *active)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c := &model.DripCampaign{}
        if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.SkipFailedSteps, &c.ConversionEvent, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }

    // Count total
    countQuery := `SELECT COUNT(*) FROM drip_campaigns WHERE 1=1`
    argsCount := []interface{}{}
    if active != nil {
        countQuery += " AND active=$1"
        argsCount = append(argsCount, *active)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return campaigns, total, nil
}

// SetActive pauses (false) or resumes (true) the whole campaign. The
// processor skips messages of paused campaigns at claim time.
func (r *CampaignRepository) SetActive(campaignID int, active bool) error {
    query := `UPDATE drip_campaigns SET active=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.Exec(query, active, campaignID)
    return err
}

// GetCampaignStats counts the campaign's messages by status across all
// of its journeys.
func (r *CampaignRepository) GetCampaignStats(campaignID int) (map[string]int, error) {
    query := `
        SELECT m.status, COUNT(*)
        FROM messages m
        JOIN lead_journeys j ON j.id = m.journey_id
        WHERE j.campaign_id=$1
        GROUP BY m.status
    `
    rows, err := r.DB.Query(query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{
        model.StatusPending:   0,
        model.StatusQueued:    0,
        model.StatusSent:      0,
        model.StatusDelivered: 0,
        model.StatusOpened:    0,
        model.StatusClicked:   0,
        model.StatusFailed:    0,
        model.StatusBounced:   0,
    }
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
