// internal/service/campaign_service.go
package service

import (
    "fmt"
    "time"

    "go.uber.org/zap"

    "github.com/o4villegas/lead-fuego-sub001/internal/model"
    "github.com/o4villegas/lead-fuego-sub001/internal/queue"
    "github.com/o4villegas/lead-fuego-sub001/internal/repository"
)

// CampaignService owns the drip campaign surface: definitions, pause and
// resume, stats, and the lead-capture trigger that starts journeys.
type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    LeadRepo     repository.LeadRepositoryInterface
    JourneyRepo  repository.JourneyRepositoryInterface
    Queue        queue.Queue
    Logger       *zap.Logger
    Now          func() time.Time
}

// StepInput is one step of an incoming campaign definition.
type StepInput struct {
    StepNumber   int    `json:"step_number"`
    Channel      string `json:"channel"`
    DelayMinutes int    `json:"delay_minutes"`
    Template     string `json:"template"`
}

type CampaignDetails struct {
    ID              int              `json:"id"`
    Name            string           `json:"name"`
    Active          bool             `json:"active"`
    SkipFailedSteps bool             `json:"skip_failed_steps"`
    ConversionEvent string           `json:"conversion_event,omitempty"`
    CreatedAt       time.Time        `json:"created_at"`
    UpdatedAt       *time.Time       `json:"updated_at"`
    Steps           []model.DripStep `json:"steps"`
    Stats           map[string]int   `json:"stats"`
}

func (s *CampaignService) now() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// ValidateSteps enforces the shape the scheduler depends on: at least one
// step, step numbers dense from 1, known channels, non-negative delays.
func ValidateSteps(steps []StepInput) error {
    if len(steps) == 0 {
        return fmt.Errorf("campaign needs at least one step")
    }
    for i, step := range steps {
        if step.StepNumber != i+1 {
            return fmt.Errorf("step numbers must be contiguous starting at 1, got %d at position %d", step.StepNumber, i+1)
        }
        if step.Channel != model.ChannelSMS && step.Channel != model.ChannelEmail {
            return fmt.Errorf("step %d: unknown channel %q", step.StepNumber, step.Channel)
        }
        if step.DelayMinutes < 0 {
            return fmt.Errorf("step %d: delay cannot be negative", step.StepNumber)
        }
        if step.Template == "" {
            return fmt.Errorf("step %d: template cannot be empty", step.StepNumber)
        }
    }
    return nil
}

func (s *CampaignService) CreateCampaign(name string, skipFailedSteps bool, conversionEvent string, steps []StepInput) (*model.DripCampaign, []model.DripStep, error) {
    if name == "" {
        return nil, nil, fmt.Errorf("campaign name cannot be empty")
    }
    if err := ValidateSteps(steps); err != nil {
        return nil, nil, err
    }

    c := &model.DripCampaign{
        Name:            name,
        Active:          true,
        SkipFailedSteps: skipFailedSteps,
        ConversionEvent: conversionEvent,
    }
    dripSteps := make([]model.DripStep, len(steps))
    for i, step := range steps {
        dripSteps[i] = model.DripStep{
            StepNumber:   step.StepNumber,
            Channel:      step.Channel,
            DelayMinutes: step.DelayMinutes,
            Template:     step.Template,
        }
    }

    if err := s.CampaignRepo.Create(c, dripSteps); err != nil {
        return nil, nil, err
    }
    return c, dripSteps, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, active *bool) ([]model.DripCampaign, map[string]int, error) {
    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, active)
    if err != nil {
        return nil, nil, err
    }

    campaigns := make([]model.DripCampaign, len(ptrs))
    for i, c := range ptrs {
        campaigns[i] = *c
    }

    totalPages := (total + pageSize - 1) / pageSize
    pagination := map[string]int{
        "page":        page,
        "page_size":   pageSize,
        "total_count": total,
        "total_pages": totalPages,
    }

    return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
    campaign, err := s.CampaignRepo.GetByID(campaignID)
    if err != nil {
        return nil, err
    }

    steps, err := s.CampaignRepo.GetSteps(campaignID)
    if err != nil {
        return nil, err
    }

    stats, err := s.CampaignRepo.GetCampaignStats(campaignID)
    if err != nil {
        return nil, err
    }

    return &CampaignDetails{
        ID:              campaign.ID,
        Name:            campaign.Name,
        Active:          campaign.Active,
        SkipFailedSteps: campaign.SkipFailedSteps,
        ConversionEvent: campaign.ConversionEvent,
        CreatedAt:       campaign.CreatedAt,
        UpdatedAt:       campaign.UpdatedAt,
        Steps:           steps,
        Stats:           stats,
    }, nil
}

// SetActive pauses or resumes the whole campaign. Journeys keep their
// state; the processor just stops claiming their messages while paused.
func (s *CampaignService) SetActive(campaignID int, active bool) error {
    if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
        return err
    }
    return s.CampaignRepo.SetActive(campaignID, active)
}

// CaptureLead publishes the trigger event that starts the lead's journey
// through the campaign. The worker consumes it and calls the scheduler.
func (s *CampaignService) CaptureLead(leadID, campaignID int) (*queue.LeadCapturedEvent, error) {
    campaign, err := s.CampaignRepo.GetByID(campaignID)
    if err != nil {
        return nil, err
    }
    if !campaign.Active {
        return nil, fmt.Errorf("campaign %d is not active", campaignID)
    }

    lead, err := s.LeadRepo.GetByID(leadID)
    if err != nil {
        return nil, err
    }
    if lead == nil {
        return nil, fmt.Errorf("lead %d not found", leadID)
    }

    event := &queue.LeadCapturedEvent{
        LeadID:     leadID,
        CampaignID: campaignID,
        CapturedAt: s.now(),
    }
    if err := s.Queue.Publish(queue.TopicLeadCaptured, *event); err != nil {
        return nil, err
    }

    s.Logger.Info("lead captured",
        zap.Int("lead_id", leadID),
        zap.Int("campaign_id", campaignID),
    )
    return event, nil
}
