// internal/service/scheduler.go
package service

import (
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/o4villegas/lead-fuego-sub001/internal/model"
    "github.com/o4villegas/lead-fuego-sub001/internal/repository"
)

// Scheduler turns a journey's next step into a concrete pending message,
// or completes the journey when no step is left.
type Scheduler struct {
    CampaignRepo repository.CampaignRepositoryInterface
    LeadRepo     repository.LeadRepositoryInterface
    JourneyRepo  repository.JourneyRepositoryInterface
    MessageRepo  repository.MessageRepositoryInterface
    Logger       *zap.Logger

    // Now is injected so tests can drive scheduling deterministically.
    Now func() time.Time
}

// ScheduleResult reports what ScheduleNextStep did.
type ScheduleResult struct {
    Completed bool
    Created   bool
    Message   *model.Message
}

func (s *Scheduler) now() time.Time {
    if s.Now != nil {
        return s.Now()
    }
    return time.Now()
}

// StartJourney creates (or finds) the journey for a captured lead and
// schedules its first step. Safe to call twice for the same capture: the
// journey and the step-1 message are both idempotent inserts.
func (s *Scheduler) StartJourney(leadID, campaignID int, triggerTime time.Time) (*model.LeadJourney, error) {
    campaign, err := s.CampaignRepo.GetByID(campaignID)
    if err != nil {
        return nil, err
    }
    if !campaign.Active {
        return nil, fmt.Errorf("campaign %d is not active", campaignID)
    }

    journey := &model.LeadJourney{
        LeadID:     leadID,
        CampaignID: campaignID,
        StartedAt:  triggerTime,
    }
    created, err := s.JourneyRepo.Create(journey)
    if err != nil {
        return nil, err
    }
    if !created {
        s.Logger.Info("journey already exists for lead, not restarting",
            zap.Int("lead_id", leadID),
            zap.Int("campaign_id", campaignID),
            zap.Int("journey_id", journey.ID),
        )
    }
    if journey.Status != model.JourneyActive {
        return journey, nil
    }

    // Step 1's delay is measured from the trigger time.
    if _, err := s.ScheduleNextStep(journey, triggerTime); err != nil {
        return journey, err
    }
    return journey, nil
}

// ScheduleNextStep looks up current_step+1 and inserts its pending
// message, due at completedAt + step delay. completedAt is the moment the
// previous step was marked sent (the trigger time for step 1), so
// scheduling does not drift with processor latency. When no next step
// exists the journey is marked completed and no message is created.
func (s *Scheduler) ScheduleNextStep(journey *model.LeadJourney, completedAt time.Time) (*ScheduleResult, error) {
    nextStep := journey.CurrentStep + 1
    step, err := s.CampaignRepo.GetStep(journey.CampaignID, nextStep)
    if err != nil {
        return nil, err
    }
    if step == nil {
        if err := s.JourneyRepo.MarkCompleted(journey.ID, s.now()); err != nil {
            return nil, err
        }
        journey.Status = model.JourneyCompleted
        s.Logger.Info("journey completed",
            zap.Int("journey_id", journey.ID),
            zap.Int("steps_completed", journey.CurrentStep),
        )
        return &ScheduleResult{Completed: true}, nil
    }

    lead, err := s.LeadRepo.GetByID(journey.LeadID)
    if err != nil {
        return nil, err
    }
    if lead == nil {
        return nil, fmt.Errorf("lead %d not found for journey %d", journey.LeadID, journey.ID)
    }

    msg := &model.Message{
        JourneyID:       journey.ID,
        StepNumber:      step.StepNumber,
        Channel:         step.Channel,
        Recipient:       lead.Address(step.Channel),
        RenderedContent: RenderForLead(step.Template, lead),
        Status:          model.StatusPending,
        ScheduledAt:     completedAt.Add(step.Delay()),
        CorrelationID:   uuid.NewString(),
    }
    created, err := s.MessageRepo.Insert(msg)
    if err != nil {
        return nil, err
    }
    if !created {
        // a concurrent scheduler got here first, nothing to do
        return &ScheduleResult{Created: false}, nil
    }

    s.Logger.Info("scheduled step",
        zap.Int("journey_id", journey.ID),
        zap.Int("step_number", step.StepNumber),
        zap.String("channel", step.Channel),
        zap.Time("scheduled_at", msg.ScheduledAt),
    )
    return &ScheduleResult{Created: true, Message: msg}, nil
}
