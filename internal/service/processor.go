// internal/service/processor.go
package service

import (
    "context"
    "errors"
    "time"

    "go.uber.org/zap"

    "github.com/o4villegas/lead-fuego-sub001/internal/channel"
    "github.com/o4villegas/lead-fuego-sub001/internal/model"
    "github.com/o4villegas/lead-fuego-sub001/internal/repository"
)

// Processor is the batch job that claims due messages and sends them.
// It is invoked on a fixed interval and invocations may overlap; the
// conditional claim in the message repository is what keeps a message
// from being sent twice, not any lock held here.
type Processor struct {
    MessageRepo  repository.MessageRepositoryInterface
    JourneyRepo  repository.JourneyRepositoryInterface
    CampaignRepo repository.CampaignRepositoryInterface
    Scheduler    *Scheduler
    Adapters     []channel.Adapter
    Logger       *zap.Logger

    BatchSize   int
    MaxRetries  int
    BackoffBase time.Duration
    BackoffCap  time.Duration
    BatchDelay  time.Duration
    SendTimeout time.Duration

    Now func() time.Time
}

// RunSummary is the observable output of one processor run.
type RunSummary struct {
    Sent    int `json:"sent"`
    Failed  int `json:"failed"`
    Retried int `json:"retried"`
    Skipped int `json:"skipped"`
}

func (p *Processor) now() time.Time {
    if p.Now != nil {
        return p.Now()
    }
    return time.Now()
}

// Backoff computes the requeue delay for the given attempt count:
// base * 2^attempt, capped.
func (p *Processor) Backoff(attempt int) time.Duration {
    d := p.BackoffBase
    for i := 0; i < attempt; i++ {
        d *= 2
        if d >= p.BackoffCap {
            return p.BackoffCap
        }
    }
    if d > p.BackoffCap {
        d = p.BackoffCap
    }
    return d
}

// Run processes one batch per channel. Per-message failures are recorded
// on the message and never abort the run; a storage failure aborts the
// whole run and the next invocation picks the batch up again.
func (p *Processor) Run(ctx context.Context) (*RunSummary, error) {
    summary := &RunSummary{}
    for i, adapter := range p.Adapters {
        if i > 0 && p.BatchDelay > 0 {
            // throttle between channel batches
            select {
            case <-time.After(p.BatchDelay):
            case <-ctx.Done():
                return summary, ctx.Err()
            }
        }
        if err := p.runChannel(ctx, adapter, summary); err != nil {
            return summary, err
        }
    }
    return summary, nil
}

func (p *Processor) runChannel(ctx context.Context, adapter channel.Adapter, summary *RunSummary) error {
    now := p.now()
    due, err := p.MessageRepo.SelectDue(adapter.Channel(), now, p.BatchSize)
    if err != nil {
        return err
    }

    for _, msg := range due {
        journey, err := p.JourneyRepo.GetByID(msg.JourneyID)
        if err != nil {
            p.Logger.Warn("skipping message, journey lookup failed",
                zap.Int("message_id", msg.ID), zap.Error(err))
            summary.Skipped++
            continue
        }
        // paused/failed/completed journeys never get new sends
        if journey.Status != model.JourneyActive {
            summary.Skipped++
            continue
        }

        campaign, err := p.CampaignRepo.GetByID(journey.CampaignID)
        if err != nil {
            p.Logger.Warn("skipping message, campaign lookup failed",
                zap.Int("message_id", msg.ID), zap.Error(err))
            summary.Skipped++
            continue
        }
        if !campaign.Active {
            summary.Skipped++
            continue
        }

        claimed, err := p.MessageRepo.Claim(msg.ID)
        if err != nil {
            return err
        }
        if !claimed {
            // another run owns it, not an error
            continue
        }

        p.deliver(ctx, adapter, msg, journey, campaign, summary)
    }
    return nil
}

// deliver sends one claimed message and settles its outcome. Errors here
// are per-message: they land on the message row, not on the run.
func (p *Processor) deliver(ctx context.Context, adapter channel.Adapter, msg *model.Message, journey *model.LeadJourney, campaign *model.DripCampaign, summary *RunSummary) {
    if !adapter.Validate(msg.Recipient) {
        // invalid data can never succeed on retry: terminal, attempt_count untouched
        status := model.TerminalFailureStatus(msg.Channel)
        if err := p.MessageRepo.MarkTerminal(msg.ID, status, "invalid recipient: "+msg.Recipient); err != nil {
            p.Logger.Error("failed to record validation failure", zap.Int("message_id", msg.ID), zap.Error(err))
            return
        }
        summary.Failed++
        p.settleFailedStep(msg, journey, campaign)
        return
    }

    sendCtx, cancel := context.WithTimeout(ctx, p.SendTimeout)
    providerID, err := adapter.Send(sendCtx, msg.Recipient, msg.RenderedContent, msg.CorrelationID)
    cancel()

    if err == nil {
        sentAt := p.now()
        if err := p.MessageRepo.MarkSent(msg.ID, providerID, sentAt); err != nil {
            p.Logger.Error("send succeeded but status write failed",
                zap.Int("message_id", msg.ID), zap.Error(err))
            return
        }
        if err := p.JourneyRepo.IncrementSent(journey.ID, msg.Channel); err != nil {
            p.Logger.Error("failed to bump sent counter", zap.Int("journey_id", journey.ID), zap.Error(err))
        }
        p.advanceAndSchedule(msg, journey, sentAt)
        summary.Sent++
        return
    }

    // a timed-out send may still land provider-side; retrying is the
    // lesser evil given the provider dedupes on correlation id
    retryable := channel.Retryable(err) || errors.Is(err, context.DeadlineExceeded)
    if retryable && msg.AttemptCount < p.MaxRetries {
        attempt := msg.AttemptCount + 1
        nextAt := p.now().Add(p.Backoff(attempt))
        if err := p.MessageRepo.Requeue(msg.ID, attempt, nextAt, err.Error()); err != nil {
            p.Logger.Error("failed to requeue message", zap.Int("message_id", msg.ID), zap.Error(err))
            return
        }
        summary.Retried++
        p.Logger.Info("message requeued",
            zap.Int("message_id", msg.ID),
            zap.Int("attempt", attempt),
            zap.Time("next_at", nextAt),
        )
        return
    }

    status := model.TerminalFailureStatus(msg.Channel)
    if terr := p.MessageRepo.MarkTerminal(msg.ID, status, err.Error()); terr != nil {
        p.Logger.Error("failed to record terminal failure", zap.Int("message_id", msg.ID), zap.Error(terr))
        return
    }
    summary.Failed++
    p.Logger.Warn("message permanently failed",
        zap.Int("message_id", msg.ID),
        zap.Int("attempts", msg.AttemptCount),
        zap.String("error", err.Error()),
    )
    p.settleFailedStep(msg, journey, campaign)
}

// advanceAndSchedule moves the journey past the step just sent and asks
// the scheduler for the next one, anchored at the send time.
func (p *Processor) advanceAndSchedule(msg *model.Message, journey *model.LeadJourney, completedAt time.Time) {
    advanced, err := p.JourneyRepo.AdvanceStep(journey.ID, msg.StepNumber-1)
    if err != nil {
        p.Logger.Error("failed to advance journey", zap.Int("journey_id", journey.ID), zap.Error(err))
        return
    }
    if !advanced {
        // journey moved underneath us (pause or concurrent advance)
        return
    }
    journey.CurrentStep = msg.StepNumber

    if _, err := p.Scheduler.ScheduleNextStep(journey, completedAt); err != nil {
        p.Logger.Error("failed to schedule next step", zap.Int("journey_id", journey.ID), zap.Error(err))
    }
}

// settleFailedStep applies the campaign's failure policy after a terminal
// message failure: either skip past the step or fail the whole journey.
func (p *Processor) settleFailedStep(msg *model.Message, journey *model.LeadJourney, campaign *model.DripCampaign) {
    if campaign.SkipFailedSteps {
        p.advanceAndSchedule(msg, journey, p.now())
        return
    }
    if err := p.JourneyRepo.MarkFailed(journey.ID); err != nil {
        p.Logger.Error("failed to mark journey failed", zap.Int("journey_id", journey.ID), zap.Error(err))
    }
}
