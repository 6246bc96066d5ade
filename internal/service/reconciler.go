// internal/service/reconciler.go
package service

import (
    "fmt"
    "time"

    "go.uber.org/zap"

    appErrors "github.com/o4villegas/lead-fuego-sub001/internal/errors"
    "github.com/o4villegas/lead-fuego-sub001/internal/model"
    "github.com/o4villegas/lead-fuego-sub001/internal/repository"
)

// ProviderEvent is the minimal envelope the engine needs from a provider
// callback, after the handler has verified the signature.
type ProviderEvent struct {
    Provider          string    `json:"provider"`
    ProviderMessageID string    `json:"provider_message_id"`
    EventType         string    `json:"event_type"`
    OccurredAt        time.Time `json:"occurred_at"`
}

// EventConversion completes a journey early regardless of remaining steps.
const EventConversion = "conversion"

// eventStatus maps provider event names onto message statuses.
var eventStatus = map[string]string{
    "sent":      model.StatusSent,
    "delivered": model.StatusDelivered,
    "open":      model.StatusOpened,
    "opened":    model.StatusOpened,
    "click":     model.StatusClicked,
    "clicked":   model.StatusClicked,
    "bounce":    model.StatusBounced,
    "bounced":   model.StatusBounced,
    "failed":    model.StatusFailed,
}

// Reconciler folds asynchronous provider callbacks back into message and
// journey state. It runs per inbound request, concurrently with the
// processor, and makes no ordering assumptions about either.
type Reconciler struct {
    MessageRepo  repository.MessageRepositoryInterface
    JourneyRepo  repository.JourneyRepositoryInterface
    CampaignRepo repository.CampaignRepositoryInterface
    Logger       *zap.Logger

    Now func() time.Time
}

func (r *Reconciler) now() time.Time {
    if r.Now != nil {
        return r.Now()
    }
    return time.Now()
}

// Ingest applies one verified provider event. Transitions only ever move
// the message forward in its lifecycle; stale or out-of-order callbacks
// are silent no-ops. Unknown provider message ids are rejected without
// touching any state.
func (r *Reconciler) Ingest(event ProviderEvent) error {
    msg, err := r.MessageRepo.GetByProviderID(event.ProviderMessageID)
    if err != nil {
        return err
    }
    if msg == nil {
        return appErrors.NewUnknownProviderMessage(event.ProviderMessageID)
    }

    journey, err := r.JourneyRepo.GetByID(msg.JourneyID)
    if err != nil {
        return err
    }
    campaign, err := r.CampaignRepo.GetByID(journey.CampaignID)
    if err != nil {
        return err
    }

    if event.EventType == EventConversion || (campaign.ConversionEvent != "" && event.EventType == campaign.ConversionEvent) {
        if err := r.convert(journey, event); err != nil {
            return err
        }
    }
    if event.EventType == EventConversion {
        return nil
    }

    target, ok := eventStatus[event.EventType]
    if !ok {
        return fmt.Errorf("unrecognized provider event type %q", event.EventType)
    }

    applied, err := r.applyTransition(msg, target)
    if err != nil {
        return err
    }
    if !applied {
        r.Logger.Debug("stale provider event ignored",
            zap.String("provider_message_id", event.ProviderMessageID),
            zap.String("event_type", event.EventType),
            zap.String("current_status", msg.Status),
        )
        return nil
    }

    switch target {
    case model.StatusDelivered, model.StatusOpened, model.StatusClicked:
        when := event.OccurredAt
        if when.IsZero() {
            when = r.now()
        }
        if err := r.JourneyRepo.RecordEngagement(journey.ID, target, when); err != nil {
            return err
        }
    }
    return nil
}

// applyTransition compare-and-swaps the message status forward. A lost
// race means someone else moved the message; re-read and re-decide so a
// callback racing the processor's own "sent" write still lands.
func (r *Reconciler) applyTransition(msg *model.Message, target string) (bool, error) {
    for i := 0; i < 3; i++ {
        if !model.StatusAdvances(msg.Status, target) {
            return false, nil
        }
        ok, err := r.MessageRepo.TransitionStatus(msg.ID, msg.Status, target)
        if err != nil {
            return false, err
        }
        if ok {
            return true, nil
        }
        fresh, err := r.MessageRepo.GetByID(msg.ID)
        if err != nil {
            return false, err
        }
        if fresh == nil {
            return false, appErrors.NewJourneyNotFound(msg.JourneyID)
        }
        msg = fresh
    }
    return false, nil
}

func (r *Reconciler) convert(journey *model.LeadJourney, event ProviderEvent) error {
    if journey.Converted {
        return nil
    }
    at := event.OccurredAt
    if at.IsZero() {
        at = r.now()
    }
    if err := r.JourneyRepo.MarkConverted(journey.ID, at); err != nil {
        return err
    }
    r.Logger.Info("journey converted",
        zap.Int("journey_id", journey.ID),
        zap.String("event_type", event.EventType),
    )
    return nil
}
