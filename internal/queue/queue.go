package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicLeadCaptured carries trigger events from the capture endpoint to
// the worker that starts journeys.
const TopicLeadCaptured = "lead_captured"

// LeadCapturedEvent is the trigger payload: a lead entered a campaign.
type LeadCapturedEvent struct {
	LeadID     int       `json:"lead_id"`
	CampaignID int       `json:"campaign_id"`
	CapturedAt time.Time `json:"captured_at"`
}

// DecodeLeadCaptured normalizes a delivered payload: the in-memory queue
// hands the struct through as-is, AMQP hands raw JSON.
func DecodeLeadCaptured(payload any) (*LeadCapturedEvent, error) {
	switch v := payload.(type) {
	case LeadCapturedEvent:
		return &v, nil
	case *LeadCapturedEvent:
		return v, nil
	case json.RawMessage:
		var e LeadCapturedEvent
		if err := json.Unmarshal(v, &e); err != nil {
			return nil, err
		}
		return &e, nil
	}
	return nil, fmt.Errorf("unexpected lead_captured payload type %T", payload)
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue backs local runs and tests; production uses the AMQP
// implementation in amqp.go.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
	}
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		h := handler
		go func() {
			if err := h(payload); err != nil {
				q.logger.Warn("queue handler failed",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		}()
	}

	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
