package queue_test

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/o4villegas/lead-fuego-sub001/internal/queue"
)

func TestInMemoryQueuePublishSubscribe(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())

	received := make(chan queue.LeadCapturedEvent, 1)
	if err := q.Subscribe(queue.TopicLeadCaptured, func(payload any) error {
		event, err := queue.DecodeLeadCaptured(payload)
		if err != nil {
			return err
		}
		received <- *event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	event := queue.LeadCapturedEvent{LeadID: 7, CampaignID: 3, CapturedAt: time.Now()}
	if err := q.Publish(queue.TopicLeadCaptured, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.LeadID != 7 || got.CampaignID != 3 {
			t.Errorf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestPublishWithoutSubscribersFails(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())
	if err := q.Publish("nobody_home", queue.LeadCapturedEvent{}); err == nil {
		t.Fatal("expected an error when no subscribers exist")
	}
}

func TestDecodeLeadCaptured(t *testing.T) {
	want := queue.LeadCapturedEvent{LeadID: 1, CampaignID: 2}

	// struct and pointer, as the in-memory queue delivers them
	if got, err := queue.DecodeLeadCaptured(want); err != nil || got.LeadID != 1 {
		t.Errorf("struct payload: got %+v, err %v", got, err)
	}
	if got, err := queue.DecodeLeadCaptured(&want); err != nil || got.CampaignID != 2 {
		t.Errorf("pointer payload: got %+v, err %v", got, err)
	}

	// raw JSON, as the AMQP consumer delivers it
	raw, _ := json.Marshal(want)
	if got, err := queue.DecodeLeadCaptured(json.RawMessage(raw)); err != nil || got.LeadID != 1 || got.CampaignID != 2 {
		t.Errorf("raw payload: got %+v, err %v", got, err)
	}

	if _, err := queue.DecodeLeadCaptured(42); err == nil {
		t.Error("expected an error for a payload of the wrong type")
	}
}
