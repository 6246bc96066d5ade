package model_test

import (
	"testing"

	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

func TestStatusAdvances(t *testing.T) {
	forward := [][2]string{
		{model.StatusPending, model.StatusQueued},
		{model.StatusQueued, model.StatusSent},
		{model.StatusSent, model.StatusDelivered},
		{model.StatusDelivered, model.StatusOpened},
		{model.StatusOpened, model.StatusClicked},
		{model.StatusSent, model.StatusClicked}, // providers may skip intermediate states
		{model.StatusSent, model.StatusBounced},
		{model.StatusQueued, model.StatusFailed},
	}
	for _, tc := range forward {
		if !model.StatusAdvances(tc[0], tc[1]) {
			t.Errorf("%s -> %s should advance", tc[0], tc[1])
		}
	}

	blocked := [][2]string{
		{model.StatusOpened, model.StatusDelivered}, // late delivery callback
		{model.StatusClicked, model.StatusSent},
		{model.StatusSent, model.StatusSent},
		{model.StatusFailed, model.StatusDelivered}, // terminal states never move
		{model.StatusBounced, model.StatusClicked},
		{model.StatusFailed, model.StatusBounced},
	}
	for _, tc := range blocked {
		if model.StatusAdvances(tc[0], tc[1]) {
			t.Errorf("%s -> %s should not advance", tc[0], tc[1])
		}
	}
}

func TestTerminalFailureStatusPerChannel(t *testing.T) {
	if got := model.TerminalFailureStatus(model.ChannelEmail); got != model.StatusBounced {
		t.Errorf("email failures should bounce, got %q", got)
	}
	if got := model.TerminalFailureStatus(model.ChannelSMS); got != model.StatusFailed {
		t.Errorf("sms failures should fail, got %q", got)
	}
}
