package channel

import (
	"context"
	"regexp"

	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

// E.164: leading +, country code, 8-15 digits total.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

type SMSAdapter struct {
	SendFunc SendFunc
}

func NewSMSAdapter(send SendFunc) *SMSAdapter {
	return &SMSAdapter{SendFunc: send}
}

func (a *SMSAdapter) Channel() string {
	return model.ChannelSMS
}

func (a *SMSAdapter) Validate(address string) bool {
	return phonePattern.MatchString(address)
}

func (a *SMSAdapter) Send(ctx context.Context, address, content, correlationID string) (string, error) {
	return a.SendFunc(ctx, address, content, correlationID)
}
