package channel

import (
	"context"
	"net/mail"
	"strings"

	"github.com/o4villegas/lead-fuego-sub001/internal/model"
)

type EmailAdapter struct {
	SendFunc SendFunc
}

func NewEmailAdapter(send SendFunc) *EmailAdapter {
	return &EmailAdapter{SendFunc: send}
}

func (a *EmailAdapter) Channel() string {
	return model.ChannelEmail
}

func (a *EmailAdapter) Validate(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	// reject display-name forms, the stored recipient must be bare
	if parsed.Address != address {
		return false
	}
	at := strings.LastIndex(address, "@")
	return strings.Contains(address[at+1:], ".")
}

func (a *EmailAdapter) Send(ctx context.Context, address, content, correlationID string) (string, error) {
	return a.SendFunc(ctx, address, content, correlationID)
}
