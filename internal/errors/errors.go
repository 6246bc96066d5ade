// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
    CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
    return fmt.Sprintf("drip campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
    return &ErrCampaignNotFound{CampaignID: id}
}

type ErrJourneyNotFound struct {
    JourneyID int
}

func (e *ErrJourneyNotFound) Error() string {
    return fmt.Sprintf("journey with ID %d not found", e.JourneyID)
}

func NewJourneyNotFound(id int) error {
    return &ErrJourneyNotFound{JourneyID: id}
}

// ErrUnknownProviderMessage is returned by the reconciler when a webhook
// references a provider message id that was never recorded at send time.
type ErrUnknownProviderMessage struct {
    ProviderMessageID string
}

func (e *ErrUnknownProviderMessage) Error() string {
    return fmt.Sprintf("no message recorded for provider id %q", e.ProviderMessageID)
}

func NewUnknownProviderMessage(providerID string) error {
    return &ErrUnknownProviderMessage{ProviderMessageID: providerID}
}

// ErrInvalidRecipient marks a validation failure that must never be retried.
type ErrInvalidRecipient struct {
    Channel   string
    Recipient string
}

func (e *ErrInvalidRecipient) Error() string {
    return fmt.Sprintf("invalid %s recipient %q", e.Channel, e.Recipient)
}

func NewInvalidRecipient(channel, recipient string) error {
    return &ErrInvalidRecipient{Channel: channel, Recipient: recipient}
}
