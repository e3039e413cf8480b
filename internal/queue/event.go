// Package queue carries confirmation requests over RabbitMQ so email delivery
// runs outside the request path.
package queue

import (
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/google/uuid"
)

const ConfirmationQueueName = "newsletter.confirmation"

// ConfirmationRequestedEvent is published when a subscriber needs a confirmation link.
type ConfirmationRequestedEvent struct {
	SubscriptionID string  `json:"subscription_id"`
	Email          string  `json:"email"`
	Hostname       string  `json:"hostname"`
	ListName       string  `json:"list_name"`
	PersonName     *string `json:"person_name,omitempty"`
	Token          string  `json:"token"`
	ExpiresAt      string  `json:"expires_at"`
}

func NewConfirmationRequestedEvent(request service.ConfirmationRequest) ConfirmationRequestedEvent {
	return ConfirmationRequestedEvent{
		SubscriptionID: request.SubscriptionID.String(),
		Email:          request.Email,
		Hostname:       request.Hostname,
		ListName:       request.ListName,
		PersonName:     request.PersonName,
		Token:          request.Token,
		ExpiresAt:      request.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func (e ConfirmationRequestedEvent) Request() (service.ConfirmationRequest, error) {
	subscriptionID, err := uuid.Parse(e.SubscriptionID)
	if err != nil {
		return service.ConfirmationRequest{}, err
	}
	expiresAt, err := time.Parse(time.RFC3339, e.ExpiresAt)
	if err != nil {
		return service.ConfirmationRequest{}, err
	}
	return service.ConfirmationRequest{
		SubscriptionID: subscriptionID,
		Email:          e.Email,
		Hostname:       e.Hostname,
		ListName:       e.ListName,
		PersonName:     e.PersonName,
		Token:          e.Token,
		ExpiresAt:      expiresAt,
	}, nil
}
