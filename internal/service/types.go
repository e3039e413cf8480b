package service

import (
	"context"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/utils"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type IDGenerator interface {
	NewID(length int) (string, error)
}

type RandomIDGenerator struct{}

func (RandomIDGenerator) NewID(length int) (string, error) {
	return utils.GenerateID(length)
}

// ConfirmationRequest carries everything needed to deliver a confirmation link.
type ConfirmationRequest struct {
	SubscriptionID uuid.UUID
	Email          string
	Hostname       string
	ListName       string
	PersonName     *string
	Token          string
	ExpiresAt      time.Time
}

type ConfirmationNotifier interface {
	NotifyConfirmation(ctx context.Context, request ConfirmationRequest) error
}

type TokenConfig struct {
	Window time.Duration
}

type SubscriptionConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}
