package service

import (
	"context"
	"fmt"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"

	"github.com/google/uuid"
)

const TokenIDLength = 63

// TokenManager issues and consumes single-use subscription tokens.
//
// Issue is debounced: while any token for the same subscription and purpose
// has more than half of its window left, no new token is minted. Consume
// deletes the token before checking expiry, so one id can never be used twice.
type TokenManager struct {
	tokens repository.SubscriptionTokenRepository
	ids    IDGenerator
	clock  Clock
	config TokenConfig
}

func NewTokenManager(
	tokens repository.SubscriptionTokenRepository,
	ids IDGenerator,
	clock Clock,
	config TokenConfig,
) *TokenManager {
	return &TokenManager{
		tokens: tokens,
		ids:    ids,
		clock:  clock,
		config: config,
	}
}

func (m *TokenManager) Issue(
	ctx context.Context,
	purpose entity.TokenType,
	subscriptionID uuid.UUID,
) (*entity.SubscriptionToken, error) {

	now := m.now()
	window := m.window()

	existing, err := m.tokens.FindBySubscriptionAndType(ctx, subscriptionID, purpose)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	for _, token := range existing {
		if now.Before(token.ExpiresAt.Add(-window / 2)) {
			return nil, ErrExistingUnexpiredToken
		}
	}
	for _, token := range existing {
		if err := m.tokens.Delete(ctx, token.ID); err != nil {
			return nil, fmt.Errorf("delete superseded token: %w", err)
		}
	}

	id, err := m.ids.NewID(TokenIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate token id: %w", err)
	}
	token := &entity.SubscriptionToken{
		ID:             id,
		SubscriptionID: subscriptionID,
		TokenType:      purpose,
		ExpiresAt:      now.Add(window),
		CreatedAt:      now,
	}
	if err := m.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

func (m *TokenManager) Consume(ctx context.Context, id string) (*entity.SubscriptionToken, error) {
	token, err := m.tokens.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}

	if err := m.tokens.Delete(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("delete token: %w", err)
	}
	if !m.now().Before(token.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return token, nil
}

func (m *TokenManager) now() time.Time {
	if m.clock == nil {
		return time.Now()
	}
	return m.clock.Now()
}

func (m *TokenManager) window() time.Duration {
	if m.config.Window > 0 {
		return m.config.Window
	}
	return 2 * time.Hour
}
