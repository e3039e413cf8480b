package service

import (
	"context"
	"testing"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() (*TokenManager, *fakeTokenRepo, *fakeClock) {
	repo := newFakeTokenRepo()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewTokenManager(repo, &sequenceIDs{}, clock, TokenConfig{}), repo, clock
}

func TestIssueCreatesSingleToken(t *testing.T) {
	manager, repo, clock := newTestTokenManager()
	subscriptionID := uuid.New()

	token, err := manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	require.NoError(t, err)

	assert.Len(t, token.ID, TokenIDLength)
	assert.Equal(t, subscriptionID, token.SubscriptionID)
	assert.Equal(t, entity.VerifyEmail, token.TokenType)
	assert.Equal(t, clock.now.Add(2*time.Hour), token.ExpiresAt)
	assert.Equal(t, 1, repo.count())
}

func TestIssueDebouncesFreshToken(t *testing.T) {
	manager, repo, clock := newTestTokenManager()
	subscriptionID := uuid.New()

	first, err := manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	assert.ErrorIs(t, err, ErrExistingUnexpiredToken)
	assert.Equal(t, 1, repo.count())

	stored, err := repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestIssueReplacesTokenPastHalfWindow(t *testing.T) {
	manager, repo, clock := newTestTokenManager()
	subscriptionID := uuid.New()

	first, err := manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	require.NoError(t, err)

	// exactly half the window remaining is no longer fresh
	clock.Advance(time.Hour)
	second, err := manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.count())

	gone, err := repo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestIssueIsScopedPerSubscription(t *testing.T) {
	manager, repo, _ := newTestTokenManager()

	_, err := manager.Issue(context.Background(), entity.VerifyEmail, uuid.New())
	require.NoError(t, err)
	_, err = manager.Issue(context.Background(), entity.VerifyEmail, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.count())
}

func TestIssueHonoursConfiguredWindow(t *testing.T) {
	repo := newFakeTokenRepo()
	clock := &fakeClock{now: time.Now()}
	manager := NewTokenManager(repo, &sequenceIDs{}, clock, TokenConfig{Window: 10 * time.Minute})

	token, err := manager.Issue(context.Background(), entity.VerifyEmail, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(10*time.Minute), token.ExpiresAt)
}

func TestIssuePropagatesStoreFailure(t *testing.T) {
	manager, repo, _ := newTestTokenManager()
	repo.findErr = errStore

	_, err := manager.Issue(context.Background(), entity.VerifyEmail, uuid.New())
	assert.ErrorIs(t, err, errStore)
}

func TestConsumeIsSingleUse(t *testing.T) {
	manager, repo, _ := newTestTokenManager()
	subscriptionID := uuid.New()

	token, err := manager.Issue(context.Background(), entity.VerifyEmail, subscriptionID)
	require.NoError(t, err)

	consumed, err := manager.Consume(context.Background(), token.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptionID, consumed.SubscriptionID)
	assert.Equal(t, 0, repo.count())

	_, err = manager.Consume(context.Background(), token.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeExpiredDeletesToken(t *testing.T) {
	manager, repo, clock := newTestTokenManager()

	token, err := manager.Issue(context.Background(), entity.VerifyEmail, uuid.New())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = manager.Consume(context.Background(), token.ID)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, 0, repo.count())

	_, err = manager.Consume(context.Background(), token.ID)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeUnknownToken(t *testing.T) {
	manager, _, _ := newTestTokenManager()

	_, err := manager.Consume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
