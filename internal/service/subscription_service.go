package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"
	"github.com/TakenPilot/cloudflare-workers/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	hostnames     repository.HostnameConfigRepository
	lists         repository.ListConfigRepository
	events        repository.SubscriptionEventRepository

	tokens   *TokenManager
	notifier ConfirmationNotifier
	clock    Clock
	logger   logrus.FieldLogger
	config   SubscriptionConfig
}

func NewSubscriptionService(
	subscriptions repository.SubscriptionRepository,
	hostnames repository.HostnameConfigRepository,
	lists repository.ListConfigRepository,
	events repository.SubscriptionEventRepository,
	tokens *TokenManager,
	notifier ConfirmationNotifier,
	clock Clock,
	logger logrus.FieldLogger,
	config SubscriptionConfig,
) *SubscriptionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SubscriptionService{
		subscriptions: subscriptions,
		hostnames:     hostnames,
		lists:         lists,
		events:        events,
		tokens:        tokens,
		notifier:      notifier,
		clock:         clock,
		logger:        logger,
		config:        config,
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, input SubscribeInput) (SubscribeOutcome, error) {
	email := utils.NormalizeEmail(input.Email)
	hostname := strings.TrimSpace(input.Hostname)
	listName := strings.TrimSpace(input.ListName)
	if email == "" || hostname == "" || listName == "" {
		return "", ErrInvalidInput
	}
	if err := s.requireHostname(ctx, hostname); err != nil {
		return "", err
	}

	now := s.now()
	subscription := &entity.Subscription{
		ID:         uuid.New(),
		Email:      email,
		Hostname:   hostname,
		ListName:   listName,
		PersonName: trimmedOrNil(input.PersonName),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.subscriptions.Create(ctx, subscription)
	if errors.Is(err, repository.ErrDuplicate) {
		return s.resubscribe(ctx, email, hostname, listName)
	}
	if err != nil {
		return "", fmt.Errorf("create subscription: %w", err)
	}

	s.logEvent(ctx, subscription, entity.ActionSubscribed, nil)
	s.dispatchConfirmation(ctx, subscription)
	return OutcomeSubscribed, nil
}

func (s *SubscriptionService) resubscribe(ctx context.Context, email, hostname, listName string) (SubscribeOutcome, error) {
	existing, err := s.subscriptions.FindByUniqueValues(ctx, email, hostname, listName)
	if err != nil {
		return "", fmt.Errorf("load conflicting subscription: %w", err)
	}
	if existing == nil {
		return "", fmt.Errorf("%w: subscription for %s on %s/%s conflicted but cannot be found",
			ErrInvariantViolation, email, hostname, listName)
	}
	if existing.Active() {
		return "", ErrAlreadySubscribed
	}

	if err := s.subscriptions.SetUnsubscribedAt(ctx, existing.ID, nil); err != nil {
		return "", fmt.Errorf("reactivate subscription: %w", err)
	}
	s.logEvent(ctx, existing, entity.ActionResubscribed, nil)
	return OutcomeResubscribed, nil
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, input UnsubscribeInput) error {
	subscription, err := s.findActive(ctx, input.Email, input.Hostname, input.ListName)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.subscriptions.SetUnsubscribedAt(ctx, subscription.ID, &now); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	s.logEvent(ctx, subscription, entity.ActionUnsubscribed, nil)
	return nil
}

func (s *SubscriptionService) ConfirmEmail(ctx context.Context, input ConfirmInput) error {
	hostname := strings.TrimSpace(input.Hostname)
	if strings.TrimSpace(input.Token) == "" || hostname == "" {
		return ErrInvalidInput
	}
	if err := s.requireHostname(ctx, hostname); err != nil {
		return err
	}

	token, err := s.tokens.Consume(ctx, strings.TrimSpace(input.Token))
	if err != nil {
		return err
	}
	if token.TokenType != entity.VerifyEmail {
		return ErrTokenNotFound
	}

	subscription, err := s.subscriptions.FindByID(ctx, token.SubscriptionID)
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	if subscription == nil {
		return fmt.Errorf("%w: token %s references missing subscription %s",
			ErrInvariantViolation, token.TokenType, token.SubscriptionID)
	}
	if subscription.EmailConfirmed() {
		return ErrAlreadyConfirmed
	}

	if err := s.subscriptions.SetEmailConfirmedAt(ctx, subscription.ID, s.now()); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	s.logEvent(ctx, subscription, entity.ActionEmailConfirmed, nil)
	return nil
}

// RequestEmailConfirmation issues a fresh confirmation token for an active,
// unconfirmed subscription and hands it to the notifier.
func (s *SubscriptionService) RequestEmailConfirmation(ctx context.Context, input ConfirmationRequestInput) error {
	subscription, err := s.findActive(ctx, input.Email, input.Hostname, input.ListName)
	if err != nil {
		return err
	}
	if subscription.EmailConfirmed() {
		return ErrAlreadyConfirmed
	}
	if s.notifier == nil {
		return ErrConfirmationUnavailable
	}
	return s.sendConfirmation(ctx, subscription)
}

func (s *SubscriptionService) ListSubscribers(
	ctx context.Context,
	hostname string,
	listName string,
	limit int,
	offset int,
) ([]entity.Subscription, error) {

	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireHostname(ctx, hostname); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultPageSize()
	}
	if limit > s.maxPageSize() {
		limit = s.maxPageSize()
	}
	if offset < 0 {
		offset = 0
	}
	return s.subscriptions.ListActive(ctx, hostname, strings.TrimSpace(listName), limit, offset)
}

// findActive resolves the subscription addressed by email, hostname and list
// for operations that require it to exist and not be unsubscribed.
func (s *SubscriptionService) findActive(ctx context.Context, email, hostname, listName string) (*entity.Subscription, error) {
	email = utils.NormalizeEmail(email)
	hostname = strings.TrimSpace(hostname)
	listName = strings.TrimSpace(listName)
	if email == "" || hostname == "" || listName == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireHostname(ctx, hostname); err != nil {
		return nil, err
	}

	subscription, err := s.subscriptions.FindByUniqueValues(ctx, email, hostname, listName)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if subscription == nil {
		return nil, ErrNotFound
	}
	if !subscription.Active() {
		return nil, ErrAlreadyUnsubscribed
	}
	return subscription, nil
}

func (s *SubscriptionService) requireHostname(ctx context.Context, hostname string) error {
	config, err := s.hostnames.FindByHostname(ctx, hostname)
	if err != nil {
		return fmt.Errorf("load hostname config: %w", err)
	}
	if config == nil {
		return ErrUnknownHostname
	}
	return nil
}

// dispatchConfirmation sends a confirmation link after a fresh subscribe when
// the list asks for one. Failures are logged; the subscription stands.
func (s *SubscriptionService) dispatchConfirmation(ctx context.Context, subscription *entity.Subscription) {
	log := s.logger.WithFields(logrus.Fields{
		"subscription_id": subscription.ID,
		"hostname":        subscription.Hostname,
		"list_name":       subscription.ListName,
	})

	list, err := s.lists.FindByUniqueValues(ctx, subscription.Hostname, subscription.ListName)
	if err != nil {
		log.WithError(err).Warn("load list config")
		return
	}
	if list == nil || list.EmailConfirm != entity.EmailConfirmLink {
		return
	}
	if s.notifier == nil {
		log.Warn("list requires email confirmation but no notifier is configured")
		return
	}
	if err := s.sendConfirmation(ctx, subscription); err != nil {
		log.WithError(err).Error("send confirmation")
	}
}

func (s *SubscriptionService) sendConfirmation(ctx context.Context, subscription *entity.Subscription) error {
	token, err := s.tokens.Issue(ctx, entity.VerifyEmail, subscription.ID)
	if err != nil {
		return err
	}
	request := ConfirmationRequest{
		SubscriptionID: subscription.ID,
		Email:          subscription.Email,
		Hostname:       subscription.Hostname,
		ListName:       subscription.ListName,
		PersonName:     subscription.PersonName,
		Token:          token.ID,
		ExpiresAt:      token.ExpiresAt,
	}
	if err := s.notifier.NotifyConfirmation(ctx, request); err != nil {
		return fmt.Errorf("notify confirmation: %w", err)
	}
	s.logEvent(ctx, subscription, entity.ActionConfirmationRequested, map[string]any{
		"expires_at": token.ExpiresAt.UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *SubscriptionService) logEvent(
	ctx context.Context,
	subscription *entity.Subscription,
	action entity.SubscriptionAction,
	metadata map[string]any,
) {
	if s.events == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.logger.WithError(err).Warn("encode subscription event metadata")
		} else {
			payload = datatypes.JSON(bytes)
		}
	}

	event := &entity.SubscriptionEvent{
		ID:             uuid.New(),
		SubscriptionID: subscription.ID,
		Hostname:       subscription.Hostname,
		Action:         action,
		Metadata:       payload,
		CreatedAt:      s.now(),
	}
	if err := s.events.Log(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"subscription_id": subscription.ID,
			"action":          action,
		}).Warn("log subscription event")
	}
}

func (s *SubscriptionService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *SubscriptionService) defaultPageSize() int {
	if s.config.DefaultPageSize > 0 {
		return s.config.DefaultPageSize
	}
	return 100
}

func (s *SubscriptionService) maxPageSize() int {
	if s.config.MaxPageSize > 0 {
		return s.config.MaxPageSize
	}
	return 1000
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
