package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/repository"

	"github.com/google/uuid"
)

var errStore = errors.New("store unavailable")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type sequenceIDs struct {
	next int
}

func (g *sequenceIDs) NewID(length int) (string, error) {
	g.next++
	id := fmt.Sprintf("tok%d", g.next)
	for len(id) < length {
		id += "x"
	}
	return id, nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]entity.SubscriptionToken
	findErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]entity.SubscriptionToken{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *entity.SubscriptionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tokens[token.ID]; exists {
		return repository.ErrDuplicate
	}
	r.tokens[token.ID] = *token
	return nil
}

func (r *fakeTokenRepo) FindByID(_ context.Context, id string) (*entity.SubscriptionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	token, ok := r.tokens[id]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (r *fakeTokenRepo) FindBySubscriptionAndType(
	_ context.Context,
	subscriptionID uuid.UUID,
	tokenType entity.TokenType,
) ([]entity.SubscriptionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []entity.SubscriptionToken
	for _, token := range r.tokens {
		if token.SubscriptionID == subscriptionID && token.TokenType == tokenType {
			out = append(out, token)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, id)
	return nil
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type fakeSubscriptionRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]entity.Subscription
	createErr error
	// hideOnConflict simulates a conflicting row vanishing before re-read
	hideOnConflict bool
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{rows: map[uuid.UUID]entity.Subscription{}}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, subscription *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, row := range r.rows {
		if row.Email == subscription.Email && row.Hostname == subscription.Hostname && row.ListName == subscription.ListName {
			if r.hideOnConflict {
				delete(r.rows, row.ID)
			}
			return repository.ErrDuplicate
		}
	}
	r.rows[subscription.ID] = *subscription
	return nil
}

func (r *fakeSubscriptionRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *fakeSubscriptionRepo) FindByUniqueValues(_ context.Context, email, hostname, listName string) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == email && row.Hostname == hostname && row.ListName == listName {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) SetUnsubscribedAt(_ context.Context, id uuid.UUID, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[id]
	row.UnsubscribedAt = at
	r.rows[id] = row
	return nil
}

func (r *fakeSubscriptionRepo) SetEmailConfirmedAt(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[id]
	row.EmailConfirmedAt = &at
	r.rows[id] = row
	return nil
}

func (r *fakeSubscriptionRepo) ListActive(_ context.Context, hostname, listName string, limit, offset int) ([]entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Subscription
	for _, row := range r.rows {
		if row.Hostname == hostname && row.Active() && (listName == "" || row.ListName == listName) {
			out = append(out, row)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeHostnameRepo map[string]bool

func (r fakeHostnameRepo) FindByHostname(_ context.Context, hostname string) (*entity.HostnameConfig, error) {
	if !r[hostname] {
		return nil, nil
	}
	return &entity.HostnameConfig{Hostname: hostname}, nil
}

type fakeListRepo map[string]entity.EmailConfirm

func (r fakeListRepo) FindByUniqueValues(_ context.Context, hostname, listName string) (*entity.ListConfig, error) {
	confirm, ok := r[hostname+"/"+listName]
	if !ok {
		return nil, nil
	}
	return &entity.ListConfig{Hostname: hostname, ListName: listName, EmailConfirm: confirm}, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []entity.SubscriptionEvent
}

func (r *fakeEventRepo) Log(_ context.Context, event *entity.SubscriptionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) actions() []entity.SubscriptionAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.SubscriptionAction, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Action)
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	requests []ConfirmationRequest
	err      error
}

func (n *fakeNotifier) NotifyConfirmation(_ context.Context, request ConfirmationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.requests = append(n.requests, request)
	return nil
}

type fakeApiKeyRepo struct {
	values map[string][]byte
	err    error
}

func (r *fakeApiKeyRepo) Get(_ context.Context, key string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.values[key], nil
}

func (r *fakeApiKeyRepo) Put(_ context.Context, key string, value []byte) error {
	if r.err != nil {
		return r.err
	}
	r.values[key] = value
	return nil
}

func (r *fakeApiKeyRepo) Delete(_ context.Context, key string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.values, key)
	return nil
}

type fakeObjectRepo map[string]entity.SiteObject

func (r fakeObjectRepo) Get(_ context.Context, key string) (*entity.SiteObject, error) {
	object, ok := r[key]
	if !ok {
		return nil, nil
	}
	return &object, nil
}

type fakeRedirectRepo map[string]string

func (r fakeRedirectRepo) Find(_ context.Context, key string) (string, error) {
	return r[key], nil
}

type fakeCacheRepo struct {
	entries map[string]entity.CachedResponse
	ttls    map[string]time.Duration
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string]entity.CachedResponse{}, ttls: map[string]time.Duration{}}
}

func (r *fakeCacheRepo) Get(_ context.Context, key string) (*entity.CachedResponse, error) {
	response, ok := r.entries[key]
	if !ok {
		return nil, nil
	}
	return &response, nil
}

func (r *fakeCacheRepo) Set(_ context.Context, key string, response *entity.CachedResponse, ttl time.Duration) error {
	r.entries[key] = *response
	r.ttls[key] = ttl
	return nil
}

func (r *fakeCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	_, ok := r.entries[key]
	delete(r.entries, key)
	return ok, nil
}
