package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	requests []service.ConfirmationRequest
	err      error
}

func (s *recordingSender) SendConfirmationEmail(_ context.Context, request service.ConfirmationRequest) error {
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, request)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConfirmationEventRoundTrip(t *testing.T) {
	name := "Ann"
	request := service.ConfirmationRequest{
		SubscriptionID: uuid.New(),
		Email:          "ann@example.com",
		Hostname:       "example.com",
		ListName:       "weekly",
		PersonName:     &name,
		Token:          "abc",
		ExpiresAt:      time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(NewConfirmationRequestedEvent(request))
	require.NoError(t, err)

	sender := &recordingSender{}
	consumer := NewConsumer("amqp://unused", sender, quietLogger())
	require.NoError(t, consumer.HandleMessage(context.Background(), body))

	require.Len(t, sender.requests, 1)
	assert.Equal(t, request, sender.requests[0])
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	consumer := NewConsumer("amqp://unused", &recordingSender{}, quietLogger())

	assert.Error(t, consumer.HandleMessage(context.Background(), []byte("{")))
	assert.Error(t, consumer.HandleMessage(context.Background(), []byte(`{"subscription_id":"nope"}`)))
}

func TestHandleMessagePropagatesSendFailure(t *testing.T) {
	failure := errors.New("smtp down")
	consumer := NewConsumer("amqp://unused", &recordingSender{err: failure}, quietLogger())
	body, err := json.Marshal(NewConfirmationRequestedEvent(service.ConfirmationRequest{
		SubscriptionID: uuid.New(),
		ExpiresAt:      time.Now(),
	}))
	require.NoError(t, err)

	assert.ErrorIs(t, consumer.HandleMessage(context.Background(), body), failure)
}
