package handler

import (
	"context"
	"net/http"

	"github.com/TakenPilot/cloudflare-workers/api/middleware"
	"github.com/TakenPilot/cloudflare-workers/internal/dto"
	"github.com/TakenPilot/cloudflare-workers/internal/entity"
	"github.com/TakenPilot/cloudflare-workers/internal/metrics"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	tagUnsubscribed     = "UNSUBSCRIBED"
	tagEmailConfirmed   = "EMAIL_CONFIRMED"
	tagConfirmationSent = "CONFIRMATION_SENT"
)

// Subscriptions is the newsletter surface consumed by NewsletterHandler.
type Subscriptions interface {
	Subscribe(ctx context.Context, input service.SubscribeInput) (service.SubscribeOutcome, error)
	Unsubscribe(ctx context.Context, input service.UnsubscribeInput) error
	ConfirmEmail(ctx context.Context, input service.ConfirmInput) error
	RequestEmailConfirmation(ctx context.Context, input service.ConfirmationRequestInput) error
	ListSubscribers(ctx context.Context, hostname, listName string, limit, offset int) ([]entity.Subscription, error)
}

type NewsletterHandler struct {
	Service  Subscriptions
	Validate *validator.Validate
}

func NewNewsletterHandler(svc Subscriptions, validate *validator.Validate) *NewsletterHandler {
	return &NewsletterHandler{Service: svc, Validate: validate}
}

func (h *NewsletterHandler) Subscribe(c echo.Context) error {
	var req dto.SubscribeRequest
	if err := h.bind(c, &req); err != nil {
		return h.reject(c, "subscribe", err)
	}
	input := service.SubscribeInput{
		Email:      req.Email,
		Hostname:   req.Hostname,
		ListName:   req.ListName,
		PersonName: stringPtr(req.PersonName),
	}
	outcome, err := h.Service.Subscribe(c.Request().Context(), input)
	if err != nil {
		return h.fail(c, "subscribe", err)
	}
	return h.succeed(c, "subscribe", string(outcome))
}

func (h *NewsletterHandler) Unsubscribe(c echo.Context) error {
	var req dto.UnsubscribeRequest
	if err := h.bind(c, &req); err != nil {
		return h.reject(c, "unsubscribe", err)
	}
	input := service.UnsubscribeInput{Email: req.Email, Hostname: req.Hostname, ListName: req.ListName}
	if err := h.Service.Unsubscribe(c.Request().Context(), input); err != nil {
		return h.fail(c, "unsubscribe", err)
	}
	return h.succeed(c, "unsubscribe", tagUnsubscribed)
}

func (h *NewsletterHandler) ConfirmEmail(c echo.Context) error {
	var req dto.ConfirmEmailRequest
	if err := h.bind(c, &req); err != nil {
		return h.reject(c, "confirm", err)
	}
	input := service.ConfirmInput{Token: req.Token, Hostname: req.Hostname}
	if err := h.Service.ConfirmEmail(c.Request().Context(), input); err != nil {
		return h.fail(c, "confirm", err)
	}
	return h.succeed(c, "confirm", tagEmailConfirmed)
}

func (h *NewsletterHandler) ResendConfirmation(c echo.Context) error {
	var req dto.ResendConfirmationRequest
	if err := h.bind(c, &req); err != nil {
		return h.reject(c, "resend_confirmation", err)
	}
	input := service.ConfirmationRequestInput{Email: req.Email, Hostname: req.Hostname, ListName: req.ListName}
	if err := h.Service.RequestEmailConfirmation(c.Request().Context(), input); err != nil {
		return h.fail(c, "resend_confirmation", err)
	}
	return h.succeed(c, "resend_confirmation", tagConfirmationSent)
}

// ListSubscribers exports the active subscribers of the hostname named by
// the admin token.
func (h *NewsletterHandler) ListSubscribers(c echo.Context) error {
	hostname, ok := middleware.HostnameFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "UNAUTHORIZED")
	}
	limit, offset := parseLimitOffset(c)
	subscriptions, err := h.Service.ListSubscribers(c.Request().Context(), hostname, c.QueryParam("list_name"), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SubscriberListResponse{
		Hostname:    hostname,
		Limit:       limit,
		Offset:      offset,
		Subscribers: dto.SubscriberResponsesFromEntities(subscriptions),
	})
}

func (h *NewsletterHandler) bind(c echo.Context, target any) error {
	if err := decodeBody(c, target); err != nil {
		return err
	}
	if h.Validate == nil {
		return nil
	}
	if err := h.Validate.Struct(target); err != nil {
		return service.ErrInvalidInput
	}
	return nil
}

func (h *NewsletterHandler) reject(c echo.Context, operation string, err error) error {
	metrics.NewsletterOutcomes.WithLabelValues(operation, err.Error()).Inc()
	return writeTag(c, http.StatusBadRequest, err.Error())
}

func (h *NewsletterHandler) fail(c echo.Context, operation string, err error) error {
	metrics.NewsletterOutcomes.WithLabelValues(operation, outcomeTag(err)).Inc()
	return writeServiceError(c, err)
}

func (h *NewsletterHandler) succeed(c echo.Context, operation string, tag string) error {
	metrics.NewsletterOutcomes.WithLabelValues(operation, tag).Inc()
	return writeTag(c, http.StatusOK, tag)
}
