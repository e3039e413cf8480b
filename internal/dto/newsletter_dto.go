package dto

import (
	"time"

	"github.com/TakenPilot/cloudflare-workers/internal/entity"

	"github.com/google/uuid"
)

type SubscribeRequest struct {
	Email      string `json:"email" form:"email" validate:"required,email"`
	Hostname   string `json:"hostname" form:"hostname" validate:"required,max=253"`
	ListName   string `json:"list_name" form:"list_name" validate:"required,max=255"`
	PersonName string `json:"person_name" form:"person_name" validate:"omitempty,max=255"`
}

type UnsubscribeRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Hostname string `json:"hostname" form:"hostname" validate:"required,max=253"`
	ListName string `json:"list_name" form:"list_name" validate:"required,max=255"`
}

type ConfirmEmailRequest struct {
	Token    string `json:"token" form:"token" validate:"required,max=255"`
	Hostname string `json:"hostname" form:"hostname" validate:"required,max=253"`
}

type ResendConfirmationRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Hostname string `json:"hostname" form:"hostname" validate:"required,max=253"`
	ListName string `json:"list_name" form:"list_name" validate:"required,max=255"`
}

type SubscriberResponse struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	ListName         string     `json:"list_name"`
	PersonName       *string    `json:"person_name,omitempty"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type SubscriberListResponse struct {
	Hostname    string               `json:"hostname"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
	Subscribers []SubscriberResponse `json:"subscribers"`
}

func SubscriberResponseFromEntity(subscription entity.Subscription) SubscriberResponse {
	return SubscriberResponse{
		ID:               subscription.ID,
		Email:            subscription.Email,
		ListName:         subscription.ListName,
		PersonName:       subscription.PersonName,
		EmailConfirmedAt: subscription.EmailConfirmedAt,
		CreatedAt:        subscription.CreatedAt,
	}
}

func SubscriberResponsesFromEntities(subscriptions []entity.Subscription) []SubscriberResponse {
	responses := make([]SubscriberResponse, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		responses = append(responses, SubscriberResponseFromEntity(subscription))
	}
	return responses
}
