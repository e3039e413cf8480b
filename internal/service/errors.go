package service

import "errors"

// Business outcomes. The error text is the tag returned to clients.
var (
	ErrInvalidInput            = errors.New("INVALID_INPUT")
	ErrUnknownHostname         = errors.New("UNKNOWN_HOSTNAME")
	ErrAlreadySubscribed       = errors.New("ALREADY_SUBSCRIBED")
	ErrNotFound                = errors.New("NOT_FOUND")
	ErrAlreadyUnsubscribed     = errors.New("ALREADY_UNSUBSCRIBED")
	ErrAlreadyConfirmed        = errors.New("ALREADY_CONFIRMED")
	ErrTokenNotFound           = errors.New("TOKEN_NOT_FOUND")
	ErrTokenExpired            = errors.New("TOKEN_EXPIRED")
	ErrExistingUnexpiredToken  = errors.New("EXISTING_UNEXPIRED_TOKEN")
	ErrConfirmationUnavailable = errors.New("CONFIRMATION_UNAVAILABLE")
)

// ErrInvariantViolation marks store states that should be impossible,
// such as a conflicting row vanishing before it can be re-read.
var ErrInvariantViolation = errors.New("invariant violation")

// API key outcomes. The error text is the response body.
var (
	ErrInvalidOrigin      = errors.New("Invalid origin")
	ErrInvalidAuthKey     = errors.New("Invalid auth key")
	ErrInvalidKey         = errors.New("Invalid key")
	ErrApiKeyNotFound     = errors.New("Not found")
	ErrInvalidContentType = errors.New("Invalid content type")
	ErrBodyTooLarge       = errors.New("Request body too large")
	ErrInvalidJSON        = errors.New("Invalid JSON")
	ErrInvalidObject      = errors.New("Invalid Object")
	ErrInvalidApiKeyInfo  = errors.New("Invalid ApiKeyInfo")
)
