package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/resendlabs/resend-go"
)

var ErrEmailSenderNotConfigured = errors.New("email sender not configured")

// ResendEmailSender delivers confirmation links through Resend. It satisfies
// ConfirmationNotifier directly, which is used when no queue is configured.
type ResendEmailSender struct {
	client     *resend.Client
	From       string
	ConfirmURL string
}

func NewResendEmailSender(apiKey string, from string, confirmURL string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		client:     resend.NewClient(apiKey),
		From:       from,
		ConfirmURL: strings.TrimRight(confirmURL, "/"),
	}
}

func (s *ResendEmailSender) NotifyConfirmation(ctx context.Context, request ConfirmationRequest) error {
	return s.SendConfirmationEmail(ctx, request)
}

func (s *ResendEmailSender) SendConfirmationEmail(ctx context.Context, request ConfirmationRequest) error {
	if s.client == nil {
		return ErrEmailSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	link := BuildConfirmURL(s.ConfirmURL, request.Token, request.Hostname)
	subject := fmt.Sprintf("Confirm your subscription to %s", request.ListName)
	greeting := "Hello,"
	if request.PersonName != nil && *request.PersonName != "" {
		greeting = fmt.Sprintf("Hello %s,", *request.PersonName)
	}

	params := &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{request.Email},
		Subject: subject,
		Html: fmt.Sprintf(
			"<p>%s</p><p>Please confirm your subscription to %s on %s:</p><p><a href=\"%s\">Confirm email</a></p>",
			html.EscapeString(greeting), html.EscapeString(request.ListName), html.EscapeString(request.Hostname), html.EscapeString(link),
		),
		Text: fmt.Sprintf("%s\n\nConfirm your subscription to %s on %s: %s", greeting, request.ListName, request.Hostname, link),
	}
	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// BuildConfirmURL appends the token and hostname to base. Without a base the
// bare token is returned so it can still be pasted into a confirm form.
func BuildConfirmURL(base string, token string, hostname string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return token
	}
	query := url.Values{}
	query.Set("token", token)
	query.Set("hostname", hostname)
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + query.Encode()
}
