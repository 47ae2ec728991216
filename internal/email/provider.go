// Package email sends transactional storefront email.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	APIKey string
	From   string
}

// NewProvider returns the Resend-backed provider when a key is
// configured and a no-op provider otherwise, so email stays optional in
// development.
func NewProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		return NoopProvider{}, nil
	}
	if config.From == "" {
		return nil, fmt.Errorf("email sender address is required")
	}
	return NewResendProvider(config.APIKey, config.From), nil
}

// NoopProvider discards all email.
type NoopProvider struct{}

func (NoopProvider) SendEmail(ctx context.Context, email *Email) error {
	_ = ctx
	_ = email
	return nil
}
