package services

import (
	"context"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/email"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type ProviderOrderEmailSender struct {
	provider email.Provider
}

func NewProviderOrderEmailSender(provider email.Provider) *ProviderOrderEmailSender {
	if provider == nil {
		provider = email.NoopProvider{}
	}
	return &ProviderOrderEmailSender{provider: provider}
}

func (s *ProviderOrderEmailSender) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	return email.SendOrderConfirmation(ctx, s.provider, order)
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return nil
}
