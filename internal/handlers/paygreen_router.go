package handlers

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/logging"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/observability"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

// PaymentEventRouter dispatches typed gateway events to the reconciler.
type PaymentEventRouter struct {
	paymentEvents *services.PaymentEventService
	logger        *slog.Logger
}

func NewPaymentEventRouter(paymentEvents *services.PaymentEventService, logger *slog.Logger) *PaymentEventRouter {
	return &PaymentEventRouter{
		paymentEvents: paymentEvents,
		logger:        logger,
	}
}

func (r *PaymentEventRouter) Handle(ctx context.Context, event *paygreen.WebhookEvent) error {
	span := sentry.StartSpan(
		ctx,
		"handler.payment_router.handle",
		sentry.WithOpName("handler.payment_router"),
		sentry.WithDescription("PaymentEventRouter.Handle"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(
		attribute.String("webhook.provider", "paygreen"),
		attribute.String("webhook.event_type", event.Type),
	)
	meter.Count("webhook.router.received", 1)

	var err error
	switch event.Kind {
	case paygreen.EventPaymentOrderSuccess:
		err = r.paymentEvents.HandlePaymentSucceeded(ctx, event.PaymentOrder)
	case paygreen.EventPaymentOrderFailed:
		err = r.paymentEvents.HandlePaymentFailed(ctx, event.PaymentOrder)
	case paygreen.EventPaymentOrderCancelled:
		err = r.paymentEvents.HandlePaymentCancelled(ctx, event.PaymentOrder)
	default:
		logging.FromContext(ctx, r.logger).Info("unhandled payment event type", "type", event.Type)
		meter.Count("webhook.router.unhandled", 1)
		span.Status = sentry.SpanStatusOK
		return nil
	}

	if err != nil {
		meter.Count("webhook.router.failed", 1, sentry.WithAttributes(attribute.String("reason", "reconciliation_failed")))
		span.Status = sentry.SpanStatusInternalError
		return err
	}

	meter.Count("webhook.router.processed", 1)
	span.Status = sentry.SpanStatusOK
	return nil
}
