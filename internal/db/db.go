// Package db provides database connection and the persistence stores.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidStatusTransition is returned when a guarded status update
	// matches no row: the order exists but is not in a state the
	// transition allows. Duplicate webhook deliveries land here.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// ErrPaymentOrderAlreadySet guards the write-once payment order id.
	ErrPaymentOrderAlreadySet = errors.New("payment order id already set")

	// ErrInsufficientStock is returned when a stock decrement would go
	// negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmailTaken is returned when registering a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.ConnConfig.Tracer = newQueryTracer()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
