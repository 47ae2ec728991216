// Package paygreen wraps the PayGreen hosted-payment-page API: payment
// order creation, lookup, refunds and webhook event validation.
package paygreen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	productionBaseURL = "https://api.paygreen.fr"
	sandboxBaseURL    = "https://sb-api.paygreen.fr"

	defaultTimeout = 30 * time.Second
)

// ErrPaymentOrderNotFound is returned when the provider reports no such
// payment order.
var ErrPaymentOrderNotFound = errors.New("payment order not found")

// APIError carries a provider rejection: the HTTP status PayGreen answered
// with and its message. Calls are single round-trips; the caller decides
// whether to retry.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("paygreen: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("paygreen: %s (status %d)", e.Message, e.StatusCode)
}

// PaymentOrder is the gateway-side representation of a checkout attempt.
// Amount is in minor units (cents).
type PaymentOrder struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// Transaction is the gateway response to a refund operation.
type Transaction struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client is an explicitly constructed gateway client; base endpoint and
// credential are fixed at construction so tests can substitute a fake.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient selects the base endpoint from the environment name:
// "production" talks to the live API, anything else to the sandbox.
func NewClient(environment, secretKey string, httpClient *http.Client) *Client {
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}
	return NewClientWithBaseURL(baseURL, secretKey, httpClient)
}

func NewClientWithBaseURL(baseURL, secretKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: httpClient,
	}
}

// CreatePaymentOrderParams are the inputs for a hosted payment order.
// Amount is in minor units and must be positive.
type CreatePaymentOrderParams struct {
	Amount            int64
	Currency          string
	CustomerEmail     string
	ReturnURL         string
	CancelURL         string
	AutoCapture       bool
	MerchantInitiated bool
	Mode              string
	PartialAllowed    bool
}

type createPaymentOrderRequest struct {
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	AutoCapture       bool   `json:"auto_capture"`
	MerchantInitiated bool   `json:"merchant_initiated"`
	Mode              string `json:"mode"`
	PartialAllowed    bool   `json:"partial_allowed"`
	ReturnURL         string `json:"return_url"`
	CancelURL         string `json:"cancel_url"`
	CustomerEmail     string `json:"customer_email,omitempty"`
}

// CreatePaymentOrder creates a payment order and returns the hosted page
// redirect target.
func (c *Client) CreatePaymentOrder(ctx context.Context, params CreatePaymentOrderParams) (*PaymentOrder, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", params.Amount)
	}

	currency := params.Currency
	if currency == "" {
		currency = "eur"
	}
	mode := params.Mode
	if mode == "" {
		mode = "instant"
	}

	var order PaymentOrder
	err := c.do(ctx, http.MethodPost, "/payment/payment-orders", createPaymentOrderRequest{
		Amount:            params.Amount,
		Currency:          currency,
		AutoCapture:       params.AutoCapture,
		MerchantInitiated: params.MerchantInitiated,
		Mode:              mode,
		PartialAllowed:    params.PartialAllowed,
		ReturnURL:         params.ReturnURL,
		CancelURL:         params.CancelURL,
		CustomerEmail:     params.CustomerEmail,
	}, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}
	return &order, nil
}

// GetPaymentOrder fetches the gateway-side snapshot of a payment order.
func (c *Client) GetPaymentOrder(ctx context.Context, paymentOrderID string) (*PaymentOrder, error) {
	if paymentOrderID == "" {
		return nil, fmt.Errorf("payment order id is required")
	}

	var order PaymentOrder
	err := c.do(ctx, http.MethodGet, "/payment/payment-orders/"+paymentOrderID, nil, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}
	return &order, nil
}

// RefundPayment refunds a captured transaction. With a non-nil amount (in
// minor units) the transaction amount is lowered via PATCH (partial
// refund); with a nil amount the transaction is cancelled via DELETE
// (full refund).
func (c *Client) RefundPayment(ctx context.Context, transactionID string, amount *int64) (*Transaction, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id is required")
	}

	var tx Transaction
	var err error
	if amount != nil {
		err = c.do(ctx, http.MethodPatch, "/payins/transaction/"+transactionID, map[string]int64{"amount": *amount}, &tx)
	} else {
		err = c.do(ctx, http.MethodDelete, "/payins/transaction/"+transactionID, nil, &tx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}
	return &tx, nil
}

type apiErrorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrPaymentOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody apiErrorBody
		_ = json.Unmarshal(raw, &errBody)
		message := errBody.Message
		if message == "" {
			message = errBody.Detail
		}
		if message == "" {
			message = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
