// Package payments talks to the card payment and identity verification
// provider over its form-encoded REST API.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

type Config struct {
	BaseURL   string        `koanf:"base_url"`
	SecretKey string        `koanf:"secret_key"`
	Currency  string        `koanf:"currency"`
	Timeout   time.Duration `koanf:"timeout"`
	Retries   int           `koanf:"retries"`
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

type VerificationSession struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	URL          string            `json:"url"`
	Metadata     map[string]string `json:"metadata"`
}

type CustomerParams struct {
	Email          string
	Phone          string
	UserID         string
	IdempotencyKey string
}

type PaymentIntentParams struct {
	AmountCents    int64
	CustomerID     string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type VerificationParams struct {
	UserID         string
	ReturnURL      string
	IdempotencyKey string
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type Client struct {
	http     *resty.Client
	currency string
}

func NewClient(cfg Config) *Client {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: r, currency: cfg.Currency}
}

func (c *Client) CreateCustomer(ctx context.Context, p CustomerParams) (*Customer, error) {
	form := map[string]string{"metadata[user_id]": p.UserID}
	if p.Email != "" {
		form["email"] = p.Email
	}
	if p.Phone != "" {
		form["phone"] = p.Phone
	}
	var out Customer
	if err := c.post(ctx, "/v1/customers", p.IdempotencyKey, form, &out); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &out, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, p PaymentIntentParams) (*PaymentIntent, error) {
	form := map[string]string{
		"amount":   strconv.FormatInt(p.AmountCents, 10),
		"currency": c.currency,
	}
	form["automatic_payment_methods[enabled]"] = "true"
	if p.CustomerID != "" {
		form["customer"] = p.CustomerID
	}
	if p.Description != "" {
		form["description"] = p.Description
	}
	for k, v := range p.Metadata {
		form["metadata["+k+"]"] = v
	}
	var out PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", p.IdempotencyKey, form, &out); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &out, nil
}

func (c *Client) CancelPaymentIntent(ctx context.Context, id, idempotencyKey string) error {
	form := map[string]string{"cancellation_reason": "abandoned"}
	var out PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents/"+id+"/cancel", idempotencyKey, form, &out); err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", id, err)
	}
	return nil
}

func (c *Client) CreateVerificationSession(ctx context.Context, p VerificationParams) (*VerificationSession, error) {
	form := map[string]string{
		"type":              "document",
		"metadata[user_id]": p.UserID,
	}
	form["options[document][require_matching_selfie]"] = "true"
	if p.ReturnURL != "" {
		form["return_url"] = p.ReturnURL
	}
	var out VerificationSession
	if err := c.post(ctx, "/v1/identity/verification_sessions", p.IdempotencyKey, form, &out); err != nil {
		return nil, fmt.Errorf("create verification session: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, idempotencyKey string, form map[string]string, out any) error {
	var apiErr errorEnvelope
	req := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(out).
		SetError(&apiErr)
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}

	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		e := apiErr.Error
		e.StatusCode = resp.StatusCode()
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode())
		}
		return &e
	}
	return nil
}

// IsAPIError reports whether err came from a provider response rather than
// the transport.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}
