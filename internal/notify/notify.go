// Package notify delivers follow-up messages after a call commits a
// scheduling change: a confirmation text to the caregiver, and a
// redistribution request that offers a released visit to other staff.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Confirmation is a text message summarizing what the caller just did.
type Confirmation struct {
	EmployeeID string `json:"employee_id"`
	Phone      string `json:"phone,omitempty"`
	Message    string `json:"message"`
}

// Redistribution asks the scheduling backend to offer a released
// occurrence to other qualified caregivers.
type Redistribution struct {
	OccurrenceID string `json:"occurrence_id"`
	JobID        string `json:"job_id,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Sender delivers notifications to the messaging backend.
type Sender interface {
	SendConfirmation(ctx context.Context, msg Confirmation) error
	TriggerRedistribution(ctx context.Context, req Redistribution) error
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	return c
}

// HTTPSender talks to the messaging backend over its REST API.
type HTTPSender struct {
	http *resty.Client
}

func NewHTTPSender(cfg ClientConfig) *HTTPSender {
	cfg = cfg.withDefaults()

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &HTTPSender{http: client}
}

func (c *HTTPSender) SendConfirmation(ctx context.Context, msg Confirmation) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/messages/confirmation")
	if err != nil {
		return fmt.Errorf("notify: send confirmation: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: send confirmation: unexpected status %d", resp.StatusCode())
	}
	return nil
}

func (c *HTTPSender) TriggerRedistribution(ctx context.Context, req Redistribution) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/redistributions")
	if err != nil {
		return fmt.Errorf("notify: trigger redistribution: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: trigger redistribution: unexpected status %d", resp.StatusCode())
	}
	return nil
}
