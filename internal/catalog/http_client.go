package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient talks to the record-store's agent API over REST.
//
// Timeout and retry posture (applies to every method):
// - per-attempt timeout from ClientConfig.Timeout
// - RetryCount retries with exponential backoff between RetryWaitTime and
//   RetryMaxWaitTime, on transport errors and 5xx only
// 4xx responses map to sentinel errors and are never retried.
type HTTPClient struct {
	http *resty.Client
}

type ClientConfig struct {
	BaseURL string
	APIKey  string

	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	out := c
	if out.Timeout <= 0 {
		out.Timeout = 5 * time.Second
	}
	if out.RetryCount <= 0 {
		out.RetryCount = 2
	}
	if out.RetryWaitTime <= 0 {
		out.RetryWaitTime = 300 * time.Millisecond
	}
	if out.RetryMaxWaitTime <= 0 {
		out.RetryMaxWaitTime = 3 * time.Second
	}
	return out
}

func NewHTTPClient(cfg ClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("catalog: base url is required")
	}
	cfg = cfg.withDefaults()

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &HTTPClient{http: rc}, nil
}

type authRequest struct {
	Phone string `json:"phone,omitempty"`
	Pin   string `json:"pin,omitempty"`
}

func (c *HTTPClient) AuthenticateByPhone(ctx context.Context, phone string) (*Employee, error) {
	if phone == "" {
		return nil, ErrInvalidArgument
	}
	var emp Employee
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(authRequest{Phone: phone}).
		SetResult(&emp).
		Post("/v1/auth/phone")
	if err := c.check(resp, err, "authenticate by phone"); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (c *HTTPClient) AuthenticateByPin(ctx context.Context, pin string) (*Employee, error) {
	if pin == "" {
		return nil, ErrInvalidArgument
	}
	var emp Employee
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(authRequest{Pin: pin}).
		SetResult(&emp).
		Post("/v1/auth/pin")
	if err := c.check(resp, err, "authenticate by pin"); err != nil {
		return nil, err
	}
	return &emp, nil
}

func (c *HTTPClient) ListJobs(ctx context.Context, employeeID, providerID string, limit int) ([]JobTemplate, error) {
	if employeeID == "" {
		return nil, ErrInvalidArgument
	}
	var out struct {
		Jobs []JobTemplate `json:"jobs"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("provider_id", providerID).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get("/v1/employees/" + employeeID + "/jobs")
	if err := c.check(resp, err, "list jobs"); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

type validateJobRequest struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
}

func (c *HTTPClient) ValidateJobWithAuthorization(ctx context.Context, employeeID, code string) (*JobValidation, error) {
	if employeeID == "" || code == "" {
		return nil, ErrInvalidArgument
	}
	var out JobValidation
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(validateJobRequest{EmployeeID: employeeID, Code: code}).
		SetResult(&out).
		Post("/v1/jobs/validate")
	if err := c.check(resp, err, "validate job"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetFutureOccurrences(ctx context.Context, jobID, employeeID string, limit int) ([]Occurrence, error) {
	if jobID == "" || employeeID == "" {
		return nil, ErrInvalidArgument
	}
	var out struct {
		Occurrences []Occurrence `json:"occurrences"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("employee_id", employeeID).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get("/v1/jobs/" + jobID + "/occurrences")
	if err := c.check(resp, err, "get future occurrences"); err != nil {
		return nil, err
	}
	return out.Occurrences, nil
}

type rescheduleRequest struct {
	NewStart time.Time `json:"new_start"`
}

func (c *HTTPClient) RescheduleOccurrence(ctx context.Context, occurrenceID string, newStart time.Time) error {
	if occurrenceID == "" || newStart.IsZero() {
		return ErrInvalidArgument
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rescheduleRequest{NewStart: newStart.UTC()}).
		Post("/v1/occurrences/" + occurrenceID + "/reschedule")
	return c.check(resp, err, "reschedule occurrence")
}

type releaseRequest struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

func (c *HTTPClient) LeaveJobOpen(ctx context.Context, occurrenceID, employeeID, reason string) error {
	if occurrenceID == "" || employeeID == "" {
		return ErrInvalidArgument
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(releaseRequest{EmployeeID: employeeID, Reason: reason}).
		Post("/v1/occurrences/" + occurrenceID + "/release")
	return c.check(resp, err, "leave job open")
}

func (c *HTTPClient) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrDenied
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidArgument
	default:
		return fmt.Errorf("catalog: %s: unexpected status %d", op, resp.StatusCode())
	}
}
