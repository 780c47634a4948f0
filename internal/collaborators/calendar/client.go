// Package calendar calls the scheduling service to check availability
// and create events on behalf of confirmed commands.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crm-assistant/internal/common/config"
	"crm-assistant/internal/common/errors"
	"crm-assistant/internal/models"
)

type Client struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
}

func NewClient(cfg config.ServiceEndpoint) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
	}
}

type conflictRequest struct {
	TenantID string    `json:"tenantId"`
	Start    time.Time `json:"start"`
}

type conflictResponse struct {
	HasConflict bool `json:"hasConflict"`
}

type createEventRequest struct {
	TenantID  string    `json:"tenantId"`
	LeadID    string    `json:"leadId"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	Attendees []string  `json:"attendees,omitempty"`
}

type createEventResponse struct {
	EventID string `json:"eventId"`
}

// CheckConflict reports whether any existing event overlaps the
// proposed slot.
func (c *Client) CheckConflict(ctx context.Context, tenantID string, start time.Time) (bool, error) {
	body, err := c.post(ctx, "/calendar/conflicts", conflictRequest{TenantID: tenantID, Start: start})
	if err != nil {
		return false, errors.NewConflictCheckFailedError(err)
	}

	var resp conflictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, errors.NewConflictCheckFailedError(err)
	}
	return resp.HasConflict, nil
}

// CreateEvent books the slot and returns the new event's ID.
func (c *Client) CreateEvent(ctx context.Context, tenantID string, lead *models.Lead, start time.Time) (string, error) {
	req := createEventRequest{
		TenantID: tenantID,
		LeadID:   lead.ID,
		Title:    fmt.Sprintf("Call with %s", lead.FullName()),
		Start:    start,
	}
	if lead.Email != "" {
		req.Attendees = []string{lead.Email}
	}

	body, err := c.post(ctx, "/calendar/events", req)
	if err != nil {
		return "", errors.NewEventCreateFailedError(err)
	}

	var resp createEventResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.NewEventCreateFailedError(err)
	}
	if resp.EventID == "" {
		return "", errors.NewEventCreateFailedError(fmt.Errorf("no event id in response"))
	}
	return resp.EventID, nil
}

// post sends a JSON request with exponential backoff on transient
// failures (network errors and 5xx responses).
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	attempts := c.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<uint(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("calendar service returned status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("calendar service returned status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	return nil, lastErr
}
