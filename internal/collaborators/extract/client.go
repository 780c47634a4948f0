// Package extract calls the entity-extraction service that pulls a
// lead name and a concrete datetime out of scheduling requests.
package extract

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
)

// Extraction is what the service pulled out of the text. Nil means the
// text did not contain enough to schedule against.
type Extraction struct {
	LeadName string    `json:"leadName"`
	Datetime time.Time `json:"datetime"`
}

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

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Found    bool      `json:"found"`
	LeadName string    `json:"leadName"`
	Datetime time.Time `json:"datetime"`
}

// ExtractDateTimeAndLead returns the lead name and datetime mentioned
// in text, or nil when the service found neither.
func (c *Client) ExtractDateTimeAndLead(ctx context.Context, text string) (*Extraction, error) {
	jsonData, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return nil, errors.NewExtractionFailedError(err)
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
				return nil, errors.NewExtractionFailedError(ctx.Err())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract/scheduling", bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, errors.NewExtractionFailedError(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errors.NewExtractionFailedError(fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(body)))
		}

		var extracted extractResponse
		if err := json.Unmarshal(body, &extracted); err != nil {
			return nil, errors.NewExtractionFailedError(err)
		}
		if !extracted.Found {
			return nil, nil
		}
		return &Extraction{LeadName: extracted.LeadName, Datetime: extracted.Datetime}, nil
	}

	return nil, errors.NewExtractionFailedError(lastErr)
}
