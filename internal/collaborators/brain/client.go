// Package brain forwards actionable commands to the generative answer
// service that produces "ai_brain" responses: record listings,
// summaries, forecasts, and confirmations phrased for the user.
package brain

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
	"crm-assistant/internal/interpreter/intent"
)

type Client struct {
	baseURL     string
	maxRetries  int
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

func NewClient(cfg config.GenAIConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		maxRetries:  cfg.MaxRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
	}
}

// Request carries one actionable turn to the answer service.
type Request struct {
	TenantID string            `json:"tenantId"`
	UserText string            `json:"userText"`
	Intent   intent.Kind       `json:"intent"`
	Entity   intent.Entity     `json:"entity"`
	Filters  map[string]string `json:"filters,omitempty"`
}

type generateRequest struct {
	Request
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Answer string `json:"answer"`
}

// Generate produces the user-facing answer for an actionable command.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	jsonData, err := json.Marshal(generateRequest{
		Request:     req,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.NewLLMSynthesisFailedError(err)
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
				return "", errors.NewLLMSynthesisFailedError(ctx.Err())
			case <-time.After(backoff):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewBuffer(jsonData))
		if err != nil {
			return "", errors.NewLLMSynthesisFailedError(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
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
			lastErr = fmt.Errorf("answer service returned status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", errors.NewLLMSynthesisFailedError(fmt.Errorf("answer service returned status %d: %s", resp.StatusCode, string(body)))
		}

		var generated generateResponse
		if err := json.Unmarshal(body, &generated); err != nil {
			return "", errors.NewLLMSynthesisFailedError(err)
		}
		if generated.Answer == "" {
			return "", errors.NewLLMSynthesisFailedError(fmt.Errorf("empty answer in response"))
		}
		return generated.Answer, nil
	}

	return "", errors.NewLLMSynthesisFailedError(lastErr)
}
