// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// CLIENT
// =============================================================================

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// The :predict endpoint returns no usage metadata, so generated
	// images are billed at a fixed per-image token cost.
	TokensPerGeneratedImage = 1290

	maxRetries     = 2
	requestTimeout = 120 * time.Second
)

// sharedTransport is reused across clients so connection pools survive
// settings changes.
var (
	sharedHTTPOnce   sync.Once
	sharedHTTPClient *http.Client
)

func httpClient() *http.Client {
	sharedHTTPOnce.Do(func() {
		sharedHTTPClient = &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	})
	return sharedHTTPClient
}

// Client talks to the Gemini API. The zero key produces a client where
// IsConfigured is false and every remote call fails with ErrNotConfigured.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Gemini client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    httpClient(),
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// =============================================================================
// TRANSPORT
// =============================================================================

// errorBody is the provider's error envelope.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// decodeAPIError turns a non-2xx response body into an *APIError.
func decodeAPIError(status int, body []byte) *APIError {
	var eb errorBody
	message := string(body)
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		message = eb.Error.Message
	}
	return &APIError{
		Status:  status,
		Kind:    classifyStatus(status, message),
		Message: message,
	}
}

// post sends one JSON request and decodes the response into out,
// retrying transient 5xx failures with a short backoff.
func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &APIError{Kind: ErrKindNetwork, Message: err.Error()}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &APIError{Kind: ErrKindNetwork, Message: err.Error()}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		apiErr := decodeAPIError(resp.StatusCode, respBody)
		if resp.StatusCode >= 500 {
			lastErr = apiErr
			continue
		}
		return apiErr
	}
	return lastErr
}

// =============================================================================
// CHAT
// =============================================================================

// GenerateContent performs a blocking, non-streamed completion.
func (c *Client) GenerateContent(ctx context.Context, modelID string, req *GenerateRequest) (*GenerateResponse, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, modelID)
	var resp GenerateResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CorrectGrammar rewrites text for grammar and spelling, preserving
// meaning and tone, and returns only the corrected text.
func (c *Client) CorrectGrammar(ctx context.Context, modelID, text string) (string, *UsageMetadata, error) {
	prompt := "Correct the grammar and spelling of the following text. " +
		"Preserve the original meaning and tone. " +
		"Respond with only the corrected text and nothing else.\n\n" + text
	req := &GenerateRequest{
		Contents: []Content{NewUserContent(prompt, nil)},
	}
	resp, err := c.GenerateContent(ctx, modelID, req)
	if err != nil {
		return "", nil, err
	}
	return resp.Text(), resp.UsageMetadata, nil
}

// WebSearch performs a grounded completion with the google_search tool
// enabled, returning the answer text with its citation sources.
func (c *Client) WebSearch(ctx context.Context, modelID, query string) (string, []model.Source, *UsageMetadata, error) {
	req := &GenerateRequest{
		Contents: []Content{NewUserContent(query, nil)},
		Tools:    []Tool{{GoogleSearch: &struct{}{}}},
	}
	resp, err := c.GenerateContent(ctx, modelID, req)
	if err != nil {
		return "", nil, nil, err
	}
	return resp.Text(), resp.Sources(), resp.UsageMetadata, nil
}

// =============================================================================
// IMAGES
// =============================================================================

// GenerateImages calls the imagen :predict endpoint and returns the
// generated images. Token cost is TokensPerGeneratedImage per returned
// image since :predict reports no usage metadata.
func (c *Client) GenerateImages(ctx context.Context, modelID, prompt, aspectRatio string, count int) ([]model.ImageData, error) {
	if count < 1 {
		count = 1
	}
	req := &PredictRequest{
		Instances: []PredictInstance{{Prompt: prompt}},
		Parameters: PredictParameters{
			SampleCount: count,
			AspectRatio: aspectRatio,
		},
	}

	url := fmt.Sprintf("%s/models/%s:predict", c.baseURL, modelID)
	var resp PredictResponse
	if err := c.post(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, &APIError{Kind: ErrKindPolicy, Message: "no images returned; the prompt may have been blocked"}
	}

	images := make([]model.ImageData, 0, len(resp.Predictions))
	for i, p := range resp.Predictions {
		mime := p.MimeType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, model.ImageData{
			Data:     p.BytesBase64Encoded,
			MimeType: mime,
			FileName: fmt.Sprintf("generated-%d.png", i+1),
		})
	}
	return images, nil
}
