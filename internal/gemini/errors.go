// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind classifies a provider or transport failure into the small
// taxonomy the terminal maps to remediation messages.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindMissingKey
	ErrKindInvalidKey
	ErrKindQuota
	ErrKindTokenLimit
	ErrKindAspectRatio
	ErrKindPolicy
	ErrKindModelNotFound
	ErrKindNetwork
	ErrKindCancelled
)

// String returns the kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindMissingKey:
		return "missing_key"
	case ErrKindInvalidKey:
		return "invalid_key"
	case ErrKindQuota:
		return "quota"
	case ErrKindTokenLimit:
		return "token_limit"
	case ErrKindAspectRatio:
		return "aspect_ratio"
	case ErrKindPolicy:
		return "policy"
	case ErrKindModelNotFound:
		return "model_not_found"
	case ErrKindNetwork:
		return "network"
	case ErrKindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrNotConfigured indicates the API key is not set.
var ErrNotConfigured = errors.New("Gemini API key not configured")

// =============================================================================
// API ERROR
// =============================================================================

// APIError is a structured provider error with its classified kind.
type APIError struct {
	Status  int
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gemini API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API error: %s", e.Message)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// textClassifiers is the prioritized (substring, kind) fallback list,
// evaluated in order against the lowercased error text. Substring
// matching is brittle against upstream wording changes; the structured
// HTTP status path in classifyStatus is always preferred when available.
var textClassifiers = []struct {
	substr string
	kind   ErrorKind
}{
	{"api key not valid", ErrKindInvalidKey},
	{"api_key_invalid", ErrKindInvalidKey},
	{"invalid api key", ErrKindInvalidKey},
	{"permission denied", ErrKindInvalidKey},
	{"unauthenticated", ErrKindInvalidKey},
	{"token limit", ErrKindTokenLimit},
	{"exceeds the maximum number of tokens", ErrKindTokenLimit},
	{"input token count", ErrKindTokenLimit},
	{"aspect ratio", ErrKindAspectRatio},
	{"resource_exhausted", ErrKindQuota},
	{"resource has been exhausted", ErrKindQuota},
	{"quota", ErrKindQuota},
	{"rate limit", ErrKindQuota},
	{"too many requests", ErrKindQuota},
	{"safety", ErrKindPolicy},
	{"prohibited content", ErrKindPolicy},
	{"blocked", ErrKindPolicy},
	{"was not found", ErrKindModelNotFound},
	{"not found", ErrKindModelNotFound},
	{"is not supported", ErrKindModelNotFound},
	{"no such host", ErrKindNetwork},
	{"connection refused", ErrKindNetwork},
	{"connection reset", ErrKindNetwork},
	{"timeout", ErrKindNetwork},
	{"network", ErrKindNetwork},
	{"deadline exceeded", ErrKindNetwork},
}

// ClassifyText classifies raw error text via the substring fallback list.
func ClassifyText(text string) ErrorKind {
	lower := strings.ToLower(text)
	for _, c := range textClassifiers {
		if strings.Contains(lower, c.substr) {
			return c.kind
		}
	}
	return ErrKindUnknown
}

// classifyStatus maps an HTTP status to a kind, falling back to text
// classification when the status alone is ambiguous.
func classifyStatus(status int, message string) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrKindInvalidKey
	case http.StatusTooManyRequests:
		return ErrKindQuota
	case http.StatusNotFound:
		return ErrKindModelNotFound
	}
	if kind := ClassifyText(message); kind != ErrKindUnknown {
		return kind
	}
	if status >= 500 {
		return ErrKindNetwork
	}
	return ErrKindUnknown
}

// Classify determines the kind of any error from the client.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrKindUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrNotConfigured) {
		return ErrKindMissingKey
	}

	return ClassifyText(err.Error())
}

// Remediation returns the user-facing guidance for an error kind.
func Remediation(kind ErrorKind) string {
	switch kind {
	case ErrKindMissingKey:
		return "No API key configured. Set one with /apikey <key>."
	case ErrKindInvalidKey:
		return "The API key was rejected. Check the key and set it again with /apikey <key>."
	case ErrKindQuota:
		return "Rate limit or quota exceeded. Wait a moment and try again."
	case ErrKindTokenLimit:
		return "The request exceeds the model's token limit. Try /clear to shorten the conversation."
	case ErrKindAspectRatio:
		return "Invalid aspect ratio. Valid ratios: 1:1, 3:4, 4:3, 9:16, 16:9."
	case ErrKindPolicy:
		return "The request was blocked by the provider's content policy. Rephrase and try again."
	case ErrKindModelNotFound:
		return "The requested model was not found. Use /model to list available models."
	case ErrKindNetwork:
		return "Network error reaching the provider. Check your connection and try again."
	case ErrKindCancelled:
		return "Request cancelled."
	default:
		return "An unexpected error occurred."
	}
}
