// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the HTTP client for the Gemini API.
package gemini

import (
	"github.com/AllramEst83/llm-terminal-app-sub000/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Part is one content part: text or inline image data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries a base64 payload with its mime type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is one conversation turn. Role is "user" or "model"; when a
// turn has images, the image parts come before the text part.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// ThinkingDirective is the provider-side reasoning configuration. Only
// one of the two fields is set, matching the model's thinking class.
type ThinkingDirective struct {
	ThinkingBudget *int   `json:"thinkingBudget,omitempty"`
	ThinkingLevel  string `json:"thinkingLevel,omitempty"`
}

// GenerationConfig holds per-request generation options.
type GenerationConfig struct {
	ThinkingConfig *ThinkingDirective `json:"thinkingConfig,omitempty"`
}

// Tool enables a provider-side tool for a request.
type Tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// GenerateRequest is the generateContent / streamGenerateContent payload.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	Tools            []Tool            `json:"tools,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// UsageMetadata is the provider's token accounting for one request. When
// present on a streamed chunk it fully supersedes any earlier snapshot;
// counts are not cumulative across chunks.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// WebSource is one grounded citation.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingChunk wraps one grounding source.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// GroundingMetadata carries citation sources attached to a candidate.
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// Candidate is one response alternative; the client uses the first.
type Candidate struct {
	Content           *Content           `json:"content,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
	FinishReason      string             `json:"finishReason,omitempty"`
}

// GenerateResponse is both the full generateContent response and the
// shape of each streamed chunk.
type GenerateResponse struct {
	Candidates    []Candidate    `json:"candidates,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Text returns the concatenated text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// Sources returns the grounding sources of the first candidate, in
// arrival order. Chunks without a web source are skipped.
func (r *GenerateResponse) Sources() []model.Source {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []model.Source
	for _, gc := range r.Candidates[0].GroundingMetadata.GroundingChunks {
		if gc.Web == nil || gc.Web.URI == "" {
			continue
		}
		sources = append(sources, model.Source{Title: gc.Web.Title, URI: gc.Web.URI})
	}
	return sources
}

// =============================================================================
// IMAGE GENERATION TYPES
// =============================================================================

// PredictRequest is the imagen :predict payload.
type PredictRequest struct {
	Instances  []PredictInstance `json:"instances"`
	Parameters PredictParameters `json:"parameters"`
}

// PredictInstance carries one generation prompt.
type PredictInstance struct {
	Prompt string `json:"prompt"`
}

// PredictParameters holds image generation options.
type PredictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// PredictResponse is the imagen :predict response.
type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction is one generated image.
type Prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

// =============================================================================
// BUILDERS
// =============================================================================

// NewUserContent builds a user turn with images ordered before text.
func NewUserContent(text string, images []model.ImageData) Content {
	parts := make([]Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, Part{InlineData: &InlineData{
			MimeType: img.MimeType,
			Data:     img.Data,
		}})
	}
	if text != "" || len(parts) == 0 {
		parts = append(parts, Part{Text: text})
	}
	return Content{Role: "user", Parts: parts}
}

// NewModelContent builds a model turn with a single text part.
func NewModelContent(text string) Content {
	return Content{Role: "model", Parts: []Part{{Text: text}}}
}
