// Package models names the supported chat models and maps model
// identifiers to their provider.
package models

import "strings"

// Provider identifies an AI provider backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderUnknown   Provider = ""
)

// Model is a provider model identifier.
type Model string

// String returns the API identifier for this model.
func (m Model) String() string { return string(m) }

// Provider returns which provider this model belongs to.
func (m Model) Provider() Provider { return Detect(string(m)) }

// Anthropic Claude models.
const (
	ClaudeOpus45   Model = "claude-opus-4-5"
	ClaudeSonnet45 Model = "claude-sonnet-4-5"
	ClaudeHaiku45  Model = "claude-haiku-4-5"

	// Pinned versions (use for production stability)
	ClaudeOpus45_20251101   Model = "claude-opus-4-5-20251101"
	ClaudeSonnet45_20250929 Model = "claude-sonnet-4-5-20250929"
	ClaudeHaiku45_20251001  Model = "claude-haiku-4-5-20251001"

	// DefaultClaudeModel is the recommended default Anthropic model.
	DefaultClaudeModel = ClaudeSonnet45
)

// OpenAI GPT and O-series models.
const (
	GPT52    Model = "gpt-5.2"
	GPT52Pro Model = "gpt-5.2-pro"
	GPT51    Model = "gpt-5.1"
	GPT5     Model = "gpt-5"
	GPT5Mini Model = "gpt-5-mini"
	GPT4o    Model = "gpt-4o"
	O3       Model = "o3"
	O3Mini   Model = "o3-mini"
	O4Mini   Model = "o4-mini"

	// DefaultGPTModel is the recommended default OpenAI model.
	DefaultGPTModel = GPT52
)

// Google Gemini models.
const (
	Gemini3Pro        Model = "gemini-3.0-pro"
	Gemini25Pro       Model = "gemini-2.5-pro"
	Gemini25Flash     Model = "gemini-2.5-flash"
	Gemini25FlashLite Model = "gemini-2.5-flash-lite"

	// DefaultGeminiModel is the recommended default Google model.
	DefaultGeminiModel = Gemini25Flash
)

// Detect maps a model identifier to its provider by prefix. Unrecognized
// identifiers return ProviderUnknown.
func Detect(model string) Provider {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gpt-"),
		strings.HasPrefix(model, "chatgpt-"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGoogle
	default:
		return ProviderUnknown
	}
}
