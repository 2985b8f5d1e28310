package generic

import (
	"net/http"

	"github.com/baalimago/chaperone/internal/models"
)

// StreamCompleter follows the OpenAI chat completions model, which ollama,
// the huggingface router and groq all expose.
type StreamCompleter struct {
	Model            string
	FrequencyPenalty *float64
	MaxTokens        *int
	PresencePenalty  *float64
	Temperature      *float64
	TopP             *float64
	URL              string
	client           *http.Client
	limiter          RateLimiter
	apiKey           string
	debug            bool
}

// completionEvent is one of: string, stopEvent, noopEvent, error
type completionEvent any

type (
	stopEvent struct{}
	noopEvent struct{}
)

type chatCompletionChunk struct {
	Id                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int      `json:"created"`
	Model             string   `json:"model"`
	SystemFingerprint string   `json:"system_fingerprint"`
	Choices           []Choice `json:"choices"`
}

type Choice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type Delta struct {
	Content any    `json:"content"`
	Role    string `json:"role"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type req struct {
	Model            string           `json:"model,omitempty"`
	ResponseFormat   responseFormat   `json:"response_format,omitempty"`
	Messages         []models.Message `json:"messages,omitempty"`
	Stream           bool             `json:"stream,omitempty"`
	FrequencyPenalty *float64         `json:"frequency_penalty,omitempty"`
	MaxTokens        *int             `json:"max_tokens,omitempty"`
	PresencePenalty  *float64         `json:"presence_penalty,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	TopP             *float64         `json:"top_p,omitempty"`
	N                int              `json:"n,omitempty"`
}
