package groq

import (
	"github.com/baalimago/chaperone/internal/providers/generic"
)

var GROQ_DEFAULT = Groq{
	Model:       "llama3-70b-8192",
	Temperature: 1.0,
	TopP:        1.0,
	Url:         ChatURL,
}

// Groq is the cloud inference backend. Its API is OpenAI compatible and
// reports the token budget in response headers.
type Groq struct {
	generic.StreamCompleter
	Model            string  `json:"model"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	MaxTokens        *int    `json:"max_tokens"` // Use a pointer to allow null value
	PresencePenalty  float64 `json:"presence_penalty"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	Url              string  `json:"url"`
}
