package huggingface

import (
	"github.com/baalimago/chaperone/internal/providers/generic"
)

// HuggingFaceChat talks to the Hugging Face OpenAI-compatible router.
type HuggingFaceChat struct {
	generic.StreamCompleter

	Model       string  `json:"model"`
	MaxTokens   *int    `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	URL         string  `json:"url"`
}

var DefaultChat = HuggingFaceChat{
	Model:       DefaultModelName,
	Temperature: 1.0,
	TopP:        1.0,
	URL:         DefaultChatURL,
}

func (h *HuggingFaceChat) Setup() error {
	if h.URL == "" {
		h.URL = DefaultChatURL
	}

	if err := h.StreamCompleter.Setup(EnvAPITokenKey, h.URL, EnvDebugKey); err != nil {
		return err
	}

	h.StreamCompleter.Model = h.Model
	h.StreamCompleter.MaxTokens = h.MaxTokens
	h.StreamCompleter.Temperature = &h.Temperature
	h.StreamCompleter.TopP = &h.TopP
	return nil
}
