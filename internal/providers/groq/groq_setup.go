package groq

import (
	"fmt"

	"github.com/baalimago/chaperone/internal/providers/generic"
)

const (
	ChatURL        = "https://api.groq.com/openai/v1/chat/completions"
	EnvAPIKey      = "GROQ_API_KEY"
	EnvDebugKey    = "GROQ_DEBUG"
	remainingToken = "x-ratelimit-remaining-tokens"
	resetToken     = "x-ratelimit-reset-tokens"
)

func (g *Groq) Setup() error {
	url := g.Url
	if url == "" {
		url = ChatURL
	}
	err := g.StreamCompleter.Setup(EnvAPIKey, url, EnvDebugKey)
	if err != nil {
		return fmt.Errorf("failed to setup stream completer: %w", err)
	}
	g.StreamCompleter.Model = g.Model
	g.StreamCompleter.FrequencyPenalty = &g.FrequencyPenalty
	g.StreamCompleter.MaxTokens = g.MaxTokens
	g.StreamCompleter.PresencePenalty = &g.PresencePenalty
	g.StreamCompleter.Temperature = &g.Temperature
	g.StreamCompleter.TopP = &g.TopP
	g.SetRateLimiter(generic.NewRateLimiter(remainingToken, resetToken))
	return nil
}
