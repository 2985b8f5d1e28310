package ollama

import (
	"fmt"
	"os"
	"strings"
)

const ChatURL = "http://localhost:11434/v1/chat/completions"

// Setup prepares the adapter. A local ollama doesn't check the key, so a
// placeholder is used when none is set.
func (g *Ollama) Setup() error {
	if os.Getenv("OLLAMA_API_KEY") == "" {
		os.Setenv("OLLAMA_API_KEY", "ollama")
	}
	url := g.Url
	if url == "" {
		url = ChatURL
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		// ollama itself accepts a bare host:port
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		url = strings.TrimSuffix(host, "/") + "/v1/chat/completions"
	}
	err := g.StreamCompleter.Setup("OLLAMA_API_KEY", url, "OLLAMA_DEBUG")
	if err != nil {
		return fmt.Errorf("failed to setup stream completer: %w", err)
	}
	g.StreamCompleter.Model = g.Model
	g.StreamCompleter.FrequencyPenalty = &g.FrequencyPenalty
	g.StreamCompleter.MaxTokens = g.MaxTokens
	g.StreamCompleter.PresencePenalty = &g.PresencePenalty
	g.StreamCompleter.Temperature = &g.Temperature
	g.StreamCompleter.TopP = &g.TopP
	return nil
}
