// Package sanitize cleans raw model completions into user facing replies.
package sanitize

import (
	"fmt"
	"os"
	"strings"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

const (
	UserMarker      = "Human:"
	AssistantMarker = "AI:"
	ThinkStart      = "<think>"
	ThinkEnd        = "</think>"
)

// New returns the sanitizer for the parser kind.
func New(kind models.ParserKind) (models.Sanitizer, error) {
	switch kind {
	case models.ParserPlain:
		return Plain{}, nil
	case models.ParserThinkAnnotated:
		return Think{debug: debugEnabled()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown parser kind: '%v'", models.ErrConfiguration, kind)
	}
}

func debugEnabled() bool {
	return misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_SANITIZE"))
}

func single(candidates []string) (string, error) {
	if len(candidates) != 1 {
		return "", fmt.Errorf("%w: expected exactly one candidate generation, got: %v", models.ErrParse, len(candidates))
	}
	return candidates[0], nil
}

// Plain strips hallucinated continuations of the dialogue, or anything past
// the first line when the model didn't continue the dialogue.
type Plain struct{}

func (Plain) Clean(candidates []string) (string, error) {
	raw, err := single(candidates)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(raw)
	cut := -1
	for _, marker := range []string{UserMarker, AssistantMarker} {
		if i := strings.Index(content, marker); i != -1 && (cut == -1 || i < cut) {
			cut = i
		}
	}
	if cut == -1 {
		first, _, _ := strings.Cut(content, "\n")
		return strings.TrimSpace(first), nil
	}
	return strings.TrimSpace(content[:cut]), nil
}

// Think drops the single reasoning block of think-annotated models and
// returns whatever follows it.
type Think struct {
	debug bool
}

func (t Think) Clean(candidates []string) (string, error) {
	raw, err := single(candidates)
	if err != nil {
		return "", err
	}
	start := strings.Index(raw, ThinkStart)
	if start == -1 {
		return "", fmt.Errorf("%w: missing '%v' delimiter", models.ErrParse, ThinkStart)
	}
	end := strings.Index(raw[start:], ThinkEnd)
	if end == -1 {
		return "", fmt.Errorf("%w: missing '%v' delimiter", models.ErrParse, ThinkEnd)
	}
	end += start
	reasoning := raw[start+len(ThinkStart) : end]
	reply := raw[end+len(ThinkEnd):]
	// Exactly one block, any other delimiter would leak reasoning
	if strings.Count(raw, ThinkStart) != 1 || strings.Count(raw, ThinkEnd) != 1 {
		return "", fmt.Errorf("%w: expected exactly one reasoning block", models.ErrParse)
	}
	if t.debug {
		ancli.Noticef("reasoning block: %q\n", reasoning)
	}
	return strings.TrimSpace(reply), nil
}
