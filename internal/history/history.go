// Package history persists chat transcripts. Every backend re-materializes the
// whole transcript on each write, so Append is O(transcript length).
package history

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

// PrimingLength is the amount of leading turns Clear keeps.
const PrimingLength = 2

// Stored role literals.
const (
	storedUser      = "user"
	storedAssistant = "chatbot"
)

type Store interface {
	// Read returns the transcript, or an empty one if nothing is stored yet.
	Read(ctx context.Context, ownerID, sessionKey string) (models.Transcript, error)
	// Append merges newTurns after the stored transcript. Indices of newTurns
	// are assigned by the store.
	Append(ctx context.Context, ownerID, sessionKey string, newTurns ...models.Turn) error
	// Clear truncates the transcript to its priming pair, or to empty.
	Clear(ctx context.Context, ownerID, sessionKey string) error
}

func debugEnabled() bool {
	return misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_HISTORY"))
}

// merge returns current followed by newTurns, with newTurns renumbered to
// continue after the last stored index.
func merge(current models.Transcript, newTurns []models.Turn) models.Transcript {
	ret := make(models.Transcript, 0, len(current)+len(newTurns))
	ret = append(ret, current...)
	next := current.LastIndex() + 1
	for _, t := range newTurns {
		t.Index = next
		next++
		ret = append(ret, t)
	}
	return ret
}

// truncate keeps at most the priming pair of t.
func truncate(t models.Transcript) models.Transcript {
	if len(t) < PrimingLength {
		return models.Transcript{}
	}
	return slices.Clone(t[:PrimingLength])
}

func encodeRole(r models.Role) string {
	if r == models.RoleUser {
		return storedUser
	}
	return storedAssistant
}

func decodeRole(s string) models.Role {
	if s == storedUser {
		return models.RoleUser
	}
	return models.RoleAssistant
}

// validateOrder checks that indices are strictly increasing.
func validateOrder(t models.Transcript) error {
	for i := 1; i < len(t); i++ {
		if t[i].Index <= t[i-1].Index {
			return fmt.Errorf("%w: transcript index %v follows %v", models.ErrStorage, t[i].Index, t[i-1].Index)
		}
	}
	return nil
}
