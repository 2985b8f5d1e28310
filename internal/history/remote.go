package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baalimago/chaperone/internal/docstore"
	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// RemoteCollection is the document store collection which holds transcripts.
const RemoteCollection = "history"

type remoteTurn struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RemoteStore keeps one document per owner, holding one field per session key.
// Writes of the same session by other processes are not detected, the last
// writer wins.
type RemoteStore struct {
	docs  docstore.Store
	now   func() time.Time
	debug bool
}

var _ Store = (*RemoteStore)(nil)

func NewRemoteStore(docs docstore.Store) *RemoteStore {
	return &RemoteStore{docs: docs, now: time.Now, debug: debugEnabled()}
}

// Read creates an empty document for owners that have none yet.
func (s *RemoteStore) Read(ctx context.Context, ownerID, sessionKey string) (models.Transcript, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", models.ErrStorage)
	}
	doc, found, err := s.docs.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get document of owner '%v': %w", models.ErrStorage, ownerID, err)
	}
	if !found {
		if s.debug {
			ancli.Noticef("no history document for owner: '%v', creating it\n", ownerID)
		}
		empty, _ := json.Marshal([]remoteTurn{})
		err := s.docs.Set(ctx, ownerID, docstore.Document{sessionKey: empty}, true)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create document of owner '%v': %w", models.ErrStorage, ownerID, err)
		}
		return models.Transcript{}, nil
	}
	field, ok := doc[sessionKey]
	if !ok {
		return models.Transcript{}, nil
	}
	var stored []remoteTurn
	if err := json.Unmarshal(field, &stored); err != nil {
		return nil, fmt.Errorf("%w: failed to decode session '%v' of owner '%v': %w", models.ErrStorage, sessionKey, ownerID, err)
	}
	ret := make(models.Transcript, 0, len(stored))
	for _, st := range stored {
		ret = append(ret, models.Turn{
			Index:     st.Index,
			Role:      decodeRole(st.Role),
			Content:   st.Content,
			CreatedAt: st.Timestamp,
		})
	}
	if err := validateOrder(ret); err != nil {
		return nil, fmt.Errorf("session '%v' of owner '%v': %w", sessionKey, ownerID, err)
	}
	return ret, nil
}

func (s *RemoteStore) Append(ctx context.Context, ownerID, sessionKey string, newTurns ...models.Turn) error {
	current, err := s.Read(ctx, ownerID, sessionKey)
	if err != nil {
		return err
	}
	stamped := make([]models.Turn, len(newTurns))
	now := s.now()
	for i, t := range newTurns {
		t.CreatedAt = now
		stamped[i] = t
	}
	return s.write(ctx, ownerID, sessionKey, merge(current, stamped))
}

func (s *RemoteStore) Clear(ctx context.Context, ownerID, sessionKey string) error {
	current, err := s.Read(ctx, ownerID, sessionKey)
	if err != nil {
		return err
	}
	return s.write(ctx, ownerID, sessionKey, truncate(current))
}

func (s *RemoteStore) write(ctx context.Context, ownerID, sessionKey string, t models.Transcript) error {
	stored := make([]remoteTurn, 0, len(t))
	for _, turn := range t {
		stored = append(stored, remoteTurn{
			Index:     turn.Index,
			Role:      encodeRole(turn.Role),
			Content:   turn.Content,
			Timestamp: turn.CreatedAt,
		})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("%w: failed to encode JSON: %w", models.ErrStorage, err)
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("saving session '%v' of owner '%v', %v turns\n", sessionKey, ownerID, len(stored)))
	}
	if err := s.docs.Update(ctx, ownerID, docstore.Document{sessionKey: b}); err != nil {
		return fmt.Errorf("%w: failed to update document of owner '%v': %w", models.ErrStorage, ownerID, err)
	}
	return nil
}
