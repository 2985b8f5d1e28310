package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

type fileTurn struct {
	Index   int    `json:"index"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileStore keeps one JSON file per session key in a directory. Owners are
// not part of the layout, session keys are expected to be unique on their own.
type FileStore struct {
	dir   string
	debug bool
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create history dir: %w", models.ErrStorage, err)
	}
	return &FileStore{dir: dir, debug: debugEnabled()}, nil
}

func (s *FileStore) path(sessionKey string) (string, error) {
	if sessionKey == "" || sessionKey == "." || sessionKey == ".." ||
		strings.ContainsAny(sessionKey, `/\`) {
		return "", fmt.Errorf("%w: invalid session key: '%v'", models.ErrStorage, sessionKey)
	}
	return filepath.Join(s.dir, sessionKey+".json"), nil
}

func (s *FileStore) Read(ctx context.Context, ownerID, sessionKey string) (models.Transcript, error) {
	p, err := s.path(sessionKey)
	if err != nil {
		return nil, err
	}
	return s.read(p)
}

func (s *FileStore) read(p string) (models.Transcript, error) {
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("reading transcript from '%v'\n", p))
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Transcript{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read file: %w", models.ErrStorage, err)
	}
	var stored []fileTurn
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JSON of '%v': %w", models.ErrStorage, p, err)
	}
	ret := make(models.Transcript, 0, len(stored))
	for _, st := range stored {
		ret = append(ret, models.Turn{
			Index:   st.Index,
			Role:    decodeRole(st.Role),
			Content: st.Content,
		})
	}
	if err := validateOrder(ret); err != nil {
		return nil, fmt.Errorf("'%v': %w", p, err)
	}
	return ret, nil
}

func (s *FileStore) Append(ctx context.Context, ownerID, sessionKey string, newTurns ...models.Turn) error {
	p, err := s.path(sessionKey)
	if err != nil {
		return err
	}
	current, err := s.read(p)
	if err != nil {
		return err
	}
	return s.write(p, merge(current, newTurns))
}

func (s *FileStore) Clear(ctx context.Context, ownerID, sessionKey string) error {
	p, err := s.path(sessionKey)
	if err != nil {
		return err
	}
	current, err := s.read(p)
	if err != nil {
		return err
	}
	return s.write(p, truncate(current))
}

// write replaces the file atomically, so that a crash never leaves a half
// written transcript behind.
func (s *FileStore) write(p string, t models.Transcript) error {
	stored := make([]fileTurn, 0, len(t))
	for _, turn := range t {
		stored = append(stored, fileTurn{
			Index:   turn.Index,
			Role:    encodeRole(turn.Role),
			Content: turn.Content,
		})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("%w: failed to encode JSON: %w", models.ErrStorage, err)
	}
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("saving transcript to: '%v', content (on new line):\n'%v'\n", p, string(b)))
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: CreateTemp: %w", models.ErrStorage, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write tmp: %w", models.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close tmp: %w", models.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%w: rename tmp to final: %w", models.ErrStorage, err)
	}
	return nil
}
