package main

import (
	"fmt"
	"path/filepath"

	"github.com/baalimago/chaperone/internal/docstore"
	"github.com/baalimago/chaperone/internal/history"
	"github.com/baalimago/chaperone/internal/utils"
)

// RemoteDBFile is the document database backing the remote history backend,
// relative to the config dir.
const RemoteDBFile = "history.db"

// openStore opens the history backend named by backend. The returned close
// func is never nil.
func openStore(backend, configDir string) (history.Store, func() error, error) {
	switch backend {
	case backendFile:
		s, err := history.NewFileStore(filepath.Join(configDir, utils.ConversationsDir))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file history: %w", err)
		}
		return s, func() error { return nil }, nil
	case backendRemote:
		db, err := docstore.NewSQLite(filepath.Join(configDir, RemoteDBFile))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open remote history: %w", err)
		}
		return history.NewRemoteStore(db.Collection(history.RemoteCollection)), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend: '%v'", backend)
}
