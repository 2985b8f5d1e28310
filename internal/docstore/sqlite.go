package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	_ "modernc.org/sqlite"
)

// SQLite holds documents of every collection in one database file.
type SQLite struct {
	db *sql.DB
	// Serializes read-modify-write of merges to avoid SQLITE_BUSY
	writeMu sync.Mutex
	debug   bool
}

// NewSQLite opens, and creates if needed, the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{
		db:    db,
		debug: misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_DOCSTORE")),
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_ts INTEGER NOT NULL,
		PRIMARY KEY (collection, doc_id)
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Collection returns a Store scoped to the named collection.
func (s *SQLite) Collection(name string) *Collection {
	return &Collection{db: s, name: name}
}

var _ Store = (*Collection)(nil)

// Collection is a Store over one collection of a SQLite database.
type Collection struct {
	db   *SQLite
	name string
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *Collection) get(ctx context.Context, q querier, key string) (Document, bool, error) {
	row := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = ? AND doc_id = ?`, c.name, key)
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("scan document row: %w", err)
	}
	var doc Document
	if err := json.NewDecoder(strings.NewReader(data)).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("decode document '%v/%v': %w", c.name, key, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, true, nil
}

func (c *Collection) Get(ctx context.Context, key string) (Document, bool, error) {
	return c.get(ctx, c.db.db, key)
}

func (c *Collection) Set(ctx context.Context, key string, doc Document, merge bool) error {
	return c.write(ctx, key, doc, merge, false)
}

func (c *Collection) Update(ctx context.Context, key string, doc Document) error {
	return c.write(ctx, key, doc, true, true)
}

func (c *Collection) write(ctx context.Context, key string, doc Document, merge, mustExist bool) error {
	c.db.writeMu.Lock()
	defer c.db.writeMu.Unlock()

	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var toStore Document
	if merge {
		existing, found, err := c.get(ctx, tx, key)
		if err != nil {
			return err
		}
		if mustExist && !found {
			return fmt.Errorf("update '%v/%v': %w", c.name, key, ErrNotFound)
		}
		toStore = mergeInto(existing, doc)
	} else {
		toStore = mergeInto(nil, doc)
	}

	b, err := json.Marshal(toStore)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	query := `
	INSERT INTO documents (collection, doc_id, data, updated_ts)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(collection, doc_id) DO UPDATE SET
		data = excluded.data,
		updated_ts = excluded.updated_ts`
	if _, err := tx.ExecContext(ctx, query, c.name, key, string(b), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document: %w", err)
	}
	if c.db.debug {
		ancli.Okf("stored document '%v/%v', %v fields\n", c.name, key, len(toStore))
	}
	return nil
}
