package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/baalimago/chaperone/internal/docstore"
	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

const (
	owner   = "owner-1"
	session = "session-1"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "conversations"))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
		"remote": func(t *testing.T) Store {
			db, err := docstore.NewSQLite(filepath.Join(t.TempDir(), "docs.db"))
			if err != nil {
				t.Fatalf("NewSQLite: %v", err)
			}
			t.Cleanup(func() { db.Close() })
			return NewRemoteStore(db.Collection(RemoteCollection))
		},
	}
}

func user(content string) models.Turn {
	return models.Turn{Role: models.RoleUser, Content: content}
}

func assistant(content string) models.Turn {
	return models.Turn{Role: models.RoleAssistant, Content: content}
}

func mustRead(t *testing.T, s Store) models.Transcript {
	t.Helper()
	tr, err := s.Read(context.Background(), owner, session)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return tr
}

func mustAppend(t *testing.T, s Store, turns ...models.Turn) {
	t.Helper()
	if err := s.Append(context.Background(), owner, session, turns...); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func assertContents(t *testing.T, tr models.Transcript, want ...string) {
	t.Helper()
	if len(tr) != len(want) {
		t.Fatalf("expected %v turns, got %v: %+v", len(want), len(tr), tr)
	}
	for i, w := range want {
		testboil.FailTestIfDiff(t, tr[i].Content, w)
		testboil.FailTestIfDiff(t, tr[i].Index, i+1)
	}
}

func TestContract_ReadEmpty(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			tr := mustRead(t, newStore(t))
			if tr == nil || len(tr) != 0 {
				t.Fatalf("expected empty non-nil transcript, got: %#v", tr)
			}
		})
	}
}

func TestContract_AppendAssignsIndices(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			// Caller supplied indices are ignored
			mustAppend(t, s, models.Turn{Index: 42, Role: models.RoleUser, Content: "a"})
			mustAppend(t, s, assistant("b"), user("c"))
			tr := mustRead(t, s)
			assertContents(t, tr, "a", "b", "c")
			testboil.FailTestIfDiff(t, tr[0].Role.String(), "user")
			testboil.FailTestIfDiff(t, tr[1].Role.String(), "assistant")
			testboil.FailTestIfDiff(t, tr[2].Role.String(), "user")
		})
	}
}

func TestContract_SequentialEqualsBatchAppend(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seq, batch := newStore(t), newStore(t)
			mustAppend(t, seq, user("a"))
			mustAppend(t, seq, assistant("b"))
			mustAppend(t, batch, user("a"), assistant("b"))

			a, b := mustRead(t, seq), mustRead(t, batch)
			if len(a) != len(b) {
				t.Fatalf("length mismatch: %v vs %v", len(a), len(b))
			}
			for i := range a {
				testboil.FailTestIfDiff(t, a[i].Index, b[i].Index)
				testboil.FailTestIfDiff(t, a[i].Role, b[i].Role)
				testboil.FailTestIfDiff(t, a[i].Content, b[i].Content)
			}
		})
	}
}

func TestContract_Clear(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			mustAppend(t, s, user("system prompt"), assistant(""), user("q"), assistant("a"))
			if err := s.Clear(ctx, owner, session); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			assertContents(t, mustRead(t, s), "system prompt", "")

			// idempotent
			if err := s.Clear(ctx, owner, session); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			assertContents(t, mustRead(t, s), "system prompt", "")

			// appends continue after the priming pair
			mustAppend(t, s, user("again"))
			assertContents(t, mustRead(t, s), "system prompt", "", "again")
		})
	}
}

func TestContract_ClearShortTranscript(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			mustAppend(t, s, user("lonely"))
			if err := s.Clear(ctx, owner, session); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			assertContents(t, mustRead(t, s))

			if err := s.Clear(ctx, owner, "never-seen"); err != nil {
				t.Fatalf("Clear of unknown session: %v", err)
			}
		})
	}
}

func TestContract_SessionsAreIsolated(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			mustAppend(t, s, user("a"))
			if err := s.Append(ctx, owner, "other", user("x"), assistant("y")); err != nil {
				t.Fatalf("Append: %v", err)
			}
			assertContents(t, mustRead(t, s), "a")
			other, err := s.Read(ctx, owner, "other")
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			assertContents(t, other, "x", "y")
		})
	}
}

func TestMerge(t *testing.T) {
	current := models.Transcript{{Index: 1}, {Index: 2}, {Index: 7}}
	got := merge(current, []models.Turn{{Index: 1}, {Index: 1}})
	testboil.FailTestIfDiff(t, len(got), 5)
	testboil.FailTestIfDiff(t, got[3].Index, 8)
	testboil.FailTestIfDiff(t, got[4].Index, 9)
	testboil.FailTestIfDiff(t, len(current), 3)
}

func TestTruncateDoesNotAlias(t *testing.T) {
	current := models.Transcript{{Index: 1, Content: "p"}, {Index: 2}, {Index: 3}}
	got := truncate(current)
	got[0].Content = "changed"
	testboil.FailTestIfDiff(t, current[0].Content, "p")
}

func TestRoleEncoding(t *testing.T) {
	testboil.FailTestIfDiff(t, encodeRole(models.RoleUser), "user")
	testboil.FailTestIfDiff(t, encodeRole(models.RoleAssistant), "chatbot")
	testboil.FailTestIfDiff(t, decodeRole("chatbot"), models.RoleAssistant)
	testboil.FailTestIfDiff(t, decodeRole("ai"), models.RoleAssistant)
	testboil.FailTestIfDiff(t, decodeRole("user"), models.RoleUser)
}
