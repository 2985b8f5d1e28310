// Package session serves one conversation turn end to end: load the
// transcript, generate, sanitize and persist.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/chaperone/internal/history"
	"github.com/baalimago/chaperone/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/debug"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
)

type State int

const (
	Idle State = iota
	HistoryLoaded
	Generating
	Sanitizing
	Persisted
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HistoryLoaded:
		return "history-loaded"
	case Generating:
		return "generating"
	case Sanitizing:
		return "sanitizing"
	case Persisted:
		return "persisted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Resolver is the part of the provider registry a session needs.
type Resolver interface {
	Descriptor(role string) (models.ProviderDescriptor, error)
	Resolve(role string) (models.Generator, models.Sanitizer, error)
}

// Session composes a history store with the provider registry. It's safe for
// concurrent use, turns of the same (owner, session) pair are serialized.
type Session struct {
	store    history.Store
	registry Resolver
	locks    keyedMutex
	debug    bool
}

func New(store history.Store, registry Resolver) *Session {
	return &Session{
		store:    store,
		registry: registry,
		locks:    keyedMutex{locks: make(map[string]*refLock)},
		debug:    misc.Truthy(os.Getenv("DEBUG")) || misc.Truthy(os.Getenv("DEBUG_SESSION")),
	}
}

// turn tracks the progress of one HandleTurn call.
type turn struct {
	s          *Session
	ownerID    string
	sessionKey string
	role       string
	state      State
}

func (t *turn) transition(to State) {
	if t.s.debug {
		ancli.Noticef("session '%v/%v': %v -> %v\n", t.ownerID, t.sessionKey, t.state, to)
	}
	t.state = to
}

func (t *turn) fail(stage models.Stage, err error) error {
	t.transition(Failed)
	return &models.TurnError{
		Stage:      stage,
		Role:       t.role,
		OwnerID:    t.ownerID,
		SessionKey: t.sessionKey,
		Err:        err,
	}
}

// HandleTurn answers userText with the provider of role and records both
// sides of the exchange. When the reply can't be sanitized the user turn is
// still recorded.
func (s *Session) HandleTurn(ctx context.Context, ownerID, sessionKey, role, userText string) (string, error) {
	t := &turn{s: s, ownerID: ownerID, sessionKey: sessionKey, role: role}

	desc, err := s.registry.Descriptor(role)
	if err != nil {
		return "", t.fail(models.StageResolve, err)
	}
	gen, san, err := s.registry.Resolve(role)
	if err != nil {
		return "", t.fail(models.StageResolve, err)
	}

	unlock := s.locks.lock(ownerID + "\x00" + sessionKey)
	defer unlock()

	transcript, err := s.store.Read(ctx, ownerID, sessionKey)
	if err != nil {
		return "", t.fail(models.StageLoad, err)
	}
	if len(transcript) == 0 && desc.Priming {
		transcript, err = s.prime(ctx, ownerID, sessionKey, desc)
		if err != nil {
			return "", t.fail(models.StagePrime, err)
		}
	}
	t.transition(HistoryLoaded)

	userTurn := models.Turn{Role: models.RoleUser, Content: userText}
	msgs := buildContext(transcript, desc.Priming, userText)
	if s.debug {
		ancli.PrintOK(fmt.Sprintf("provider context: %v\n", debug.IndentedJsonFmt(msgs)))
	}

	t.transition(Generating)
	raw, err := gen.Generate(ctx, msgs)
	if err != nil {
		if !errors.Is(err, models.ErrProvider) {
			err = fmt.Errorf("%w: %w", models.ErrProvider, err)
		}
		return "", t.fail(models.StageGenerate, err)
	}

	t.transition(Sanitizing)
	reply, err := san.Clean([]string{raw})
	if err != nil {
		if !errors.Is(err, models.ErrParse) {
			err = fmt.Errorf("%w: %w", models.ErrParse, err)
		}
		if storeErr := s.store.Append(ctx, ownerID, sessionKey, userTurn); storeErr != nil {
			return "", t.fail(models.StagePersist, errors.Join(err, storeErr))
		}
		return "", t.fail(models.StageSanitize, err)
	}

	assistantTurn := models.Turn{Role: models.RoleAssistant, Content: reply}
	if err := s.store.Append(ctx, ownerID, sessionKey, userTurn, assistantTurn); err != nil {
		return "", t.fail(models.StagePersist, err)
	}
	t.transition(Persisted)
	return reply, nil
}

// prime stores the system prompt and an empty placeholder reply as the first
// two turns of a fresh transcript.
func (s *Session) prime(ctx context.Context, ownerID, sessionKey string, desc models.ProviderDescriptor) (models.Transcript, error) {
	err := s.store.Append(ctx, ownerID, sessionKey,
		models.Turn{Role: models.RoleUser, Content: desc.SystemPrompt},
		models.Turn{Role: models.RoleAssistant, Content: ""},
	)
	if err != nil {
		return nil, err
	}
	return s.store.Read(ctx, ownerID, sessionKey)
}

// buildContext maps the transcript to provider messages, ending with the new
// user message. The system prompt of a primed transcript is sent as a system
// message and its empty placeholder reply is left out.
func buildContext(transcript models.Transcript, priming bool, userText string) []models.Message {
	msgs := make([]models.Message, 0, len(transcript)+1)
	primed := priming && transcript.Primed()
	for i, turn := range transcript {
		switch {
		case primed && i == 0:
			msgs = append(msgs, models.Message{Role: "system", Content: turn.Content})
		case primed && i == 1 && turn.Content == "":
			continue
		case turn.Role == models.RoleUser:
			msgs = append(msgs, models.Message{Role: "user", Content: turn.Content})
		default:
			msgs = append(msgs, models.Message{Role: "assistant", Content: turn.Content})
		}
	}
	return append(msgs, models.Message{Role: "user", Content: userText})
}

// Transcript returns the stored transcript of the session.
func (s *Session) Transcript(ctx context.Context, ownerID, sessionKey string) (models.Transcript, error) {
	tr, err := s.store.Read(ctx, ownerID, sessionKey)
	if err != nil {
		return nil, &models.TurnError{Stage: models.StageLoad, OwnerID: ownerID, SessionKey: sessionKey, Err: err}
	}
	return tr, nil
}

// Clear truncates the session to its priming pair.
func (s *Session) Clear(ctx context.Context, ownerID, sessionKey string) error {
	unlock := s.locks.lock(ownerID + "\x00" + sessionKey)
	defer unlock()
	if err := s.store.Clear(ctx, ownerID, sessionKey); err != nil {
		return &models.TurnError{Stage: models.StagePersist, OwnerID: ownerID, SessionKey: sessionKey, Err: err}
	}
	return nil
}
