package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for unknown roles, providers or malformed
	// provider tables. Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider is returned when a generation call fails.
	ErrProvider = errors.New("provider error")
	// ErrParse is returned when raw output can't be sanitized.
	ErrParse = errors.New("parse error")
	// ErrStorage is returned for history backend failures. A missing record
	// is not one of them.
	ErrStorage = errors.New("storage error")
)

type Stage string

const (
	StageResolve  Stage = "resolve"
	StageLoad     Stage = "load"
	StagePrime    Stage = "prime"
	StageGenerate Stage = "generate"
	StageSanitize Stage = "sanitize"
	StagePersist  Stage = "persist"
)

// TurnError carries enough context for a caller to log or decide on retrying
// a failed turn.
type TurnError struct {
	Stage      Stage
	Role       string
	OwnerID    string
	SessionKey string
	Err        error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed at stage: '%v', role: '%v', owner: '%v', session: '%v': %v",
		e.Stage, e.Role, e.OwnerID, e.SessionKey, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Kind returns the sentinel of the taxonomy that err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrConfiguration, ErrProvider, ErrParse, ErrStorage} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
