package models

import (
	"context"
	"fmt"
	"time"
)

// Role of a persisted turn. Only two exist, the system prompt of a primed
// transcript is stored as a user turn.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

type Turn struct {
	Index   int
	Role    Role
	Content string
	// CreatedAt is zero for backends which don't record time.
	CreatedAt time.Time
}

// Transcript is the ordered turn history of one (owner, session) pair.
type Transcript []Turn

// Primed reports whether the transcript starts with a priming pair.
func (t Transcript) Primed() bool {
	return len(t) >= 2 && t[0].Role == RoleUser && t[1].Role == RoleAssistant
}

// LastIndex returns the index of the final turn, or 0 for an empty transcript.
func (t Transcript) LastIndex() int {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Index
}

// Message is the wire representation of a chat message sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type BackendKind string

const (
	BackendLocal           BackendKind = "local"
	BackendRemoteInference BackendKind = "remote-inference"
	BackendCloudInference  BackendKind = "cloud-inference"
)

func (b BackendKind) Valid() bool {
	switch b {
	case BackendLocal, BackendRemoteInference, BackendCloudInference:
		return true
	}
	return false
}

type ParserKind string

const (
	ParserPlain          ParserKind = "plain"
	ParserThinkAnnotated ParserKind = "think-annotated"
)

func (p ParserKind) Valid() bool {
	switch p {
	case ParserPlain, ParserThinkAnnotated:
		return true
	}
	return false
}

// ProviderDescriptor binds a logical role to a model on a backend, and to the
// parser used to clean its output.
type ProviderDescriptor struct {
	Role    string      `json:"role"`
	Model   string      `json:"model"`
	Backend BackendKind `json:"backend"`
	Parser  ParserKind  `json:"parser"`
	// Priming makes a fresh transcript start with SystemPrompt followed by an
	// empty assistant reply.
	Priming      bool   `json:"priming"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Generator produces the raw completion for a conversation context.
type Generator interface {
	Generate(ctx context.Context, msgs []Message) (string, error)
}

// Sanitizer turns raw candidate generations into a user facing reply.
type Sanitizer interface {
	Clean(candidates []string) (string, error)
}
