// Package session manages conversation sessions: the trip request, the
// current plan and the message history tied to one session ID.
//
// A Manager serializes all work on a session, so concurrent requests for
// the same ID queue up instead of interleaving. Three Store backends are
// provided: in-memory, PostgreSQL and Redis.
package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/trip"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolInvocation records one tool call made while producing a reply.
type ToolInvocation struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Message is one entry in a session's conversation history.
type Message struct {
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	Invocations []ToolInvocation `json:"tool_invocations,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Session is the conversational state for one client.
// Request and Plan are nil until a plan has been generated.
// OwnerID is an opaque identifier supplied by the identity layer;
// this package never interprets it.
type Session struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   string           `json:"owner_id,omitempty"`
	Request   *trip.Request    `json:"request,omitempty"`
	Plan      *trip.PlanResult `json:"plan,omitempty"`
	Messages  []Message        `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewSession creates an empty session. A zero id gets a fresh UUID.
func NewSession(id uuid.UUID) *Session {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds messages to the history and bumps UpdatedAt.
func (s *Session) Append(msgs ...Message) {
	now := time.Now()
	for i := range msgs {
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = now
}

// SetPlan records the request and the generated plan on the session.
func (s *Session) SetPlan(req trip.Request, plan *trip.PlanResult) {
	s.Request = &req
	s.Plan = plan
	s.UpdatedAt = time.Now()
}
