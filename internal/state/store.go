// Package state holds per-user in-memory chat histories used for prompt
// construction. It is deliberately independent from the persisted Message
// records: clearing a history never touches durable rows, and restarting the
// process loses nothing the user can see.
package state

import (
	"sync"

	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
)

// DefaultSystemPrompt seeds every session that is started without an
// explicit prompt.
const DefaultSystemPrompt = "You are a supportive, empathetic AI therapist. " +
	"Your role is to help users reflect on their thoughts and feelings in a " +
	"non-judgmental way. Ask open-ended questions and provide thoughtful " +
	"responses based on their journal entries."

// Store maps user IDs to ordered turn histories. The map itself and each
// per-user history are guarded separately so users never block each other.
// The first turn of a live history is always the system prompt.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	turns []llm.Turn
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*session)}
}

// Start (re)initializes the user's history to a single system turn.
// Idempotent: calling it twice never stacks system prompts.
func (s *Store) Start(userID, prompt string) {
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	sess := s.session(userID, true)
	sess.mu.Lock()
	sess.turns = []llm.Turn{{Role: llm.RoleSystem, Content: prompt}}
	sess.mu.Unlock()
}

// Ensure starts a session with the default prompt only if none exists.
// Single guarded check-then-create, safe under concurrent callers.
func (s *Store) Ensure(userID string) {
	s.session(userID, true)
}

// Append adds a turn to the user's history, implicitly starting a session
// with the default prompt first if none exists.
func (s *Store) Append(userID, role, content string) {
	sess := s.session(userID, true)
	sess.mu.Lock()
	sess.turns = append(sess.turns, llm.Turn{Role: role, Content: content})
	sess.mu.Unlock()
}

// History returns a copy of the user's ordered history, or nil if no
// session was ever started. "Never started" and "cleared" are distinct:
// a cleared session still holds its system turn.
func (s *Store) History(userID string) []llm.Turn {
	sess := s.session(userID, false)
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]llm.Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// End removes the user's session entirely.
func (s *Store) End(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Clear truncates the history back to its system turn. No-op when no
// session exists; it never creates one.
func (s *Store) Clear(userID string) {
	sess := s.session(userID, false)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	if len(sess.turns) > 1 {
		sess.turns = sess.turns[:1]
	}
	sess.mu.Unlock()
}

func (s *Store) session(userID string, create bool) *session {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok || !create {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[userID]; ok {
		return sess
	}
	sess = &session{turns: []llm.Turn{{Role: llm.RoleSystem, Content: DefaultSystemPrompt}}}
	s.sessions[userID] = sess
	return sess
}
