// Package session owns per-browser UI state: the currently loaded snapshot
// pair, the comparison narrative and the append-only chat log. Services below
// this layer are stateless; this is the only place state lives.
package session

import (
	"context"
	"sync"

	"github.com/vadiminshakov/stockpair/internal/entity"
)

// responder answers one chat question given the full prior log and the
// loaded snapshot pair.
type responder interface {
	AnswerQuestion(ctx context.Context, history []entity.ConversationTurn, question string, a, b *entity.Snapshot) string
}

// Session holds the state of one user session. One instance per browser,
// created on first load, cleared only by a new analyze run. HTTP handlers run
// concurrently, so the session serializes its own mutations; within a session
// each request still runs to completion before the next mutates state.
type Session struct {
	ID string

	mu        sync.Mutex
	symbolA   string
	symbolB   string
	snapA     *entity.Snapshot
	snapB     *entity.Snapshot
	narrative string
	turns     []entity.ConversationTurn

	engine responder
}

// SetPair installs a freshly fetched snapshot pair together with its
// comparison narrative and clears the chat log. This is the only way an
// existing turn log is ever emptied.
func (s *Session) SetPair(a, b *entity.Snapshot, narrative string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapA, s.snapB = a, b
	s.symbolA, s.symbolB = a.Symbol, b.Symbol
	s.narrative = narrative
	s.resetLocked()
}

// Reset clears the conversation log.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.turns = nil
}

// Pair returns the loaded snapshots, or nils when nothing has been analyzed.
func (s *Session) Pair() (*entity.Snapshot, *entity.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapA, s.snapB
}

// Symbols returns the loaded ticker pair.
func (s *Session) Symbols() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbolA, s.symbolB
}

// Narrative returns the stored comparison brief.
func (s *Session) Narrative() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.narrative
}

// Turns returns a copy of the conversation log in append order.
func (s *Session) Turns() []entity.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Loaded reports whether a snapshot pair is installed.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapA != nil && s.snapB != nil
}

// AppendAndRespond appends the user turn, asks the narrative engine with the
// full prior log as context, appends the assistant turn and returns its text.
// Turns are strictly append-ordered; nothing is edited or removed here.
func (s *Session) AppendAndRespond(ctx context.Context, question string) string {
	s.mu.Lock()
	a, b := s.snapA, s.snapB
	prior := make([]entity.ConversationTurn, len(s.turns))
	copy(prior, s.turns)
	s.turns = append(s.turns, entity.ConversationTurn{Role: entity.RoleUser, Text: question})
	s.mu.Unlock()

	answer := s.engine.AnswerQuestion(ctx, prior, question, a, b)

	s.mu.Lock()
	s.turns = append(s.turns, entity.ConversationTurn{Role: entity.RoleAssistant, Text: answer})
	s.mu.Unlock()

	return answer
}
