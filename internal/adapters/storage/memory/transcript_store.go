package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avillegas/chatrelay/internal/domain"
)

// TranscriptStore keeps every live session's message sequence in memory.
// All mutations run under the store lock so an append or edit-truncate is
// a single atomic step; Export hands out copies so callers never read a
// sequence another request is mutating.
type TranscriptStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID][]*domain.Message
	now      func() time.Time
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		sessions: make(map[domain.SessionID][]*domain.Message),
		now:      time.Now,
	}
}

// Ensure creates an empty sequence for unknown sessions. Idempotent.
func (s *TranscriptStore) Ensure(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = []*domain.Message{}
	}
}

// Append adds msg to the session's sequence, assigning an ID and creation
// time if the caller did not supply them, and returns the stored message.
func (s *TranscriptStore) Append(sessionID domain.SessionID, msg *domain.Message) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return msg
}

// EditUserMessage replaces the text of the first user message with the
// given ID and discards everything after it: later turns, including model
// replies, no longer follow from the edited premise. Returns whether a
// matching message was found.
func (s *TranscriptStore) EditUserMessage(sessionID domain.SessionID, messageID domain.MessageID, newText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.sessions[sessionID]
	for i, msg := range msgs {
		if msg.ID == messageID && msg.Role == domain.RoleUser {
			msg.Parts = []string{newText}
			s.sessions[sessionID] = msgs[:i+1]
			return true
		}
	}
	return false
}

// Reset empties the session's sequence. Unknown sessions are left alone
// rather than created.
func (s *TranscriptStore) Reset(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		s.sessions[sessionID] = []*domain.Message{}
	}
}

// LoadIntoNewSession installs msgs under a fresh synthetic session ID so a
// restored conversation never collides with a live session.
func (s *TranscriptStore) LoadIntoNewSession(msgs []*domain.Message) domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := domain.SessionID("loaded_" + uuid.NewString())
	s.sessions[sessionID] = copyMessages(msgs)
	return sessionID
}

// Export returns a snapshot of the session's sequence in append order.
func (s *TranscriptStore) Export(sessionID domain.SessionID) []*domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyMessages(s.sessions[sessionID])
}

func copyMessages(msgs []*domain.Message) []*domain.Message {
	out := make([]*domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		c := *msg
		c.Parts = append([]string(nil), msg.Parts...)
		out = append(out, &c)
	}
	return out
}
