package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("no messages to undo")
	// ErrNothingToRedo is returned by Redo on an empty redo buffer.
	ErrNothingToRedo = errors.New("no messages to redo")
	// ErrQueueEmpty is returned by DequeuePending when no prompt is waiting.
	ErrQueueEmpty = errors.New("no pending prompts")
	// ErrSessionNotFound is returned when a session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one conversation. Every operation is a single atomic
// transition; sessions are safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	messages []*Message
	redo     []*Message
	pending  []string
}

// New creates an empty session.
func New(id string) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now().UTC(),
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Append records a new message and discards the redo buffer.
func (s *Session) Append(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.redo = nil
}

// Undo moves the newest message to the redo buffer and returns it.
func (s *Session) Undo() (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.messages)
	if n == 0 {
		return nil, ErrNothingToUndo
	}
	msg := s.messages[n-1]
	s.messages[n-1] = nil
	s.messages = s.messages[:n-1]
	s.redo = append(s.redo, msg)
	return msg, nil
}

// Redo moves the most recently undone message back to the history.
func (s *Session) Redo() (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.redo)
	if n == 0 {
		return nil, ErrNothingToRedo
	}
	msg := s.redo[n-1]
	s.redo[n-1] = nil
	s.redo = s.redo[:n-1]
	s.messages = append(s.messages, msg)
	return msg, nil
}

// Clear empties the history, the redo buffer and the pending queue.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.redo = nil
	s.pending = nil
}

// EnqueuePending appends prompt to the pending queue. Blank prompts are
// ignored and reported as false.
func (s *Session) EnqueuePending(prompt string) bool {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, prompt)
	return true
}

// DequeuePending removes and returns the oldest pending prompt.
func (s *Session) DequeuePending() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return "", ErrQueueEmpty
	}
	prompt := s.pending[0]
	s.pending = s.pending[1:]
	if len(s.pending) == 0 {
		s.pending = nil
	}
	return prompt, nil
}

// Messages returns a copy of the history, oldest first.
func (s *Session) Messages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending returns a copy of the pending queue, head first.
func (s *Session) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.pending))
	copy(out, s.pending)
	return out
}

// Stats returns the current sizes without modifying the session.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Messages: len(s.messages),
		Pending:  len(s.pending),
		Undo:     len(s.messages),
		Redo:     len(s.redo),
	}
}
