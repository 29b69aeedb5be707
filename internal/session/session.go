// Package session holds the state shared between the chat window and the
// consumer that answers it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"emili/internal/models"
)

const defaultBuffer = 64

// Submission is one user message paired with its timestamp, so the two
// can never drift apart.
type Submission struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Session is owned by the application and passed by reference to the
// window (producer) and the relay (consumer).
type Session struct {
	start time.Time
	now   func() time.Time

	mu      sync.Mutex
	pending []Submission

	wake     chan struct{}
	incoming chan models.Message
}

func New(start time.Time) *Session {
	return &Session{
		start:    start,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
		incoming: make(chan models.Message, defaultBuffer),
	}
}

// Elapsed returns milliseconds since the session started.
func (s *Session) Elapsed() int64 {
	return s.now().Sub(s.start).Milliseconds()
}

// Submit queues text for the consumer and sets the wake signal.
// The queue is unbounded, so Submit never blocks the caller.
func (s *Session) Submit(text string) Submission {
	sub := Submission{
		ID:        uuid.NewString(),
		Text:      strings.TrimRight(text, "\n"),
		ElapsedMS: s.Elapsed(),
	}

	s.mu.Lock()
	s.pending = append(s.pending, sub)
	s.mu.Unlock()

	s.signal()

	return sub
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wake fires at least once after any number of Submit calls.
func (s *Session) Wake() <-chan struct{} {
	return s.wake
}

// Drain returns every pending submission in FIFO order without blocking.
func (s *Session) Drain() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.pending
	s.pending = nil
	return subs
}

// Deliver hands an inbound message to the window, waiting for room until
// ctx is done.
func (s *Session) Deliver(ctx context.Context, msg models.Message) error {
	select {
	case s.incoming <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Incoming() <-chan models.Message {
	return s.incoming
}
