package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emili/internal/models"
)

func fixedClock(s *Session, at time.Time) {
	s.now = func() time.Time { return at }
}

func TestSubmitPairsTextWithElapsedTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(start)
	fixedClock(s, start.Add(1500*time.Millisecond))

	sub := s.Submit("hello there\n")

	assert.Equal(t, "hello there", sub.Text)
	assert.Equal(t, int64(1500), sub.ElapsedMS)
	assert.NotEmpty(t, sub.ID)

	pending := s.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, sub, pending[0])
}

func TestSubmitSetsWakeOncePerSubmission(t *testing.T) {
	s := New(time.Now())

	s.Submit("one")

	select {
	case <-s.Wake():
	default:
		t.Fatal("wake should be set")
	}
	select {
	case <-s.Wake():
		t.Fatal("wake should have been set only once")
	default:
	}
}

func TestWakeCoalescesAndDrainKeepsOrder(t *testing.T) {
	start := time.Now()
	s := New(start)

	for i, text := range []string{"a", "b", "c"} {
		fixedClock(s, start.Add(time.Duration(i)*time.Second))
		s.Submit(text)
	}

	<-s.Wake()
	pending := s.Drain()

	require.Len(t, pending, 3)
	for i, text := range []string{"a", "b", "c"} {
		assert.Equal(t, text, pending[i].Text)
		assert.Equal(t, int64(i*1000), pending[i].ElapsedMS)
	}
	assert.Empty(t, s.Drain())
}

func TestSubmitWithoutConsumerDoesNotBlock(t *testing.T) {
	s := New(time.Now())

	const n = 4 * defaultBuffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			s.Submit(fmt.Sprint(i))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked with no consumer")
	}

	pending := s.Drain()
	require.Len(t, pending, n)
	for i, sub := range pending {
		assert.Equal(t, fmt.Sprint(i), sub.Text)
	}
}

func TestDeliverReachesIncoming(t *testing.T) {
	s := New(time.Now())
	msg := models.Message{Role: models.RoleAssistant, Content: "hi"}

	require.NoError(t, s.Deliver(context.Background(), msg))

	assert.Equal(t, msg, <-s.Incoming())
}

func TestDeliverGivesUpWhenContextDone(t *testing.T) {
	s := New(time.Now())
	for i := 0; i < defaultBuffer; i++ {
		require.NoError(t, s.Deliver(context.Background(), models.Message{Role: models.RoleAssistant}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Deliver(ctx, models.Message{Role: models.RoleAssistant, Content: "late"})
	assert.ErrorIs(t, err, context.Canceled)
}
