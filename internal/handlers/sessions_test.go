package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_SweepIdle(t *testing.T) {
	e := newTestEnv(t)
	now := testNow
	e.Sessions.now = func() time.Time { return now }
	e.Sessions.ttl = 10 * time.Minute

	idle := e.newSession("v1")
	busy := e.newSession("v2")
	e.Sessions.Add(idle)
	e.Sessions.Add(busy)

	now = now.Add(6 * time.Minute)
	_, ok := e.Sessions.Get(busy.ID)
	require.True(t, ok)

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, e.Sessions.Sweep())

	_, ok = e.Sessions.Get(idle.ID)
	assert.False(t, ok)
	_, ok = e.Sessions.Get(busy.ID)
	assert.True(t, ok)
}

func TestSessions_RunStopsWithContext(t *testing.T) {
	s := NewSessions(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond, zerolog.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessions_OnCloseCalledForEveryExit(t *testing.T) {
	e := newTestEnv(t)
	now := testNow
	e.Sessions.now = func() time.Time { return now }
	e.Sessions.ttl = time.Minute

	var closed []string
	e.Sessions.OnClose(func(id string) { closed = append(closed, id) })

	removed := e.newSession("v1")
	idle := e.newSession("v2")
	last := e.newSession("v3")
	for _, s := range []*Session{removed, idle, last} {
		e.Sessions.Add(s)
	}

	require.True(t, e.Sessions.Remove(removed.ID))
	assert.False(t, e.Sessions.Remove(removed.ID))

	now = now.Add(2 * time.Minute)
	_, ok := e.Sessions.Get(last.ID)
	require.True(t, ok)
	require.Equal(t, 1, e.Sessions.Sweep())

	e.Sessions.CloseAll()

	assert.Equal(t, []string{removed.ID, idle.ID, last.ID}, closed)
}

func TestSessions_CloseAll(t *testing.T) {
	e := newTestEnv(t)
	e.Sessions.Add(e.newSession("v1"))
	e.Sessions.Add(e.newSession("v2"))

	e.Sessions.CloseAll()
	assert.Equal(t, 0, e.Sessions.Len())
}
