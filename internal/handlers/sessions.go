package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ev-configurator-backend/internal/configurator"
	"ev-configurator-backend/internal/metrics"
)

// Session — открытая страница конфигуратора: свой движок и свои уведомления.
// Движок не потокобезопасен, все обращения идут под mu.
type Session struct {
	ID        string
	VisitorID string

	mu      sync.Mutex
	engine  *configurator.Engine
	notices *configurator.Notices

	lastSeen time.Time // под Sessions.mu
}

// Sessions — реестр сессий с вытеснением по времени простоя.
type Sessions struct {
	mu    sync.Mutex
	items map[string]*Session
	ttl   time.Duration
	now   func() time.Time

	onClose func(id string) // задаётся до запуска, вызывается вне mu
}

// NewSessions создаёт реестр; сессия без обращений дольше ttl удаляется при Sweep.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		items: make(map[string]*Session),
		ttl:   ttl,
		now:   time.Now,
	}
}

// OnClose задаёт действие при закрытии сессии (Remove, Sweep, CloseAll).
// Вызывать до начала работы с реестром.
func (s *Sessions) OnClose(fn func(id string)) {
	s.onClose = fn
}

func (s *Sessions) release(sess *Session) {
	sess.notices.Close()
	if s.onClose != nil {
		s.onClose(sess.ID)
	}
}

// Add регистрирует сессию
func (s *Sessions) Add(sess *Session) {
	s.mu.Lock()
	sess.lastSeen = s.now()
	s.items[sess.ID] = sess
	n := len(s.items)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
}

// Get находит сессию и продлевает ей жизнь
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// Remove закрывает и удаляет сессию
func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.items[id]
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()

	if ok {
		s.release(sess)
		metrics.SetActiveSessions(n)
	}
	return ok
}

// Len — число живых сессий
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep удаляет простаивающие сессии и возвращает их число.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(s.items, id)
		}
	}
	n := len(s.items)
	s.mu.Unlock()

	for _, sess := range expired {
		s.release(sess)
	}
	if len(expired) > 0 {
		metrics.SetActiveSessions(n)
	}
	return len(expired)
}

// Run периодически вызывает Sweep до отмены ctx.
func (s *Sessions) Run(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug().Int("expired", n).Msg("idle sessions swept")
			}
		}
	}
}

// CloseAll закрывает все сессии (при остановке сервера).
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range items {
		s.release(sess)
	}
	metrics.SetActiveSessions(0)
}
