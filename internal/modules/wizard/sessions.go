package wizard

import (
	"sync"
	"time"

	"therapyspace/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionConfig struct {
	SubmitDelay time.Duration
	IdleTTL     time.Duration
}

type session struct {
	wizard   *Wizard
	lastSeen time.Time
}

// Sessions keeps one Wizard per browser flow, keyed by an opaque id.
type Sessions struct {
	catalog Catalog
	store   BookingWriter
	cfg     SessionConfig
	log     *zap.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*session
}

func NewSessions(catalog Catalog, store BookingWriter, cfg SessionConfig, log *zap.Logger, m *metrics.BookingMetrics) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{
		catalog: catalog,
		store:   store,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
		items:   make(map[string]*session),
	}
}

func (s *Sessions) Create() (string, *Wizard) {
	id := uuid.NewString()
	w := New(s.catalog, s.store, s.cfg.SubmitDelay, s.log.With(zap.String("session_id", id)))

	s.mu.Lock()
	s.items[id] = &session{wizard: w, lastSeen: s.now()}
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return id, w
}

// Get returns the wizard for id and marks the session as active.
func (s *Sessions) Get(id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess.wizard, nil
}

func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	return ok
}

// Sweep drops sessions idle for longer than the configured TTL. Sessions
// with a submission in flight are kept.
func (s *Sessions) Sweep() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.items {
		if sess.lastSeen.After(cutoff) || sess.wizard.Submitting() {
			continue
		}
		delete(s.items, id)
		removed++
	}
	n := len(s.items)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(n)
	if removed > 0 {
		s.log.Info("idle wizard sessions swept", zap.Int("removed", removed), zap.Int("remaining", n))
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
