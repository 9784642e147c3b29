package service

import (
	"context"
	"sync"
	"time"

	"ai-devguide-be/internal/pkg/logger"
)

const (
	DefaultSyncDebounce = 2 * time.Second
	syncSaveTimeout     = 30 * time.Second
)

// SaveFunc writes the current state of one session to the remote store.
type SaveFunc func(ctx context.Context, sessionID string) error

type syncEntry struct {
	gen      uint64
	pending  bool // a debounce timer is armed
	timer    *time.Timer
	inFlight bool
	dirty    bool // changed while a save was running
}

// SessionSyncer debounces remote saves per session and keeps at most one save
// in flight for each of them. A change that lands mid-save is picked up by
// exactly one follow-up save.
type SessionSyncer struct {
	debounce time.Duration
	save     SaveFunc
	logger   logger.ILogger

	mu      sync.Mutex
	entries map[string]*syncEntry
	closed  bool
	wg      sync.WaitGroup
}

func NewSessionSyncer(debounce time.Duration, save SaveFunc, log logger.ILogger) *SessionSyncer {
	if debounce <= 0 {
		debounce = DefaultSyncDebounce
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &SessionSyncer{
		debounce: debounce,
		save:     save,
		logger:   log,
		entries:  make(map[string]*syncEntry),
	}
}

// Schedule (re)arms the debounce timer for a session.
func (s *SessionSyncer) Schedule(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Warn("SessionSyncer", "Schedule after close ignored", map[string]interface{}{"session_id": sessionID})
		return
	}

	e, ok := s.entries[sessionID]
	if !ok {
		e = &syncEntry{}
		s.entries[sessionID] = e
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.pending = true
	gen := e.gen
	e.timer = time.AfterFunc(s.debounce, func() { s.fire(sessionID, gen) })
}

// Cancel drops a pending save. A save already running is left to finish.
func (s *SessionSyncer) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.pending = false
	e.timer = nil
	e.dirty = false
	if !e.inFlight {
		delete(s.entries, sessionID)
	}
}

func (s *SessionSyncer) fire(sessionID string, gen uint64) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if !ok || !e.pending || e.gen != gen {
		// superseded by a later Schedule, cancelled or flushed
		s.mu.Unlock()
		return
	}
	e.pending = false
	e.timer = nil
	if e.inFlight {
		e.dirty = true
		s.mu.Unlock()
		return
	}
	e.inFlight = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.run(sessionID, e)
}

func (s *SessionSyncer) run(sessionID string, e *syncEntry) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), syncSaveTimeout)
		err := s.save(ctx, sessionID)
		cancel()
		if err != nil {
			s.logger.Warn("SessionSyncer", "Remote save failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}

		s.mu.Lock()
		if e.dirty {
			e.dirty = false
			s.mu.Unlock()
			continue
		}
		e.inFlight = false
		if !e.pending {
			delete(s.entries, sessionID)
		}
		s.mu.Unlock()
		return
	}
}

// Flush runs every pending save now, waits for in-flight saves and stops
// accepting new work.
func (s *SessionSyncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	var due []string
	for id, e := range s.entries {
		if !e.pending {
			continue
		}
		e.timer.Stop()
		e.timer = nil
		e.pending = false
		if e.inFlight {
			e.dirty = true
			continue
		}
		e.inFlight = true
		s.wg.Add(1)
		due = append(due, id)
	}
	s.mu.Unlock()

	for _, id := range due {
		s.mu.Lock()
		e := s.entries[id]
		s.mu.Unlock()
		s.run(id, e)
		s.wg.Done()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many sessions still have a save scheduled or running.
func (s *SessionSyncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
