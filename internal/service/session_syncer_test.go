package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSave struct {
	mu       sync.Mutex
	calls    map[string]int
	active   int32
	maxSeen  int32
	block    chan struct{}
	started  chan string
	failWith error
}

func newCountingSave() *countingSave {
	return &countingSave{calls: map[string]int{}, started: make(chan string, 16)}
}

func (c *countingSave) save(ctx context.Context, id string) error {
	n := atomic.AddInt32(&c.active, 1)
	for {
		m := atomic.LoadInt32(&c.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&c.maxSeen, m, n) {
			break
		}
	}
	defer atomic.AddInt32(&c.active, -1)

	c.mu.Lock()
	c.calls[id]++
	block := c.block
	c.mu.Unlock()

	c.started <- id
	if block != nil {
		<-block
	}
	return c.failWith
}

func (c *countingSave) count(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[id]
}

func TestSessionSyncerCoalescesBursts(t *testing.T) {
	cs := newCountingSave()
	s := NewSessionSyncer(20*time.Millisecond, cs.save, nil)

	for i := 0; i < 10; i++ {
		s.Schedule("a")
	}
	s.Schedule("b")

	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, cs.count("a"))
	assert.Equal(t, 1, cs.count("b"))
}

func TestSessionSyncerSingleFlightWithFollowUp(t *testing.T) {
	cs := newCountingSave()
	cs.block = make(chan struct{})
	s := NewSessionSyncer(10*time.Millisecond, cs.save, nil)

	s.Schedule("a")
	select {
	case <-cs.started:
	case <-time.After(time.Second):
		t.Fatal("first save never started")
	}

	// changes while the first save is blocked
	s.Schedule("a")
	time.Sleep(30 * time.Millisecond)
	s.Schedule("a")
	time.Sleep(30 * time.Millisecond)

	cs.mu.Lock()
	close(cs.block)
	cs.block = nil
	cs.mu.Unlock()

	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, cs.count("a"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cs.maxSeen))
}

func TestSessionSyncerFlushRunsPendingSaves(t *testing.T) {
	cs := newCountingSave()
	s := NewSessionSyncer(time.Hour, cs.save, nil)

	s.Schedule("a")
	s.Schedule("b")
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, cs.count("a"))
	assert.Equal(t, 1, cs.count("b"))
	assert.Zero(t, s.Pending())

	// closed syncers ignore new work
	s.Schedule("c")
	assert.Zero(t, s.Pending())
}

func TestSessionSyncerCancel(t *testing.T) {
	cs := newCountingSave()
	s := NewSessionSyncer(20*time.Millisecond, cs.save, nil)

	s.Schedule("a")
	s.Cancel("a")
	time.Sleep(60 * time.Millisecond)

	assert.Zero(t, cs.count("a"))
	assert.Zero(t, s.Pending())
}

func TestSessionSyncerSaveErrorDoesNotStick(t *testing.T) {
	cs := newCountingSave()
	cs.failWith = errors.New("remote down")
	s := NewSessionSyncer(10*time.Millisecond, cs.save, nil)

	s.Schedule("a")
	require.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 5*time.Millisecond)
	s.Schedule("a")
	require.Eventually(t, func() bool { return s.Pending() == 0 && cs.count("a") == 2 }, time.Second, 5*time.Millisecond)
}
