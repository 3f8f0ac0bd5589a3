package world

import (
	"container/heap"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Game runs the world's event loop: immediate events submitted by
// sessions and delayed events scheduled by scripts. A single goroutine
// drains both, so events never run concurrently with each other. A
// panicking event is logged and dropped; the loop keeps going.
type Game struct {
	logger *zap.Logger

	mu     sync.Mutex
	timers timerHeap
	seq    uint64

	events chan func()
	wake   chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

type timer struct {
	when time.Time
	seq  uint64
	fn   func()
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(*timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// NewGame starts the event loop.
func NewGame(logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		logger: logger,
		events: make(chan func(), 64),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	g.wg.Add(1)
	go g.loop()
	return g
}

// Stop shuts the loop down and waits for it. Pending delayed events are
// discarded.
func (g *Game) Stop() {
	close(g.done)
	g.wg.Wait()
}

// Done is closed when the loop has been stopped. Waiters on submitted
// events should also watch it, a stopped loop never runs them.
func (g *Game) Done() <-chan struct{} { return g.done }

// Submit queues an event for immediate execution on the loop.
func (g *Game) Submit(fn func()) {
	select {
	case g.events <- fn:
	case <-g.done:
	}
}

// Schedule queues an event to run after the given delay. Delayed events
// survive until fired or the loop stops; they are not persisted.
func (g *Game) Schedule(delay time.Duration, fn func()) {
	g.mu.Lock()
	heap.Push(&g.timers, &timer{when: time.Now().Add(delay), seq: g.seq, fn: fn})
	g.seq++
	g.mu.Unlock()
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// nextTimeout bounds the wait at one second so the loop stays responsive
// to timers scheduled from other goroutines.
func (g *Game) nextTimeout() time.Duration {
	const tick = time.Second
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.timers) == 0 {
		return tick
	}
	d := time.Until(g.timers[0].when)
	if d > tick {
		return tick
	}
	if d < 0 {
		return 0
	}
	return d
}

func (g *Game) loop() {
	defer g.wg.Done()
	for {
		t := time.NewTimer(g.nextTimeout())
		select {
		case <-g.done:
			t.Stop()
			return
		case fn := <-g.events:
			t.Stop()
			g.runEvent(fn)
		case <-g.wake:
			t.Stop()
		case <-t.C:
		}
		g.runDueTimers()
	}
}

func (g *Game) runDueTimers() {
	for {
		g.mu.Lock()
		if len(g.timers) == 0 || g.timers[0].when.After(time.Now()) {
			g.mu.Unlock()
			return
		}
		t := heap.Pop(&g.timers).(*timer)
		g.mu.Unlock()
		g.runEvent(t.fn)
	}
}

func (g *Game) runEvent(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("panic in event callback", zap.Any("panic", r))
		}
	}()
	fn()
}
