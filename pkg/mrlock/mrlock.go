// Package mrlock provides the writer-priority read/write lock that guards
// the world database. Unlike sync.RWMutex it gives a hard guarantee: once a
// writer is waiting, no new reader may acquire until the writer has run.
package mrlock

import "sync"

// RWLock is a read/write lock with writer priority. Concurrent readers are
// allowed; writers acquire exclusively and jump ahead of any reader that
// arrives while they wait. The zero value is not usable; call New.
type RWLock struct {
	mu      sync.Mutex
	rCond   *sync.Cond
	wCond   *sync.Cond
	readers int // number of active readers, -1 while a writer holds the lock
	waiting int // number of writers blocked in AcquireW
}

// New creates an RWLock.
func New() *RWLock {
	l := &RWLock{}
	l.rCond = sync.NewCond(&l.mu)
	l.wCond = sync.NewCond(&l.mu)
	return l
}

// AcquireR blocks until a read lock is held. Readers queue behind any
// waiting writer.
func (l *RWLock) AcquireR() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.readers < 0 || l.waiting > 0 {
		l.rCond.Wait()
	}
	l.readers++
}

// AcquireW blocks until the write lock is held exclusively.
func (l *RWLock) AcquireW() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.readers != 0 {
		l.waiting++
		l.wCond.Wait()
		l.waiting--
	}
	l.readers = -1
}

// Release drops the lock, whichever mode it was acquired in. A waiting
// writer is woken first; readers only get a turn when no writer is queued.
func (l *RWLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readers < 0 {
		l.readers = 0
	} else {
		l.readers--
	}
	if l.waiting > 0 {
		if l.readers == 0 {
			l.wCond.Signal()
		}
	} else {
		l.rCond.Broadcast()
	}
}

// Read runs fn under the read lock, releasing on every exit path.
func (l *RWLock) Read(fn func()) {
	l.AcquireR()
	defer l.Release()
	fn()
}

// Write runs fn under the write lock, releasing on every exit path.
func (l *RWLock) Write(fn func()) {
	l.AcquireW()
	defer l.Release()
	fn()
}
