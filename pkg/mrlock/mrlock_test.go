package mrlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConcurrentReaders(t *testing.T) {
	l := New()
	var active atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Read(func() {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				active.Add(-1)
			})
		}()
	}
	wg.Wait()
	require.Greater(t, peak.Load(), int32(1), "readers should overlap")
}

func TestWriterExcludesReaders(t *testing.T) {
	l := New()
	var inWrite atomic.Bool
	var violation atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.Write(func() {
				inWrite.Store(true)
				time.Sleep(2 * time.Millisecond)
				inWrite.Store(false)
			})
		}()
		go func() {
			defer wg.Done()
			l.Read(func() {
				if inWrite.Load() {
					violation.Store(true)
				}
			})
		}()
	}
	wg.Wait()
	require.False(t, violation.Load(), "reader observed an active writer")
}

func TestWriterPriority(t *testing.T) {
	l := New()

	// Hold a read lock, queue a writer, then try a second reader. The
	// second reader must not get in before the writer.
	l.AcquireR()

	writerIn := make(chan struct{})
	go func() {
		l.AcquireW()
		close(writerIn)
		time.Sleep(5 * time.Millisecond)
		l.Release()
	}()

	// Give the writer time to queue up.
	time.Sleep(10 * time.Millisecond)

	readerIn := make(chan struct{})
	go func() {
		l.AcquireR()
		close(readerIn)
		l.Release()
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-readerIn:
		t.Fatal("reader acquired while a writer was waiting")
	default:
	}

	l.Release() // let the writer in

	<-writerIn
	select {
	case <-readerIn:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired after writer finished")
	}
}

func TestWriteSerialization(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Write(func() { counter++ })
		}()
	}
	wg.Wait()
	require.Equal(t, 50, counter)
}
