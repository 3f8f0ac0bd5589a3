// Package scrollback records recent room text in a bolt database so
// characters can catch up on what they missed.
package scrollback

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/po1/mushroom/pkg/world"
)

// DefaultRetention is how many lines each room keeps when the config does
// not say otherwise.
const DefaultRetention = 200

// Store keeps a bounded per-room history of emitted text.
type Store struct {
	db        *bolt.DB
	retention int
	logger    *zap.Logger

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// Open opens or creates the scrollback file.
func Open(path string, retention int, logger *zap.Logger) (*Store, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("scrollback: open %s: %w", path, err)
	}
	return &Store{db: db, retention: retention, logger: logger, done: make(chan struct{})}, nil
}

// Close stops the recorder and closes the file.
func (s *Store) Close() error {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return s.db.Close()
}

// Record appends one line to a room's history, trimming old lines past
// the retention limit.
func (s *Store) Record(room world.Ref, text string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(roomKey(room))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		if err := b.Put(key[:], []byte(text)); err != nil {
			return err
		}
		// keys are the sequence numbers, so trimming is a range delete
		if seq > uint64(s.retention) {
			min := seq - uint64(s.retention)
			c := b.Cursor()
			for k, _ := c.First(); k != nil && binary.BigEndian.Uint64(k) <= min; k, _ = c.First() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Recent returns up to n of the latest lines for a room, oldest first.
func (s *Store) Recent(room world.Ref, n int) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(roomKey(room))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			out = append(out, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// walked backwards, flip to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Follow drains a world bus subscription into the store until the channel
// closes or the store shuts down.
func (s *Store) Follow(events chan world.BusEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := s.Record(ev.Room, ev.Text); err != nil {
					s.logger.Warn("scrollback write failed", zap.Error(err))
				}
			case <-s.done:
				return
			}
		}
	}()
}

func roomKey(room world.Ref) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(int64(room)))
	return key[:]
}
