package service

import (
	"context"
	"sync"
)

// SlotLocker serializes admissions for one slot key. The returned context is
// done once the lock can no longer be trusted, so guarded work must run under
// it. unlock releases the lock and is safe to call more than once.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (held context.Context, unlock func(), err error)
}

// SlotKey is the unit of admission serialization: one court on one date.
func SlotKey(courtID, date string) string {
	return courtID + "|" + date
}

type slotEntry struct {
	sem  chan struct{}
	refs int
}

// LocalSlotLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits on them.
type LocalSlotLocker struct {
	mu      sync.Mutex
	entries map[string]*slotEntry
}

func NewLocalSlotLocker() *LocalSlotLocker {
	return &LocalSlotLocker{entries: make(map[string]*slotEntry)}
}

func (l *LocalSlotLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &slotEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, nil, ctx.Err()
	}

	held, cancel := context.WithCancel(ctx)
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

func (l *LocalSlotLocker) release(key string, e *slotEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// held is the number of keys with a holder or waiter.
func (l *LocalSlotLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
