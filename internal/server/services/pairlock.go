package services

import (
	"context"
	"sync"
)

// pairLocks serializes operations on the same unordered pair of accounts
// within this process. Entries are dropped when no one holds or waits.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	ch   chan struct{}
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// Lock blocks until the key is free or ctx is done.
func (p *pairLocks) Lock(ctx context.Context, key string) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{ch: make(chan struct{}, 1)}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.release(key, l)
		}, nil
	case <-ctx.Done():
		p.release(key, l)
		return nil, ctx.Err()
	}
}

func (p *pairLocks) release(key string, l *pairLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, key)
	}
}

func (p *pairLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
