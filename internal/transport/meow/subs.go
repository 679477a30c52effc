package meow

import (
	"sync"

	"wagate/internal/transport"
)

// subList is a cancellable set of callbacks for one event kind.
type subList[T any] struct {
	mu  sync.RWMutex
	seq int
	fns map[int]func(T)
}

func (l *subList[T]) add(fn func(T)) transport.Subscription {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	l.seq++
	id := l.seq
	l.fns[id] = fn
	l.mu.Unlock()
	return newSub(func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	})
}

func (l *subList[T]) emit(v T) {
	l.mu.RLock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}

type sub struct {
	once   sync.Once
	cancel func()
}

func newSub(cancel func()) *sub {
	return &sub{cancel: cancel}
}

func (s *sub) Cancel() {
	s.once.Do(s.cancel)
}
