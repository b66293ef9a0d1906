package mutex

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type MutexErr struct {
	error
}

func (e MutexErr) Cause() error {
	return e.error
}

func (e MutexErr) Unwrap() error {
	return e.error
}

func WithMutexErr(err error) error {
	return MutexErr{err}
}

func IsMutexErr(err error) bool {
	var mutexErr MutexErr
	return errors.As(err, &mutexErr)
}

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/saga/mutex/mutex.go -package mutex . Mutex,Lock

// Lock is held until Release is called. Release must be called exactly once.
type Lock interface {
	Release(ctx context.Context) error
}

// Mutex serializes work on one saga across goroutines or, for sql implementations, across processes
type Mutex interface {
	Lock(ctx context.Context, sagaId string) (Lock, error)
}

// NewMemoryMutex creates a mutex that serializes goroutines of one process
func NewMemoryMutex() Mutex {
	return &memoryMutex{locks: make(map[string]*keyLock)}
}

type memoryMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	held chan struct{}
	refs int
}

func (m *memoryMutex) Lock(ctx context.Context, sagaId string) (Lock, error) {
	kl := m.acquireRef(sagaId)

	select {
	case kl.held <- struct{}{}:
		return &memoryLock{mutex: m, sagaId: sagaId, kl: kl}, nil
	case <-ctx.Done():
		m.releaseRef(sagaId, kl)
		return nil, WithMutexErr(errors.Wrapf(ctx.Err(), "acquiring lock for saga %s", sagaId))
	}
}

func (m *memoryMutex) acquireRef(sagaId string) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	kl, exists := m.locks[sagaId]
	if !exists {
		kl = &keyLock{held: make(chan struct{}, 1)}
		m.locks[sagaId] = kl
	}
	kl.refs++

	return kl
}

// releaseRef drops the entry when nobody holds or waits for the key anymore
func (m *memoryMutex) releaseRef(sagaId string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, sagaId)
	}
}

func (m *memoryMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

type memoryLock struct {
	mutex    *memoryMutex
	sagaId   string
	kl       *keyLock
	released sync.Once
}

func (l *memoryLock) Release(ctx context.Context) error {
	released := false

	l.released.Do(func() {
		<-l.kl.held
		l.mutex.releaseRef(l.sagaId, l.kl)
		released = true
	})

	if !released {
		return WithMutexErr(errors.Errorf("lock for saga %s is already released", l.sagaId))
	}

	return nil
}
