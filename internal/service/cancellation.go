package service

import (
	"context"
	"sync/atomic"

	"pdf-toolkit/internal/domain"
)

// CancellationToken is a poll-based, one-way cancel signal for one job.
// Once tripped it stays tripped.
type CancellationToken struct {
	tripped atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCancellationToken arms a fresh token. Its Context is done once the token
// trips or parent is done; parent being done does not trip the token by itself.
func NewCancellationToken(parent context.Context) *CancellationToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &CancellationToken{ctx: ctx, cancel: cancel}
}

// Trip signals cancellation. Calling it again is a no-op.
func (t *CancellationToken) Trip() {
	if t.tripped.CompareAndSwap(false, true) {
		t.cancel()
	}
}

// Tripped reports whether Trip has been called.
func (t *CancellationToken) Tripped() bool {
	return t.tripped.Load()
}

// Err returns domain.ErrCancelled once tripped, nil otherwise.
func (t *CancellationToken) Err() error {
	if t.Tripped() {
		return domain.ErrCancelled
	}
	return nil
}

// Context is done when the token trips.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// release frees the context resources without tripping the token.
func (t *CancellationToken) release() {
	t.cancel()
}
