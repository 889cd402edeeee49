package repository

import (
	"context"
	"sync"
)

// MemoryTxRunner serializes transactional sections under a single mutex.
// Good enough for tests: the memory repositories are themselves atomic per
// call, and the mutex makes multi-call sections exclusive.
type MemoryTxRunner struct {
	mu sync.Mutex
}

// NewMemoryTxRunner creates an in-memory transaction runner
func NewMemoryTxRunner() *MemoryTxRunner {
	return &MemoryTxRunner{}
}

func (r *MemoryTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fn(ctx)
}
