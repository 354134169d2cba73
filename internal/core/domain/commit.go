package domain

import (
	"context"
	"sync"
)

// CommitTask is the handle of an asynchronous commit. Callers may ignore it
// (fire and forget) or wait on it.
type CommitTask struct {
	done   chan struct{}
	once   sync.Once
	result CommitResult
	err    error
}

// NewCommitTask creates a pending task
func NewCommitTask() *CommitTask {
	return &CommitTask{done: make(chan struct{})}
}

// Finish records the outcome and releases waiters. Only the first call counts.
func (t *CommitTask) Finish(result CommitResult, err error) {
	t.once.Do(func() {
		t.result = result
		t.err = err
		close(t.done)
	})
}

// Done is closed once the commit has finished
func (t *CommitTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the commit finishes or ctx is done.
// Cancelling ctx stops the wait, not the commit.
func (t *CommitTask) Wait(ctx context.Context) (CommitResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return CommitResult{}, ctx.Err()
	}
}

// ImportResult reports an import into a workspace
type ImportResult struct {
	Imported []string     `json:"imported"`
	Commit   CommitResult `json:"commit"`
}
