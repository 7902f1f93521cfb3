package indexer

import "sync/atomic"

// RunLock admits one run per project at a time without blocking callers;
// a second caller is told to retry instead of queueing behind the first.
type RunLock struct {
	state atomic.Int32 // 0 = idle, 1 = running
}

// TryAcquire reports whether the caller now holds the lock
func (l *RunLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *RunLock) Release() {
	l.state.Store(0)
}

// Running reports whether a run currently holds the lock
func (l *RunLock) Running() bool {
	return l.state.Load() == 1
}
