package fusion

import (
	"context"
	"sync"
	"sync/atomic"
)

// teardownStack collects cleanup actions in acquisition order and releases
// them in reverse. One stack belongs to each resolution context, plus one to
// the container for application-scoped values.
type teardownStack struct {
	mu      sync.Mutex
	actions []teardownAction
	done    atomic.Bool
}

// teardownAction binds one cleanup to the declaration that produced it, so
// unwind failures can name their origin.
type teardownAction struct {
	decl    *Declaration
	cleanup Cleanup
}

func newTeardownStack() *teardownStack {
	return &teardownStack{}
}

// push registers a cleanup. Pushing onto an already unwound stack runs the
// cleanup immediately: the value was acquired after its owner ended, so
// holding it would leak.
func (s *teardownStack) push(decl *Declaration, cleanup Cleanup) error {
	if cleanup == nil {
		return nil
	}

	s.mu.Lock()
	if s.done.Load() {
		s.mu.Unlock()
		return cleanup(context.Background())
	}
	s.actions = append(s.actions, teardownAction{decl: decl, cleanup: cleanup})
	s.mu.Unlock()
	return nil
}

// unwind runs the registered cleanups in strict reverse-acquisition order.
// It continues past individual failures and aggregates them into a
// TeardownError. Unwind runs exactly once; later calls are no-ops.
func (s *teardownStack) unwind(ctx context.Context) error {
	if !s.done.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	var errs []error
	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i].cleanup(ctx); err != nil {
			errs = append(errs, &CleanupError{Decl: actions[i].decl, Err: err})
		}
	}

	if len(errs) > 0 {
		return &TeardownError{Errs: errs}
	}

	return nil
}

// CleanupError names the declaration whose cleanup failed.
type CleanupError struct {
	Decl *Declaration
	Err  error
}

func (e *CleanupError) Error() string {
	return "cleanup of " + e.Decl.String() + ": " + e.Err.Error()
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
