package fusion

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Context is the per-request resolution state: the request-scope store, the
// pending teardown actions in acquisition order, and the cancellation signal.
// One Context serves one request and must be closed when the request ends,
// regardless of outcome.
//
//	rc, err := container.Open(ctx, req)
//	if err != nil { ... }
//	defer rc.Close()
type Context struct {
	id        string
	ctx       context.Context
	container *Container

	// Request-scope store. Confined to this context, no locking needed.
	store map[reflect.Type]reflect.Value

	teardown *teardownStack
}

// Open creates a resolution context for one request. Seed values are placed
// into the request store; each must match a type declared with fusion.Seed.
func (c *Container) Open(ctx context.Context, seeds ...any) (*Context, error) {
	if c.closed.Load() {
		return nil, ErrContainerClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rc := &Context{
		id:        uuid.NewString(),
		ctx:       ctx,
		container: c,
		store:     make(map[reflect.Type]reflect.Value),
		teardown:  newTeardownStack(),
	}

	for _, seed := range seeds {
		if seed == nil {
			return nil, fmt.Errorf("seed value cannot be nil")
		}

		t := reflect.TypeOf(seed)
		decl, ok := c.declarations[t]
		if !ok || !decl.Seed {
			return nil, &DeclarationError{Type: t, Cause: fmt.Errorf("type was not declared as a seed")}
		}

		rc.store[t] = reflect.ValueOf(seed)
	}

	return rc, nil
}

// ID returns the unique ID of this resolution context.
func (rc *Context) ID() string {
	return rc.id
}

// Context returns the request context this resolution context was opened
// with.
func (rc *Context) Context() context.Context {
	return rc.ctx
}

// Closed reports whether Close has already run.
func (rc *Context) Closed() bool {
	return rc.teardown.done.Load()
}

// Close unwinds the teardown stack: every cleanup registered during
// resolution runs in reverse acquisition order, whether the handler
// succeeded, failed, or the request was cancelled. Close runs exactly once;
// later calls return nil.
//
// Cleanups run with a context detached from the request's cancellation, so a
// cancelled request still releases its resources.
func (rc *Context) Close() error {
	return rc.teardown.unwind(context.WithoutCancel(rc.ctx))
}
