package fusion

import (
	"context"
	"errors"
)

// Call invokes a handler through the resolution engine outside of any
// transport: it compiles (or reuses) the handler's plan, opens a resolution
// context, resolves the handler's arguments, invokes it, and unwinds. This is
// the entry point for tool-invocation adapters that expose handlers to
// non-HTTP callers.
//
// The primary outcome - the handler's result or the first resolution
// failure - is always preserved; teardown failures are attached alongside it,
// never in its place. The unwind runs whether the handler returned, failed,
// or panicked.
func Call[R any](ctx context.Context, c *Container, handler any, seeds ...any) (out R, err error) {
	plan, err := c.Plan(handler)
	if err != nil {
		return out, err
	}

	rc, err := c.Open(ctx, seeds...)
	if err != nil {
		return out, err
	}

	// Deferred so acquired resources are released even when the handler
	// panics past us.
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	result, err := call(ctx, rc, plan)
	if err != nil {
		return out, err
	}
	if result == nil {
		return out, nil
	}

	typed, ok := result.(R)
	if !ok {
		return out, &ResolutionError{Type: plan.result, Cause: ErrResultTypeWrong}
	}

	return typed, nil
}

// Call resolves the plan within this context and invokes its handler with
// the resolved arguments, returning the handler's result. The context is not
// closed; the caller owns the unwind. Transport adapters use this to serve a
// request through an already-open context.
func (rc *Context) Call(plan *Plan) (any, error) {
	return call(rc.ctx, rc, plan)
}

// call resolves the plan and invokes the handler within an open context.
func call(ctx context.Context, rc *Context, plan *Plan) (any, error) {
	args, err := rc.resolveArgs(plan)
	if err != nil {
		return nil, err
	}

	result, err := plan.invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	if plan.result == nil || !result.IsValid() {
		return nil, nil
	}

	return result.Interface(), nil
}
