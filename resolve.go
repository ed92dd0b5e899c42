package fusion

import (
	"context"
	"reflect"
)

// resolvePlan executes a compiled plan within one resolution context. Nodes
// resolve strictly in plan order, so every declaration's children are already
// resolved when its provider runs. The returned map holds the value of every
// plan node, including transients resolved during this walk.
//
// On the first provider failure resolution stops and the error is returned;
// cleanups registered so far stay on the context's teardown stack and run
// when the context closes, so a partially acquired plan never leaks.
func (rc *Context) resolvePlan(p *Plan) (map[*Declaration]reflect.Value, error) {
	if rc.Closed() {
		return nil, &ResolutionError{Cause: ErrContextClosed}
	}

	resolved := make(map[*Declaration]reflect.Value, len(p.decls))

	for _, decl := range p.decls {
		// A cancelled request stops the walk between nodes; nothing mid-
		// flight is considered acquired.
		if err := rc.ctx.Err(); err != nil {
			return nil, &ResolutionError{Type: decl.Type, Cause: err}
		}

		value, err := rc.resolveDeclaration(decl, resolved)
		if err != nil {
			return nil, err
		}

		resolved[decl] = value
	}

	return resolved, nil
}

// resolveDeclaration resolves one node, consulting the store that matches its
// scope.
func (rc *Context) resolveDeclaration(decl *Declaration, resolved map[*Declaration]reflect.Value) (reflect.Value, error) {
	switch decl.Scope {
	case Application:
		return rc.container.app.getOrCreate(decl, func() (reflect.Value, Cleanup, error) {
			// Detached from this request's cancellation: the value outlives
			// the request, and concurrent waiters share the result.
			return decl.invoke(context.WithoutCancel(rc.ctx), gatherArgs(decl, resolved))
		})

	case Request:
		if v, ok := rc.store[decl.Type]; ok {
			return v, nil
		}
		if decl.Seed {
			return reflect.Value{}, &ResolutionError{Type: decl.Type, Cause: ErrSeedMissing}
		}

		value, err := rc.invokeAndTrack(decl, resolved)
		if err != nil {
			return reflect.Value{}, err
		}

		rc.store[decl.Type] = value
		return value, nil

	default: // Transient: never cached, always re-invoked
		return rc.invokeAndTrack(decl, resolved)
	}
}

// invokeAndTrack runs the provider and registers its cleanup on the context's
// teardown stack in acquisition order. The cleanup is registered even when
// the provider also returned an error: a provider returning both signals
// partially acquired state that must still be released.
func (rc *Context) invokeAndTrack(decl *Declaration, resolved map[*Declaration]reflect.Value) (reflect.Value, error) {
	value, cleanup, err := decl.invoke(rc.ctx, gatherArgs(decl, resolved))

	if cleanup != nil {
		if pushErr := rc.teardown.push(decl, cleanup); pushErr != nil && err == nil {
			err = &ResolutionError{Type: decl.Type, Cause: pushErr}
		}
	}
	if err != nil {
		return reflect.Value{}, err
	}

	return value, nil
}

// gatherArgs collects the already-resolved child values in parameter order.
// Children precede parents in plan order, so every lookup hits.
func gatherArgs(decl *Declaration, resolved map[*Declaration]reflect.Value) []reflect.Value {
	if len(decl.children) == 0 {
		return nil
	}

	args := make([]reflect.Value, len(decl.children))
	for i, child := range decl.children {
		args[i] = resolved[child]
	}
	return args
}

// resolveArgs resolves a plan and returns the handler's argument values in
// parameter order.
func (rc *Context) resolveArgs(p *Plan) ([]reflect.Value, error) {
	resolved, err := rc.resolvePlan(p)
	if err != nil {
		return nil, err
	}

	args := make([]reflect.Value, len(p.params))
	for i, decl := range p.params {
		args[i] = resolved[decl]
	}
	return args, nil
}

// Resolve resolves a single declared type within an open resolution context,
// compiling and caching a plan for the type's dependency tree on first use.
// Values already resolved in this context are reused per their scope.
func Resolve[T any](rc *Context) (T, error) {
	var zero T

	t := reflect.TypeOf((*T)(nil)).Elem()
	plan, err := rc.container.typePlan(t)
	if err != nil {
		return zero, err
	}

	resolved, err := rc.resolvePlan(plan)
	if err != nil {
		return zero, err
	}

	value := resolved[plan.decls[len(plan.decls)-1]]
	out, ok := value.Interface().(T)
	if !ok {
		return zero, &ResolutionError{Type: t, Cause: ErrResultTypeWrong}
	}

	return out, nil
}

// typePlan compiles (and caches) a plan whose single root is the declaration
// for t.
func (c *Container) typePlan(t reflect.Type) (*Plan, error) {
	if cached, ok := c.typePlans.Load(t); ok {
		return cached.(*Plan), nil
	}

	decl, ok := c.declarations[t]
	if !ok {
		return nil, &ResolutionError{Type: t, Cause: ErrUnknownDependency}
	}

	keys, err := c.graph.Sort(decl.Key())
	if err != nil {
		return nil, err
	}

	plan := &Plan{decls: make([]*Declaration, len(keys))}
	for i, k := range keys {
		plan.decls[i] = c.declarations[k.Type]
	}

	cached, _ := c.typePlans.LoadOrStore(t, plan)
	return cached.(*Plan), nil
}
