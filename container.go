package fusion

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/fusionstack/fusion/internal/graph"
)

// Container is the runtime produced by Registry.Build. It owns the
// application-scope store, the compiled-plan cache, and the declaration
// graph. All state except the application store is immutable after build;
// the container is safe for concurrent use by every request.
type Container struct {
	declarations map[reflect.Type]*Declaration
	graph        *graph.Graph

	plans     sync.Map // planKey -> *Plan
	typePlans sync.Map // reflect.Type -> *Plan

	app    *appStore
	closed atomic.Bool
}

func newContainer(declarations map[reflect.Type]*Declaration, g *graph.Graph) *Container {
	return &Container{
		declarations: declarations,
		graph:        g,
		app:          newAppStore(),
	}
}

// planKey identifies a handler in the plan cache. reflect does not guarantee
// func pointers are unique per function value, so the key also carries the
// func type to keep any collision confined to handlers with an identical
// signature.
type planKey struct {
	ptr uintptr
	typ reflect.Type
}

// Plan returns the compiled resolution plan for a handler, compiling it on
// first use. Compilation is deterministic, so concurrent first calls may
// compile twice but always cache identical plans.
func (c *Container) Plan(handler any) (*Plan, error) {
	value := reflect.ValueOf(handler)
	if value.Kind() != reflect.Func || value.IsNil() {
		return nil, &DeclarationError{Cause: fmt.Errorf("%w, got %T", ErrHandlerNotFunc, handler)}
	}

	key := planKey{ptr: value.Pointer(), typ: value.Type()}
	if cached, ok := c.plans.Load(key); ok {
		return cached.(*Plan), nil
	}

	plan, err := c.compilePlan(handler)
	if err != nil {
		return nil, err
	}

	cached, _ := c.plans.LoadOrStore(key, plan)
	return cached.(*Plan), nil
}

// Declaration returns the declaration registered for t, or nil.
func (c *Container) Declaration(t reflect.Type) *Declaration {
	return c.declarations[t]
}

// Close tears down the application-scope store, releasing every
// application-scoped value in reverse acquisition order. Close runs exactly
// once; later calls return nil. After Close the container rejects new
// resolution contexts.
func (c *Container) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return c.app.teardown.unwind(ctx)
}

// appStore caches application-scoped values for the container lifetime.
// First-use resolution is the only cross-request shared-mutable-state hazard
// in the system, so it is the only synchronized path: concurrent first
// resolutions of the same declaration collapse into a single provider
// invocation and every caller observes the winner's value.
type appStore struct {
	mu       sync.RWMutex
	values   map[reflect.Type]reflect.Value
	flight   singleflight.Group
	teardown *teardownStack
}

func newAppStore() *appStore {
	return &appStore{
		values:   make(map[reflect.Type]reflect.Value),
		teardown: newTeardownStack(),
	}
}

// get returns the cached value for a declaration, if resolved.
func (s *appStore) get(t reflect.Type) (reflect.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[t]
	return v, ok
}

// getOrCreate returns the cached value or invokes produce exactly once across
// concurrent callers. Successful values are memoized and their cleanups
// registered on the container's teardown stack; failures are not memoized,
// so a later request may retry.
func (s *appStore) getOrCreate(decl *Declaration, produce func() (reflect.Value, Cleanup, error)) (reflect.Value, error) {
	if v, ok := s.get(decl.Type); ok {
		return v, nil
	}

	// Keyed by declaration identity: type names are not unique across
	// packages, pointers are.
	v, err, _ := s.flight.Do(fmt.Sprintf("%p", decl), func() (any, error) {
		// Re-check under the flight: a previous winner may have stored the
		// value between our miss and this call.
		if v, ok := s.get(decl.Type); ok {
			return v, nil
		}

		value, cleanup, err := produce()
		if cleanup != nil {
			// Register even when the provider failed: a provider returning
			// both is signaling partial acquisition that must be released.
			if pushErr := s.teardown.push(decl, cleanup); pushErr != nil && err == nil {
				err = &ResolutionError{Type: decl.Type, Cause: pushErr}
			}
		}
		if err != nil {
			return reflect.Value{}, err
		}

		s.mu.Lock()
		s.values[decl.Type] = value
		s.mu.Unlock()

		return value, nil
	})
	if err != nil {
		return reflect.Value{}, err
	}

	return v.(reflect.Value), nil
}
