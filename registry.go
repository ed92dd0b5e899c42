package fusion

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/fusionstack/fusion/internal/graph"
)

// Registry collects declarations before the container is built. It is the
// mutable registration phase: once Build succeeds the registry is sealed and
// the resulting Container is immutable and safe for concurrent use.
//
//	reg := fusion.NewRegistry()
//	reg.Application(NewPool)
//	reg.Request(NewTx)
//	fusion.Seed[*http.Request](reg)
//
//	container, err := reg.Build()
type Registry struct {
	mu           sync.Mutex
	declarations map[reflect.Type]*Declaration
	order        []*Declaration // registration order, for deterministic builds
	sealed       bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		declarations: make(map[reflect.Type]*Declaration),
	}
}

// Application registers a provider whose value is created once and shared
// across all requests for the container lifetime.
func (r *Registry) Application(provider any) error {
	return r.Provide(Application, provider)
}

// Request registers a provider whose value is created once per resolution
// context.
func (r *Registry) Request(provider any) error {
	return r.Provide(Request, provider)
}

// Transient registers a provider whose value is re-created on every
// resolution.
func (r *Registry) Transient(provider any) error {
	return r.Provide(Transient, provider)
}

// Provide registers a provider with an explicit scope. Registering the same
// provider function twice is a no-op; registering a different provider for a
// type that already has one is a DeclarationError.
func (r *Registry) Provide(scope Scope, provider any) error {
	decl, err := newDeclaration(scope, provider)
	if err != nil {
		return err
	}

	return r.add(decl)
}

// Seed declares T as an externally supplied request-scoped value. The adapter
// must pass a value of type T when opening the resolution context.
func Seed[T any](r *Registry) error {
	decl, err := newSeedDeclaration(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return err
	}

	return r.add(decl)
}

func (r *Registry) add(decl *Declaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return &DeclarationError{Type: decl.Type, Cause: ErrRegistrySealed}
	}

	if existing, ok := r.declarations[decl.Type]; ok {
		// Same provider again: structural sharing by identity, nothing to do.
		if existing.Seed == decl.Seed && existing.providerPtr == decl.providerPtr && existing.Scope == decl.Scope {
			return nil
		}
		return &DeclarationError{Type: decl.Type, Cause: ErrAlreadyDeclared}
	}

	r.declarations[decl.Type] = decl
	r.order = append(r.order, decl)
	return nil
}

// Build links every declaration to its dependencies, validates scope
// compatibility, rejects cyclic graphs, and returns the runtime container.
// Declaration and cycle faults surface here, at startup, never per-request.
func (r *Registry) Build() (*Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, &DeclarationError{Cause: ErrRegistrySealed}
	}

	g := graph.New()

	for _, decl := range r.order {
		children := make([]*Declaration, len(decl.paramTypes))
		keys := make([]graph.Key, len(decl.paramTypes))

		for i, pt := range decl.paramTypes {
			child, ok := r.declarations[pt]
			if !ok {
				return nil, &DeclarationError{
					Type:  decl.Type,
					Cause: fmt.Errorf("%w: %s", ErrUnknownDependency, formatType(pt)),
				}
			}

			if !child.Scope.outlives(decl.Scope) {
				return nil, &DeclarationError{
					Type: decl.Type,
					Cause: &ScopeConflictError{
						Type:            decl.Type,
						TypeScope:       decl.Scope,
						Dependency:      child.Type,
						DependencyScope: child.Scope,
					},
				}
			}

			children[i] = child
			keys[i] = child.Key()
		}

		decl.children = children
		g.Add(decl.Key(), keys)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	r.sealed = true

	return newContainer(r.declarations, g), nil
}
