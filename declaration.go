package fusion

import (
	"context"
	"fmt"
	"reflect"

	"github.com/fusionstack/fusion/internal/graph"
)

// Cleanup releases a resource acquired by a provider. Cleanups run during
// unwind in reverse acquisition order and must tolerate being called with a
// context whose request has already been cancelled.
type Cleanup func(ctx context.Context) error

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType     = reflect.TypeOf((*error)(nil)).Elem()
	cleanupType = reflect.TypeOf(Cleanup(nil))
)

// Declaration describes one injectable unit: how to produce a value, its
// scope, and the declarations it depends on. Declarations are built once at
// registration and immutable afterwards, so they are safe for concurrent
// reads from every request.
type Declaration struct {
	// Type is the value type this declaration produces. It doubles as the
	// declaration's stable key: two registrations producing the same type are
	// the same node.
	Type reflect.Type

	// Scope determines which store caches the resolved value.
	Scope Scope

	// HasCleanup reports whether the provider returns a teardown action
	// alongside its value.
	HasCleanup bool

	// Seed marks a declaration with no provider whose value is supplied by
	// the adapter when the resolution context opens (e.g. *http.Request).
	Seed bool

	provider     reflect.Value
	// providerPtr approximates provider identity for re-registration checks.
	// reflect does not guarantee uniqueness per func value; together with the
	// produced type and scope it is only used to treat registering the same
	// provider again as a no-op.
	providerPtr uintptr
	wantsContext bool
	returnsError bool
	paramTypes   []reflect.Type // dependency types in parameter order

	// children is linked after every declaration is registered, during
	// container build. Entries align with paramTypes.
	children []*Declaration
}

// Key returns the graph identity of this declaration.
func (d *Declaration) Key() graph.Key {
	return graph.Key{Type: d.Type}
}

// Dependencies returns the declarations this one depends on, in parameter
// order. Empty until the registry is built.
func (d *Declaration) Dependencies() []*Declaration {
	return d.children
}

// String returns a readable representation for error messages and logs.
func (d *Declaration) String() string {
	return fmt.Sprintf("%s (%s)", formatType(d.Type), d.Scope)
}

// newDeclaration analyzes a provider function and produces its declaration.
//
// Accepted shapes, with an optional leading context.Context parameter:
//
//	func(deps...) T
//	func(deps...) (T, error)
//	func(deps...) (T, Cleanup, error)
//
// Every non-context parameter is a dependency matched by type against the
// registry. The produced type T must not be error or Cleanup.
func newDeclaration(scope Scope, provider any) (*Declaration, error) {
	if provider == nil {
		return nil, &DeclarationError{Cause: ErrProviderNil}
	}

	if !scope.IsValid() {
		return nil, &DeclarationError{Cause: &ScopeValueError{Value: scope}}
	}

	value := reflect.ValueOf(provider)
	if value.Kind() != reflect.Func {
		return nil, &DeclarationError{Cause: fmt.Errorf("%w, got %T", ErrProviderNotFunc, provider)}
	}
	if value.IsNil() {
		return nil, &DeclarationError{Cause: ErrProviderNil}
	}

	fnType := value.Type()
	if fnType.IsVariadic() {
		return nil, &DeclarationError{Cause: fmt.Errorf("provider must not be variadic")}
	}

	d := &Declaration{
		Scope:       scope,
		provider:    value,
		providerPtr: value.Pointer(),
	}

	if err := analyzeParams(fnType, d); err != nil {
		return nil, err
	}
	if err := analyzeReturns(fnType, d); err != nil {
		return nil, err
	}

	return d, nil
}

// newSeedDeclaration declares a request-scoped type whose value is supplied
// externally rather than produced by a provider.
func newSeedDeclaration(t reflect.Type) (*Declaration, error) {
	if t == nil {
		return nil, &DeclarationError{Cause: fmt.Errorf("seed type cannot be nil")}
	}

	return &Declaration{
		Type:  t,
		Scope: Request,
		Seed:  true,
	}, nil
}

func analyzeParams(fnType reflect.Type, d *Declaration) error {
	for i := 0; i < fnType.NumIn(); i++ {
		in := fnType.In(i)

		if in == ctxType {
			if i != 0 {
				return &DeclarationError{Cause: fmt.Errorf("context.Context must be the first parameter")}
			}
			d.wantsContext = true
			continue
		}

		if in == cleanupType || in == errType {
			return &DeclarationError{Cause: fmt.Errorf("parameter %d has type %s, which cannot be a dependency", i, in)}
		}

		d.paramTypes = append(d.paramTypes, in)
	}

	return nil
}

func analyzeReturns(fnType reflect.Type, d *Declaration) error {
	outs := make([]reflect.Type, fnType.NumOut())
	for i := range outs {
		outs[i] = fnType.Out(i)
	}

	switch len(outs) {
	case 1:
		// func(...) T
	case 2:
		// func(...) (T, error)
		if outs[1] != errType {
			return &DeclarationError{Cause: fmt.Errorf("second return value must be error, got %s", outs[1])}
		}
		d.returnsError = true
	case 3:
		// func(...) (T, Cleanup, error)
		if outs[1] != cleanupType {
			return &DeclarationError{Cause: fmt.Errorf("second return value must be fusion.Cleanup, got %s", outs[1])}
		}
		if outs[2] != errType {
			return &DeclarationError{Cause: fmt.Errorf("third return value must be error, got %s", outs[2])}
		}
		d.HasCleanup = true
		d.returnsError = true
	default:
		return &DeclarationError{Cause: ErrProviderNoValue}
	}

	produced := outs[0]
	if produced == errType || produced == cleanupType {
		return &DeclarationError{Cause: fmt.Errorf("provider produces %s, which is not a value type", produced)}
	}

	d.Type = produced
	return nil
}

// invoke calls the provider with the gathered dependency values and splits
// the result into value, optional cleanup, and error. A panicking provider is
// reported as an error rather than taking down the request goroutine.
func (d *Declaration) invoke(ctx context.Context, deps []reflect.Value) (value reflect.Value, cleanup Cleanup, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ResolutionError{Type: d.Type, Cause: fmt.Errorf("provider panicked: %v", r)}
		}
	}()

	args := make([]reflect.Value, 0, len(deps)+1)
	if d.wantsContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, deps...)

	results := d.provider.Call(args)

	value = results[0]
	if d.HasCleanup {
		if fn, ok := results[1].Interface().(Cleanup); ok && fn != nil {
			cleanup = fn
		}
	}
	if d.returnsError {
		last := results[len(results)-1]
		if !last.IsNil() {
			err = &ResolutionError{Type: d.Type, Cause: last.Interface().(error)}
		}
	}

	return value, cleanup, err
}
