package fusion

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fusionstack/fusion/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Base errors that are wrapped in typed errors when returned. Never returned
// bare - always wrapped with context.

var (
	// Declaration errors.
	ErrProviderNil       = errors.New("provider cannot be nil")
	ErrProviderNotFunc   = errors.New("provider must be a function")
	ErrProviderNoValue   = errors.New("provider must return a value")
	ErrAlreadyDeclared   = errors.New("type already has a declaration")
	ErrUnknownDependency = errors.New("no declaration for dependency")

	// Lifecycle errors.
	ErrContainerClosed = errors.New("container has been closed")
	ErrContextClosed   = errors.New("resolution context has been closed")
	ErrSeedMissing     = errors.New("seed value was not supplied")
	ErrHandlerNotFunc  = errors.New("handler must be a function")
	ErrResultTypeWrong = errors.New("handler result does not match requested type")
	ErrRegistrySealed  = errors.New("registry is sealed after build")
)

var (
	_ error = (*DeclarationError)(nil)
	_ error = (*ResolutionError)(nil)
	_ error = (*TeardownError)(nil)
	_ error = (*ScopeValueError)(nil)
	_ error = (*ScopeConflictError)(nil)
)

// CycleError reports a self-referential declaration graph, detected at
// compile time before any request is served. Members are listed in encounter
// order.
type CycleError = graph.CycleError

// ScopeValueError indicates an invalid scope value.
type ScopeValueError struct {
	Value any
}

func (e *ScopeValueError) Error() string {
	return fmt.Sprintf("invalid scope: %v", e.Value)
}

// ScopeConflictError indicates a declaration depends on a value with a
// narrower scope than its own. An application-scoped provider capturing a
// request-scoped value would pin one request's state for the whole process.
type ScopeConflictError struct {
	Type            reflect.Type
	TypeScope       Scope
	Dependency      reflect.Type
	DependencyScope Scope
}

func (e *ScopeConflictError) Error() string {
	return fmt.Sprintf("scope conflict: %s (%s) cannot depend on %s (%s): narrower scopes may depend on broader ones only",
		formatType(e.Type), e.TypeScope,
		formatType(e.Dependency), e.DependencyScope)
}

// DeclarationError indicates a malformed or scope-incompatible declaration,
// detected when the declaration is registered or compiled. These are
// startup-time faults and abort application initialization.
type DeclarationError struct {
	Type  reflect.Type // produced type, nil when unknown
	Cause error
}

func (e *DeclarationError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("invalid declaration: %v", e.Cause)
	}
	return fmt.Sprintf("invalid declaration for %s: %v", formatType(e.Type), e.Cause)
}

func (e *DeclarationError) Unwrap() error {
	return e.Cause
}

// ResolutionError indicates a provider failed while resolving a specific
// request. It names the failing declaration and wraps the underlying cause.
// Resolution stops at the first failure; everything already acquired is still
// torn down.
type ResolutionError struct {
	Type  reflect.Type // declaration that failed
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %v", formatType(e.Type), e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// TeardownError aggregates cleanup failures collected during unwind. The
// unwind continues past individual failures; a TeardownError never replaces
// the primary outcome of the request, it is attached alongside it.
type TeardownError struct {
	Errs []error
}

func (e *TeardownError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "teardown failed (%d error", len(e.Errs))
	if len(e.Errs) != 1 {
		b.WriteString("s")
	}
	b.WriteString(")")
	for _, err := range e.Errs {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the collected cleanup failures for errors.Is / errors.As.
func (e *TeardownError) Unwrap() []error {
	return e.Errs
}

// formatType renders a type for error messages, preferring the package-
// qualified name over the full import path.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}

	if t.Name() != "" && t.PkgPath() != "" {
		parts := strings.Split(t.PkgPath(), "/")
		return prefix + parts[len(parts)-1] + "." + t.Name()
	}

	return prefix + t.String()
}
