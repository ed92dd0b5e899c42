package fusion

import "fmt"

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Registry) error

// NewModule groups related declarations under a name so applications can
// compose their registry from reusable pieces.
//
// Example:
//
//	var DatabaseModule = fusion.NewModule("database",
//	    fusion.ProvideApplication(NewPool),
//	    fusion.ProvideRequest(NewTx),
//	)
//
//	var AppModule = fusion.NewModule("app",
//	    DatabaseModule,
//	    fusion.ProvideRequest(NewCurrentUser),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(r *Registry) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(r); err != nil {
				return &ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// ProvideApplication creates a ModuleOption registering an application-scoped
// provider.
func ProvideApplication(provider any) ModuleOption {
	return func(r *Registry) error {
		return r.Application(provider)
	}
}

// ProvideRequest creates a ModuleOption registering a request-scoped
// provider.
func ProvideRequest(provider any) ModuleOption {
	return func(r *Registry) error {
		return r.Request(provider)
	}
}

// ProvideTransient creates a ModuleOption registering a transient provider.
func ProvideTransient(provider any) ModuleOption {
	return func(r *Registry) error {
		return r.Transient(provider)
	}
}

// AddModules applies module options to the registry in order.
func (r *Registry) AddModules(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}

		if err := module(r); err != nil {
			return err
		}
	}

	return nil
}

// ModuleError wraps a registration failure with the module it came from.
type ModuleError struct {
	Module string
	Cause  error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e *ModuleError) Unwrap() error {
	return e.Cause
}
