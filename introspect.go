package fusion

import "reflect"

// ParameterShape describes one handler parameter or provider dependency for
// schema consumers. Reading shapes never invokes providers.
type ParameterShape struct {
	// Type is the declared value type.
	Type reflect.Type

	// Scope of the declaration producing this value.
	Scope Scope

	// HasCleanup reports whether resolving this value registers a teardown
	// action.
	HasCleanup bool

	// Seed reports whether the value is supplied by the transport adapter
	// rather than produced by a provider.
	Seed bool

	// Dependencies are the shapes of the declaration's own dependencies, in
	// parameter order.
	Dependencies []ParameterShape
}

// HandlerShape describes a handler's resolved parameters and result for
// schema consumers such as OpenAPI generators.
type HandlerShape struct {
	// Parameters are the handler's injected arguments in parameter order,
	// excluding the leading context.Context.
	Parameters []ParameterShape

	// Result is the handler's value return type, nil when the handler only
	// returns an error.
	Result reflect.Type

	// ReturnsError reports whether the handler returns an error.
	ReturnsError bool
}

// Inspect returns the declared parameter and return shapes of a handler
// without executing any provider. The handler's plan is compiled (and
// cached) as a side effect, so declaration and cycle faults surface here.
func (c *Container) Inspect(handler any) (*HandlerShape, error) {
	plan, err := c.Plan(handler)
	if err != nil {
		return nil, err
	}

	shape := &HandlerShape{
		Result:       plan.result,
		ReturnsError: plan.returnsError,
		Parameters:   make([]ParameterShape, len(plan.params)),
	}

	for i, decl := range plan.params {
		shape.Parameters[i] = declShape(decl)
	}

	return shape, nil
}

func declShape(decl *Declaration) ParameterShape {
	shape := ParameterShape{
		Type:       decl.Type,
		Scope:      decl.Scope,
		HasCleanup: decl.HasCleanup,
		Seed:       decl.Seed,
	}

	for _, child := range decl.children {
		shape.Dependencies = append(shape.Dependencies, declShape(child))
	}

	return shape
}
