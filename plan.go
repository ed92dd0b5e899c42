package fusion

import (
	"context"
	"fmt"
	"reflect"

	"github.com/fusionstack/fusion/internal/graph"
)

// Plan is the compiled resolution order for one handler: a topologically
// ordered, deduplicated sequence of declarations in which every node precedes
// its dependents. Plans are compiled once per handler, cached for the
// container lifetime, and safe for concurrent reads.
type Plan struct {
	decls []*Declaration

	fn           reflect.Value
	wantsContext bool
	params       []*Declaration // handler arguments, in parameter order
	result       reflect.Type   // nil for handlers returning only error
	returnsError bool
}

// Declarations returns the plan's declarations in resolution order. The
// returned slice must not be modified.
func (p *Plan) Declarations() []*Declaration {
	return p.decls
}

// Result returns the handler's result type, or nil when the handler only
// returns an error.
func (p *Plan) Result() reflect.Type {
	return p.result
}

// compilePlan turns a handler function into a Plan. The handler's non-context
// parameters are matched against registered declarations; their dependency
// trees are flattened depth-first with post-order emission, so children
// always precede parents.
func (c *Container) compilePlan(handler any) (*Plan, error) {
	if handler == nil {
		return nil, &DeclarationError{Cause: ErrHandlerNotFunc}
	}

	value := reflect.ValueOf(handler)
	if value.Kind() != reflect.Func || value.IsNil() {
		return nil, &DeclarationError{Cause: fmt.Errorf("%w, got %T", ErrHandlerNotFunc, handler)}
	}

	fnType := value.Type()
	p := &Plan{fn: value}

	for i := 0; i < fnType.NumIn(); i++ {
		in := fnType.In(i)

		if in == ctxType {
			if i != 0 {
				return nil, &DeclarationError{Cause: fmt.Errorf("context.Context must be the first handler parameter")}
			}
			p.wantsContext = true
			continue
		}

		decl, ok := c.declarations[in]
		if !ok {
			return nil, &DeclarationError{Cause: fmt.Errorf("%w: %s", ErrUnknownDependency, formatType(in))}
		}
		p.params = append(p.params, decl)
	}

	switch fnType.NumOut() {
	case 0:
		// func(...) with no returns; nothing to encode
	case 1:
		if fnType.Out(0) == errType {
			p.returnsError = true
		} else {
			p.result = fnType.Out(0)
		}
	case 2:
		if fnType.Out(1) != errType {
			return nil, &DeclarationError{Cause: fmt.Errorf("second handler return value must be error, got %s", fnType.Out(1))}
		}
		p.result = fnType.Out(0)
		p.returnsError = true
	default:
		return nil, &DeclarationError{Cause: fmt.Errorf("handler may return at most a value and an error")}
	}

	roots := make([]graph.Key, len(p.params))
	for i, decl := range p.params {
		roots[i] = decl.Key()
	}

	keys, err := c.graph.SortAll(roots)
	if err != nil {
		return nil, err
	}

	p.decls = make([]*Declaration, len(keys))
	for i, k := range keys {
		p.decls[i] = c.declarations[k.Type]
	}

	return p, nil
}

// invoke calls the handler with the resolved arguments. Panics inside the
// handler are not recovered here; the transport adapter decides how to
// surface them.
func (p *Plan) invoke(ctx context.Context, args []reflect.Value) (reflect.Value, error) {
	in := make([]reflect.Value, 0, len(args)+1)
	if p.wantsContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	in = append(in, args...)

	results := p.fn.Call(in)

	var result reflect.Value
	if p.result != nil {
		result = results[0]
	}
	if p.returnsError {
		last := results[len(results)-1]
		if !last.IsNil() {
			return result, last.Interface().(error)
		}
	}

	return result, nil
}
