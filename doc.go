// Package fusion is a request-scoped dependency resolution engine for
// request-serving applications. Handlers declare typed dependencies through
// their parameters; fusion compiles each handler's dependency tree into a
// topologically ordered plan, resolves it per request with correct scoping
// and caching, and guarantees teardown of acquired resources in reverse
// acquisition order regardless of the handler's outcome.
//
// # Overview
//
//   - Three scopes: Application (one value per container), Request (one value
//     per resolution context), Transient (re-resolved every time)
//   - Providers are plain functions; dependencies are matched by parameter
//     type, with optional context.Context first and optional Cleanup return
//   - Plans are compiled once per handler and cached; cycles and scope
//     conflicts are rejected at build time, before any request is served
//   - Application-scope first use is single-flight: concurrent requests
//     racing on the same declaration invoke its provider exactly once
//
// # Basic Usage
//
//	reg := fusion.NewRegistry()
//	reg.Application(NewPool)                 // func(ctx) (*Pool, fusion.Cleanup, error)
//	reg.Request(NewTx)                       // func(ctx, *Pool) (*Tx, fusion.Cleanup, error)
//
//	container, err := reg.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer container.Close(context.Background())
//
//	out, err := fusion.Call[string](ctx, container, func(ctx context.Context, tx *Tx) (string, error) {
//	    return tx.QueryName(ctx)
//	})
//
// # Providers
//
// A provider produces one value and may acquire resources:
//
//	func NewTx(ctx context.Context, pool *Pool) (*Tx, fusion.Cleanup, error) {
//	    tx, err := pool.Begin(ctx)
//	    if err != nil {
//	        return nil, nil, err
//	    }
//	    return tx, func(ctx context.Context) error { return tx.Rollback(ctx) }, nil
//	}
//
// The returned Cleanup runs when the value's owning store unwinds: at the end
// of the request for Request and Transient values, at container close for
// Application values. Unwind order is strictly last-acquired, first-released.
//
// # HTTP
//
// The web subpackage adapts containers to HTTP: it opens a resolution
// context per request, seeds it with the *http.Request, binds path, query,
// header, and body values through declarations, and encodes handler results.
package fusion
