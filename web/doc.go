// Package web adapts fusion containers to HTTP.
//
// The router compiles one resolution plan per registered handler at startup,
// opens a resolution context per incoming request seeded with the
// *http.Request, and unwinds the context when the request ends. Binding
// declarations (PathParam, Query, Header, Body) expose raw request values as
// typed, injectable dependencies.
//
//	type UserID string
//
//	reg := web.NewRegistry()
//	reg.Application(NewPool)
//	reg.Request(NewTx)
//	web.PathParam[UserID](reg, "id")
//
//	container, err := reg.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rt := web.NewRouter(container)
//	rt.Get("/users/{id}", func(ctx context.Context, id UserID, tx *Tx) (*User, error) {
//	    return loadUser(ctx, tx, id)
//	})
//
//	cfg, _ := web.LoadConfig()
//	web.NewServer(cfg, rt).Run(ctx, cfg)
package web
