// Package app assembles the HTTP kernel and runs the server lifecycle.
//
//	a := app.New(settings).
//	    Routes(func(r *router.Router) { routes.RegisterAPI(r, tokens, handlers) }).
//	    Health("database", dbCheck).
//	    Static(disk)
//	err := a.Serve(ctx) // blocks until ctx is cancelled, then drains
package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/router"
	"github.com/retromusic/storefront/pkg/storage"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Application is built once at startup, configured, then served.
type Application struct {
	settings  *config.Settings
	routesFns []func(*router.Router)
	checks    []namedCheck
	static    *storage.LocalDisk

	once   sync.Once
	router *router.Router
}

func New(s *config.Settings) *Application {
	return &Application{settings: s}
}

// Routes registers a route-registration callback. Callbacks run in order
// when the router is first built.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// Health adds a dependency probe to GET /health.
func (a *Application) Health(name string, check HealthCheck) *Application {
	a.checks = append(a.checks, namedCheck{name: name, check: check})
	return a
}

// Static serves files from a local disk under its public URL prefix. Remote
// disks serve their own files and are ignored.
func (a *Application) Static(disk storage.Disk) *Application {
	if local, ok := disk.(*storage.LocalDisk); ok {
		a.static = local
	}
	return a
}

// Router returns the fully built router.
func (a *Application) Router() *router.Router {
	a.once.Do(func() {
		a.router = buildRouter(a)
	})
	return a.router
}

func (a *Application) Handler() http.Handler {
	return a.Router().Handler()
}
