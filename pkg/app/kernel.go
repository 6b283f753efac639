package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/retromusic/storefront/pkg/metrics"
	"github.com/retromusic/storefront/pkg/middleware"
	"github.com/retromusic/storefront/pkg/reqid"
	"github.com/retromusic/storefront/pkg/response"
	"github.com/retromusic/storefront/pkg/router"
)

const healthTimeout = 2 * time.Second

func buildRouter(a *Application) *router.Router {
	s := a.settings
	r := router.New()

	// Outermost first: metrics sees total latency, reqid runs before
	// anything logs, Recovery sits inside Logger so panics are logged
	// with the request id.
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(s.HTTP.CORSOrigins)))
	if s.HTTP.RateLimit > 0 {
		r.Use(middleware.RateLimit(s.HTTP.RateLimit, time.Minute))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Método no permitido")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", a.health)

	if a.static != nil {
		prefix := "/" + strings.Trim(s.Storage.LocalURL, "/")
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(a.static.Root())))
		r.Handle(prefix+"/*", "storage", files)
	}

	for _, fn := range a.routesFns {
		fn(r)
	}
	return r
}

func (a *Application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(a.checks))
	for _, c := range a.checks {
		if err := c.check(ctx); err != nil {
			results[c.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[c.name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.JSON(w, status, map[string]interface{}{
		"status": state,
		"app":    a.settings.App.Name,
		"checks": results,
	})
}
