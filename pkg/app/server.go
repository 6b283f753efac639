package app

import (
	"context"

	"github.com/retromusic/storefront/internal/server"
)

// Serve listens on the configured address until ctx is cancelled, then
// shuts down within HTTP_SHUTDOWN_TIMEOUT.
func (a *Application) Serve(ctx context.Context) error {
	return server.Start(ctx, a.settings.App.Addr(), a.Handler(), a.settings.HTTP)
}
