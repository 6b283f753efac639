package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/response"
)

// Recovery catches any panic in downstream handlers, logs the stack trace
// and returns a generic 500. The stack never reaches the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Error(w, http.StatusInternalServerError, "Error interno del servidor")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
