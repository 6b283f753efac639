// Package controllers adapts HTTP requests to the storefront services.
package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
	"github.com/retromusic/storefront/pkg/logger"
)

// fail maps a service error to its HTTP status and body. Unknown errors are
// logged and reported as a generic 500.
func fail(c *ctx.Context, err error) {
	var (
		missing *services.MissingFieldsError
		invalid *services.ValidationError
		locked  *services.LockedError
		creds   *services.CredentialsError
		stock   *services.StockError
	)

	switch {
	case errors.As(err, &missing):
		c.ErrorWith(http.StatusBadRequest, "Faltan datos del formulario", map[string]any{"detalle": missing.Present})
	case errors.As(err, &invalid):
		c.ValidationError(invalid.Fields)

	case errors.As(err, &locked):
		c.ErrorWith(http.StatusForbidden,
			fmt.Sprintf("Cuenta bloqueada. Intenta de nuevo en %d minuto(s).", locked.RemainingMinutes),
			map[string]any{"minutosRestantes": locked.RemainingMinutes})
	case errors.Is(err, services.ErrAccountLocked):
		c.Error(http.StatusForbidden, "Cuenta bloqueada")
	case errors.As(err, &creds):
		var extras map[string]any
		if creds.AttemptsRemaining != nil {
			extras = map[string]any{"intentosRestantes": *creds.AttemptsRemaining}
		}
		c.ErrorWith(http.StatusUnauthorized, "Credenciales incorrectas", extras)
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Error(http.StatusUnauthorized, "Credenciales incorrectas")
	case errors.Is(err, services.ErrInvalidOrExpiredCode):
		c.Error(http.StatusBadRequest, "Código inválido o expirado")
	case errors.Is(err, services.ErrEmailTaken):
		c.Error(http.StatusConflict, "Ya existe un usuario registrado con ese correo")

	case errors.Is(err, services.ErrEmptyCart):
		c.Error(http.StatusBadRequest, "El carrito está vacío")
	case errors.Is(err, services.ErrProductsNotFound):
		c.Error(http.StatusBadRequest, "Productos no encontrados")
	case errors.As(err, &stock):
		c.ErrorWith(http.StatusBadRequest,
			fmt.Sprintf("No hay existencias suficientes de %q. Disponibles: %d", stock.ProductName, stock.Available),
			map[string]any{"productoId": stock.ProductID, "producto": stock.ProductName, "disponibles": stock.Available})
	case errors.Is(err, services.ErrNotAnImage):
		c.Error(http.StatusBadRequest, "El archivo debe ser una imagen")

	case errors.Is(err, services.ErrNotFound):
		c.NotFound()
	case errors.Is(err, services.ErrTimeout):
		c.Error(http.StatusServiceUnavailable, "El servidor tardó demasiado en responder, intenta de nuevo")

	default:
		logger.WithCtx(c.Context()).Error("request failed", "error", err)
		c.Error(http.StatusInternalServerError, "Error interno del servidor")
	}
}
