package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
)

func render(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	ctx.Wrap(func(c *ctx.Context) { fail(c, err) })(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestFailStatusCodes(t *testing.T) {
	two := 2
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "x"}}, http.StatusBadRequest},
		{"missing fields", &services.MissingFieldsError{Present: map[string]bool{"nombre": true}}, http.StatusBadRequest},
		{"credentials", &services.CredentialsError{AttemptsRemaining: &two}, http.StatusUnauthorized},
		{"bare credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked", &services.LockedError{RemainingMinutes: 4}, http.StatusForbidden},
		{"code", services.ErrInvalidOrExpiredCode, http.StatusBadRequest},
		{"email taken", services.ErrEmailTaken, http.StatusConflict},
		{"empty cart", services.ErrEmptyCart, http.StatusBadRequest},
		{"products not found", services.ErrProductsNotFound, http.StatusBadRequest},
		{"stock", &services.StockError{ProductID: 1, ProductName: "A", Available: 2}, http.StatusBadRequest},
		{"not an image", services.ErrNotAnImage, http.StatusBadRequest},
		{"not found", fmt.Errorf("load: %w", services.ErrNotFound), http.StatusNotFound},
		{"timeout", services.ErrTimeout, http.StatusServiceUnavailable},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := render(t, tc.err)
			assert.Equal(t, tc.want, code)
			assert.EqualValues(t, tc.want, body["status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestFailExtras(t *testing.T) {
	two := 2
	_, body := render(t, &services.CredentialsError{AttemptsRemaining: &two})
	assert.EqualValues(t, 2, body["intentosRestantes"])

	_, body = render(t, &services.CredentialsError{})
	assert.NotContains(t, body, "intentosRestantes")

	_, body = render(t, &services.LockedError{RemainingMinutes: 4})
	assert.EqualValues(t, 4, body["minutosRestantes"])

	_, body = render(t, &services.StockError{ProductID: 7, ProductName: "Walkman", Available: 1})
	assert.EqualValues(t, 7, body["productoId"])
	assert.Equal(t, "Walkman", body["producto"])
	assert.EqualValues(t, 1, body["disponibles"])

	_, body = render(t, errors.New("dial tcp 10.0.0.1:5432: secret detail"))
	assert.Equal(t, "Error interno del servidor", body["message"])
}
