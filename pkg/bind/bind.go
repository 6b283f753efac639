// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/retromusic/storefront/pkg/validate"
)

const defaultMaxBody = 1 << 20

var maxBody atomic.Int64

func init() { maxBody.Store(defaultMaxBody) }

// SetMaxBodyBytes changes the request body cap. Non-positive values restore
// the 1 MB default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBody
	}
	maxBody.Store(n)
}

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBody.Load())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("cuerpo de la petición demasiado grande (máximo %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("JSON inválido: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}
