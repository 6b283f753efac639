package validate_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/retromusic/storefront/pkg/validate"
)

type registerInput struct {
	Name     string `json:"nombre"   validate:"required,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Website  string `json:"sitio"    validate:"nullable,url"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secreto",
	})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(&registerInput{Name: "   "})
	assert.Contains(t, errs, "nombre")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "sitio")
	assert.Equal(t, "El campo email es obligatorio.", errs["email"])
}

func TestFirstFailingRuleWins(t *testing.T) {
	errs := validate.Struct(registerInput{Name: "Ana", Email: "ana@example.com", Password: "123"})
	assert.Equal(t, "El campo password debe tener al menos 6 caracteres.", errs["password"])
}

func TestMaxBytesCountsBytes(t *testing.T) {
	type in struct {
		Password string `json:"password" validate:"max=72,maxbytes=72"`
	}

	// 40 runes, 80 bytes.
	errs := validate.Struct(in{Password: strings.Repeat("ñ", 40)})
	assert.Equal(t, "El campo password no debe exceder 72 bytes.", errs["password"])

	errs = validate.Struct(in{Password: strings.Repeat("ñ", 36)})
	assert.Empty(t, errs)
}

func TestEmailRule(t *testing.T) {
	errs := validate.Struct(registerInput{Name: "Ana", Email: "not-an-email", Password: "secreto"})
	assert.Contains(t, errs, "email")

	assert.True(t, validate.Email(" ana@example.com "))
	assert.False(t, validate.Email("ana@"))
}

func TestNullableURL(t *testing.T) {
	errs := validate.Struct(registerInput{Name: "Ana", Email: "a@b.co", Password: "secreto", Website: "ftp://x"})
	assert.Contains(t, errs, "sitio")
}

func TestNumericBoundsAndDecimal(t *testing.T) {
	type in struct {
		Price decimal.Decimal `json:"precio" validate:"required,gt=0"`
		Stock int             `json:"stock"  validate:"gte=0"`
	}

	errs := validate.Struct(in{Price: decimal.Zero, Stock: -1})
	assert.Contains(t, errs, "precio")
	assert.Contains(t, errs, "stock")

	errs = validate.Struct(in{Price: decimal.RequireFromString("19.99"), Stock: 0})
	assert.Empty(t, errs)
}

func TestInAndDigits(t *testing.T) {
	type in struct {
		Role string `json:"rol"    validate:"in=customer|admin"`
		Code string `json:"codigo" validate:"required,digits=6"`
	}

	errs := validate.Struct(in{Role: "root", Code: "12a456"})
	assert.Contains(t, errs, "rol")
	assert.Contains(t, errs, "codigo")

	errs = validate.Struct(in{Role: "admin", Code: "012345"})
	assert.Empty(t, errs)
}
