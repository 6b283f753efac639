package controllers

import (
	"net/http"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
	"github.com/retromusic/storefront/pkg/middleware"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required"`
}

// Register handles POST /api/auth/register.
func (a *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.Register(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, map[string]any{
		"message": "Usuario registrado exitosamente",
		"usuario": s.User,
		"token":   s.Token,
	})
}

// Login handles POST /api/auth/login.
func (a *AuthController) Login(c *ctx.Context) {
	var in loginRequest
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{
		"message": "Login exitoso",
		"usuario": s.User,
		"token":   s.Token,
	})
}

// Forgot handles POST /api/auth/forgot. The answer is the same whether or
// not the address has an account.
func (a *AuthController) Forgot(c *ctx.Context) {
	var in forgotRequest
	if !c.BindJSON(&in) {
		return
	}
	if err := a.service.Forgot(c.Context(), in.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{
		"message": "Si el correo está registrado, recibirás un código para restablecer tu contraseña.",
	})
}

// Reset handles POST /api/auth/reset.
func (a *AuthController) Reset(c *ctx.Context) {
	var in services.ResetInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := a.service.Reset(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{
		"message": "Contraseña actualizada correctamente",
		"usuario": s.User,
		"token":   s.Token,
	})
}

// Me handles GET /api/auth/me.
func (a *AuthController) Me(c *ctx.Context) {
	id, ok := middleware.UserIDFromCtx(c.R)
	if !ok {
		c.Unauthorized("No autenticado")
		return
	}
	u, err := a.service.Profile(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{"usuario": u})
}
