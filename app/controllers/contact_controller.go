package controllers

import (
	"net/http"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
)

type ContactController struct {
	service *services.ContactService
}

func NewContactController(service *services.ContactService) *ContactController {
	return &ContactController{service: service}
}

// Contact handles POST /api/contacto.
func (cc *ContactController) Contact(c *ctx.Context) {
	var in services.ContactInput
	if !c.BindJSON(&in) {
		return
	}
	if err := cc.service.Contact(c.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{"message": "Correo enviado correctamente"})
}

// Subscribe handles POST /api/suscripcion.
func (cc *ContactController) Subscribe(c *ctx.Context) {
	var in struct {
		Email string `json:"correo"`
	}
	if !c.BindJSON(&in) {
		return
	}
	if err := cc.service.Subscribe(c.Context(), in.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{"message": "Suscripción exitosa, correo enviado"})
}
