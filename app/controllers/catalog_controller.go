package controllers

import (
	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

func (cc *CatalogController) Categories(c *ctx.Context) {
	out, err := cc.service.Categories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(out)
}

func (cc *CatalogController) CategoryProducts(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}
	page, err := cc.service.CategoryProducts(c.Context(), id, c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(page.Items, page.Pagination)
}

func (cc *CatalogController) Brands(c *ctx.Context) {
	out, err := cc.service.Brands(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(out)
}

func (cc *CatalogController) BrandProducts(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}
	page, err := cc.service.BrandProducts(c.Context(), id, c.QueryInt("page", 1), c.QueryInt("limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(page.Items, page.Pagination)
}
