package controllers

import (
	"net/http"

	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/ctx"
)

type ProductController struct {
	service   *services.CatalogService
	maxUpload int64
}

func NewProductController(service *services.CatalogService, maxUpload int64) *ProductController {
	return &ProductController{service: service, maxUpload: maxUpload}
}

// Index handles GET /api/productos?categoria=&marca=&page=&limit=.
func (p *ProductController) Index(c *ctx.Context) {
	page, err := p.service.Products(c.Context(), services.ProductQuery{
		CategoryID: queryID(c, "categoria"),
		BrandID:    queryID(c, "marca"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 0),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(page.Items, page.Pagination)
}

func (p *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}
	product, err := p.service.Product(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func (p *ProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := p.service.CreateProduct(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(product)
}

func (p *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	product, err := p.service.UpdateProduct(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func (p *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}
	if err := p.service.DeleteProduct(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, map[string]any{"message": "Producto eliminado correctamente"})
}

// UploadImage handles POST /api/productos/{id}/imagen (multipart field "imagen").
func (p *ProductController) UploadImage(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		c.NotFound()
		return
	}

	file, header, err := c.FormFile("imagen", p.maxUpload)
	if err != nil {
		c.Error(http.StatusBadRequest, "Debes adjuntar una imagen en el campo imagen")
		return
	}
	defer file.Close()

	if header.Size > p.maxUpload {
		c.Error(http.StatusRequestEntityTooLarge, "La imagen excede el tamaño permitido")
		return
	}

	product, err := p.service.UploadImage(c.Context(), id, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func queryID(c *ctx.Context, key string) uint {
	n := c.QueryInt(key, 0)
	if n < 0 {
		return 0
	}
	return uint(n)
}
