// Package routes mounts the storefront API on the router.
package routes

import (
	"github.com/retromusic/storefront/app/controllers"
	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/auth"
	"github.com/retromusic/storefront/pkg/ctx"
	"github.com/retromusic/storefront/pkg/middleware"
	"github.com/retromusic/storefront/pkg/rbac"
	"github.com/retromusic/storefront/pkg/router"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	Auth     *controllers.AuthController
	Orders   *controllers.OrderController
	Products *controllers.ProductController
	Catalog  *controllers.CatalogController
	Contact  *controllers.ContactController
}

func RegisterAPI(r *router.Router, tokens *auth.Manager, c Controllers) {
	api := r.Group("/api")
	authenticated := middleware.Auth(tokens)
	admin := rbac.HasRole(models.RoleAdmin)

	a := api.Group("/auth")
	a.Post("/register", "auth.register", ctx.Wrap(c.Auth.Register))
	a.Post("/login", "auth.login", ctx.Wrap(c.Auth.Login))
	a.Post("/forgot", "auth.forgot", ctx.Wrap(c.Auth.Forgot))
	a.Post("/reset", "auth.reset", ctx.Wrap(c.Auth.Reset))
	a.Get("/me", "auth.me", ctx.Wrap(c.Auth.Me), authenticated)

	orders := api.Group("/ordenes", authenticated)
	orders.Post("/", "orders.create", ctx.Wrap(c.Orders.Create))
	orders.Get("/mias", "orders.mine", ctx.Wrap(c.Orders.Mine))

	products := api.Group("/productos")
	products.Get("/", "products.index", ctx.Wrap(c.Products.Index))
	products.Get("/{id}", "products.show", ctx.Wrap(c.Products.Show))

	manage := products.Group("", authenticated, admin)
	manage.Post("/", "products.store", ctx.Wrap(c.Products.Store))
	manage.Put("/{id}", "products.update", ctx.Wrap(c.Products.Update))
	manage.Delete("/{id}", "products.destroy", ctx.Wrap(c.Products.Destroy))
	manage.Post("/{id}/imagen", "products.image", ctx.Wrap(c.Products.UploadImage))

	api.Get("/categorias", "categories.index", ctx.Wrap(c.Catalog.Categories))
	api.Get("/categorias/{id}/productos", "categories.products", ctx.Wrap(c.Catalog.CategoryProducts))
	api.Get("/marcas", "brands.index", ctx.Wrap(c.Catalog.Brands))
	api.Get("/marcas/{id}/productos", "brands.products", ctx.Wrap(c.Catalog.BrandProducts))

	api.Post("/contacto", "contact.send", ctx.Wrap(c.Contact.Contact))
	api.Post("/suscripcion", "contact.subscribe", ctx.Wrap(c.Contact.Subscribe))
}
