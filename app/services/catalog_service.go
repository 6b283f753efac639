package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/pkg/cache"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/orm"
	"github.com/retromusic/storefront/pkg/storage"
	"github.com/retromusic/storefront/pkg/validate"
)

const cachePrefix = "catalog:"

// ErrNotAnImage is returned when an upload is not an image.
var ErrNotAnImage = errors.New("upload is not an image")

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name        string          `json:"nombre"       validate:"required,max=255"`
	BrandID     uint            `json:"marca_id"     validate:"required"`
	CategoryID  uint            `json:"categoria_id" validate:"required"`
	Price       decimal.Decimal `json:"precio"       validate:"required,gt=0,lte=99999999.99"`
	Stock       int             `json:"stock"        validate:"gte=0"`
	Description string          `json:"descripcion"  validate:"max=5000"`
	Image       string          `json:"imagen"       validate:"max=512"`
	IsNew       bool            `json:"es_nuevo"`
}

// ProductQuery filters a public listing.
type ProductQuery struct {
	CategoryID uint
	BrandID    uint
	Page       int
	Limit      int
}

// CatalogService serves the public catalog and admin product management.
type CatalogService struct {
	products *repositories.ProductRepository
	catalog  *repositories.CatalogRepository
	cache    *cache.Store
	ttl      time.Duration
	disk     storage.Disk
}

func NewCatalogService(products *repositories.ProductRepository, catalog *repositories.CatalogRepository,
	store *cache.Store, ttl time.Duration, disk storage.Disk) *CatalogService {
	return &CatalogService{products: products, catalog: catalog, cache: store, ttl: ttl, disk: disk}
}

// Products returns a cached page of products.
func (s *CatalogService) Products(ctx context.Context, q ProductQuery) (orm.Page[models.Product], error) {
	q.Page, q.Limit = orm.Clamp(q.Page, q.Limit)
	key := fmt.Sprintf("%sproducts:c%d:b%d:p%d:l%d", cachePrefix, q.CategoryID, q.BrandID, q.Page, q.Limit)

	var page orm.Page[models.Product]
	err := orm.Cache(ctx, s.cache, key, s.ttl, &page, func() error {
		var err error
		page, err = s.products.List(ctx, repositories.ProductFilter{
			CategoryID: q.CategoryID, BrandID: q.BrandID, Page: q.Page, Limit: q.Limit,
		})
		return err
	})
	return page, err
}

// Product returns one product.
func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	return s.products.Find(ctx, id)
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := orm.Cache(ctx, s.cache, cachePrefix+"categories", s.ttl, &out, func() error {
		var err error
		out, err = s.catalog.Categories(ctx)
		return err
	})
	return out, err
}

func (s *CatalogService) Brands(ctx context.Context) ([]models.Brand, error) {
	var out []models.Brand
	err := orm.Cache(ctx, s.cache, cachePrefix+"brands", s.ttl, &out, func() error {
		var err error
		out, err = s.catalog.Brands(ctx)
		return err
	})
	return out, err
}

// CategoryProducts lists products of an existing category.
func (s *CatalogService) CategoryProducts(ctx context.Context, id uint, page, limit int) (orm.Page[models.Product], error) {
	if _, err := s.catalog.FindCategory(ctx, id); err != nil {
		return orm.Page[models.Product]{}, err
	}
	return s.Products(ctx, ProductQuery{CategoryID: id, Page: page, Limit: limit})
}

// BrandProducts lists products of an existing brand.
func (s *CatalogService) BrandProducts(ctx context.Context, id uint, page, limit int) (orm.Page[models.Product], error) {
	if _, err := s.catalog.FindBrand(ctx, id); err != nil {
		return orm.Page[models.Product]{}, err
	}
	return s.Products(ctx, ProductQuery{BrandID: id, Page: page, Limit: limit})
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.check(ctx, &in); err != nil {
		return nil, err
	}
	p := &models.Product{}
	apply(p, in)
	// New products are always flagged; es_nuevo only applies on update.
	p.IsNew = true
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("catalog: product created", "product_id", p.ID)
	return s.products.Find(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := s.check(ctx, &in); err != nil {
		return nil, err
	}
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in)
	p.Brand, p.Category = nil, nil
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.products.Find(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("catalog: product deleted", "product_id", id)
	return nil
}

// UploadImage stores an image for product id and points the product at it.
func (s *CatalogService) UploadImage(ctx context.Context, id uint, r io.Reader, filename, contentType string) (*models.Product, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, ErrNotAnImage
	}

	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := fmt.Sprintf("productos/%d/%s%s", id, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, r, mediaType); err != nil {
		return nil, fmt.Errorf("store product image: %w", err)
	}

	p.Image = s.disk.URL(key)
	p.Brand, p.Category = nil, nil
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.products.Find(ctx, id)
}

func (s *CatalogService) check(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	errs := validate.Struct(in)
	if _, ok := errs["marca_id"]; !ok {
		if _, err := s.catalog.FindBrand(ctx, in.BrandID); errors.Is(err, repositories.ErrNotFound) {
			errs["marca_id"] = "La marca seleccionada no existe."
		} else if err != nil {
			return err
		}
	}
	if _, ok := errs["categoria_id"]; !ok {
		if _, err := s.catalog.FindCategory(ctx, in.CategoryID); errors.Is(err, repositories.ErrNotFound) {
			errs["categoria_id"] = "La categoría seleccionada no existe."
		} else if err != nil {
			return err
		}
	}
	if validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Flush(ctx, cachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache flush failed", "error", err)
	}
}

func apply(p *models.Product, in ProductInput) {
	p.Name = in.Name
	p.BrandID = in.BrandID
	p.CategoryID = in.CategoryID
	p.Price = models.Money(in.Price)
	p.Stock = in.Stock
	p.Description = in.Description
	p.Image = in.Image
	p.IsNew = in.IsNew
}
