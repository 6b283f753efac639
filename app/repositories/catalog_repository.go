package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/orm"
)

// CatalogRepository reads categories and brands.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	return out, orm.New(ctx, r.db).Order("name").Get(&out)
}

func (r *CatalogRepository) Brands(ctx context.Context) ([]models.Brand, error) {
	out := []models.Brand{}
	return out, orm.New(ctx, r.db).Order("name").Get(&out)
}

func (r *CatalogRepository) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := orm.New(ctx, r.db).Where("id = ?", id).First(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CatalogRepository) FindBrand(ctx context.Context, id uint) (*models.Brand, error) {
	var b models.Brand
	if err := orm.New(ctx, r.db).Where("id = ?", id).First(&b); err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// EnsureCategory returns the category named name, creating it if needed.
func (r *CatalogRepository) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	c := models.Category{Name: name}
	err := r.db.WithContext(ctx).Where(models.Category{Name: name}).FirstOrCreate(&c).Error
	return &c, translate(err)
}

// EnsureBrand returns the brand named name, creating it if needed.
func (r *CatalogRepository) EnsureBrand(ctx context.Context, name string) (*models.Brand, error) {
	b := models.Brand{Name: name}
	err := r.db.WithContext(ctx).Where(models.Brand{Name: name}).FirstOrCreate(&b).Error
	return &b, translate(err)
}
