package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/orm"
)

// ProductFilter narrows a catalog listing. Zero ids mean "any".
type ProductFilter struct {
	CategoryID uint
	BrandID    uint
	Page       int
	Limit      int
}

// ProductRepository handles database operations for Product.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns one page of products with brand and category preloaded.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) (orm.Page[models.Product], error) {
	var items []models.Product
	p, err := orm.New(ctx, r.db).
		Model(&models.Product{}).
		WhereIf(f.CategoryID > 0, "category_id = ?", f.CategoryID).
		WhereIf(f.BrandID > 0, "brand_id = ?", f.BrandID).
		Preload("Brand").
		Preload("Category").
		Order("id").
		Paginate(f.Page, f.Limit, &items)
	if err != nil {
		return orm.Page[models.Product]{}, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return orm.Page[models.Product]{Items: items, Pagination: p}, nil
}

// Find loads one product with brand and category.
func (r *ProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := orm.New(ctx, r.db).Preload("Brand").Preload("Category").Where("id = ?", id).First(&p)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// LockByIDs reads every product in ids under a row lock. Missing ids are
// simply absent from the result.
func (r *ProductRepository) LockByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).Clauses(forUpdate).Where("id IN ?", ids).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	return out, nil
}

// DecrementStock subtracts qty only while enough stock remains. It reports
// false when the guard rejected the update.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock of %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Stock returns the current stock of a product.
func (r *ProductRepository) Stock(ctx context.Context, id uint) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Select("stock").Scan(&stock).Error
	if err != nil {
		return 0, fmt.Errorf("read stock of %d: %w", id, err)
	}
	return stock, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := r.db.WithContext(ctx).Omit("Brand", "Category").Create(p).Error; err != nil {
		return fmt.Errorf("create product: %w", translate(err))
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	if err := r.db.WithContext(ctx).Omit("Brand", "Category").Save(p).Error; err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, translate(err))
	}
	return nil
}

// Delete soft-deletes a product. Past order lines keep their snapshot.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
