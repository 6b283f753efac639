package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/orm"
)

// OrderRepository handles database operations for Order and OrderLine.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order header, then its lines.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	db := r.db.WithContext(ctx)
	lines := o.Lines
	o.Lines = nil

	if err := db.Create(o).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i := range lines {
		lines[i].OrderID = o.ID
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			return fmt.Errorf("insert order lines: %w", err)
		}
	}
	o.Lines = lines
	return nil
}

// ListForUser returns the user's orders newest first with lines.
func (r *OrderRepository) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	out := []models.Order{}
	err := orm.New(ctx, r.db).
		Where("user_id = ?", userID).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at desc, id desc").
		Get(&out)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	return out, nil
}

// Count returns how many orders exist. Used by tests and the status command.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}
