package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Transaction runs fn with a repository bound to a single transaction.
func (r *UserRepository) Transaction(ctx context.Context, fn func(repo *UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUserRepository(tx))
	})
}

// FindByEmail looks up a user by exact email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := orm.New(ctx, r.db).Model(&models.User{}).Where("email = ?", email).First(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := orm.New(ctx, r.db).Model(&models.User{}).Where("id = ?", id).First(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// LockByEmail reads a user under a row lock. Call inside Transaction.
func (r *UserRepository) LockByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Clauses(forUpdate).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// LockByID reads a user by id under a row lock. Call inside Transaction.
func (r *UserRepository) LockByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Clauses(forUpdate).First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create persists a new user. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Save writes every column of an existing user.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user %d: %w", user.ID, translate(err))
	}
	return nil
}

// PurgeExpired clears reset codes and lockouts that elapsed before now.
func (r *UserRepository) PurgeExpired(ctx context.Context, now time.Time) (codes, locks int64, err error) {
	db := r.db.WithContext(ctx).Model(&models.User{})

	res := db.Where("reset_expires IS NOT NULL AND reset_expires <= ?", now).
		Updates(map[string]interface{}{"reset_code_hash": nil, "reset_expires": nil})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("purge reset codes: %w", res.Error)
	}
	codes = res.RowsAffected

	res = r.db.WithContext(ctx).Model(&models.User{}).
		Where("locked_until IS NOT NULL AND locked_until <= ?", now).
		Updates(map[string]interface{}{"locked_until": nil, "failed_attempts": 0})
	if res.Error != nil {
		return codes, 0, fmt.Errorf("purge lockouts: %w", res.Error)
	}
	return codes, res.RowsAffected, nil
}
