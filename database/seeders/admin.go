package seeders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/auth"
	"github.com/retromusic/storefront/pkg/logger"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the administrator from ADMIN_EMAIL / ADMIN_PASSWORD.
// Nothing happens when no password is configured or the account exists.
func SeedAdmin(ctx context.Context, db *gorm.DB, s *config.Settings) error {
	if s.Admin.Password == "" {
		logger.Warn("seeders: ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	users := repositories.NewUserRepository(db)
	email := strings.ToLower(strings.TrimSpace(s.Admin.Email))

	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(s.Admin.Password, s.Auth.BcryptCost)
	if err != nil {
		return err
	}
	return users.Create(ctx, &models.User{
		Name:         s.Admin.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
}
