package seeders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/config"
)

func init() {
	Register("catalog", SeedCatalog)
}

type productSeed struct {
	name, brand, category string
	price                 string
	stock                 int
	description           string
	isNew                 bool
}

var catalog = []productSeed{
	{"Walkman WM-2", "Sony", "Reproductores", "1899.00", 4, "Reproductor de casete portátil, restaurado.", false},
	{"Discman D-50", "Sony", "Reproductores", "1499.00", 6, "Reproductor de CD portátil con antisalto.", false},
	{"SL-1200 MK2", "Technics", "Tornamesas", "12999.00", 2, "Tornamesa de tracción directa.", false},
	{"PL-12D", "Pioneer", "Tornamesas", "5499.00", 3, "Tornamesa de banda, brazo recto.", false},
	{"SX-780", "Pioneer", "Amplificadores", "7999.00", 2, "Receptor estéreo de 45 W por canal.", false},
	{"Model 2230", "Marantz", "Amplificadores", "9499.00", 1, "Receptor con sintonizador FM de aguja.", false},
	{"Thriller (LP)", "Epic", "Vinilos", "699.00", 15, "Edición original de 1982.", false},
	{"Rumours (LP)", "Warner", "Vinilos", "649.00", 12, "Reedición en vinilo de 180 g.", true},
	{"Kind of Blue (LP)", "Columbia", "Vinilos", "599.00", 10, "Reedición mono.", true},
	{"Cinta TDK SA90", "TDK", "Accesorios", "149.00", 40, "Casete virgen tipo II.", false},
}

// SeedCatalog inserts the demo categories, brands and products. Products
// whose name already exists are left untouched.
func SeedCatalog(ctx context.Context, db *gorm.DB, _ *config.Settings) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats := repositories.NewCatalogRepository(tx)
		products := repositories.NewProductRepository(tx)

		for _, seed := range catalog {
			category, err := cats.EnsureCategory(ctx, seed.category)
			if err != nil {
				return err
			}
			brand, err := cats.EnsureBrand(ctx, seed.brand)
			if err != nil {
				return err
			}

			var existing models.Product
			err = tx.Where("name = ?", seed.name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if err := products.Create(ctx, &models.Product{
				Name:        seed.name,
				BrandID:     brand.ID,
				CategoryID:  category.ID,
				Price:       decimal.RequireFromString(seed.price),
				Stock:       seed.stock,
				Description: seed.description,
				IsNew:       seed.isNew,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
