package migrations

import (
	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/pkg/migration"
	"github.com/retromusic/storefront/pkg/queue"
)

func init() {
	migration.Register("20250101000000_create_usuarios_table", &tableMigration{models: []interface{}{&models.User{}}})
	migration.Register("20250101000001_create_catalog_tables", &tableMigration{models: []interface{}{&models.Category{}, &models.Brand{}}})
	migration.Register("20250101000002_create_productos_table", &tableMigration{models: []interface{}{&models.Product{}}})
	migration.Register("20250101000003_create_ordenes_tables", &tableMigration{models: []interface{}{&models.Order{}, &models.OrderLine{}}})
	migration.Register("20250101000004_create_failed_jobs_table", &tableMigration{models: []interface{}{&queue.FailedJobRecord{}}})
}

// tableMigration creates its tables in order and drops them in reverse.
type tableMigration struct {
	models []interface{}
}

func (m *tableMigration) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.models...)
}

func (m *tableMigration) Down(db *gorm.DB) error {
	for i := len(m.models) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(m.models[i]); err != nil {
			return err
		}
	}
	return nil
}
