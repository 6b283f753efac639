package migration

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

type addIndex struct{}

func (addIndex) Up(db *gorm.DB) error {
	return db.Exec("CREATE INDEX idx_widgets_name ON widgets (name)").Error
}
func (addIndex) Down(db *gorm.DB) error {
	return db.Exec("DROP INDEX idx_widgets_name").Error
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestRunRollbackStatus(t *testing.T) {
	db := openDB(t)
	var out bytes.Buffer
	list := []Entry{
		{Name: "20240101000001_add_index", Migration: addIndex{}},
		{Name: "20240101000000_create_widgets", Migration: createWidgets{}},
	}
	r := NewWith(db, &out, list)

	require.NoError(t, r.Run())
	assert.True(t, db.Migrator().HasTable("widgets"))
	assert.Contains(t, out.String(), "Migrated:  20240101000000_create_widgets")

	rows, err := r.Status()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20240101000000_create_widgets", rows[0].Name)
	assert.True(t, rows[0].Ran)
	assert.Equal(t, 1, rows[1].Batch)
	assert.NotContains(t, out.String(), "\x00")

	out.Reset()
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "Nothing to migrate.")

	require.NoError(t, r.Rollback())
	assert.False(t, db.Migrator().HasTable("widgets"))

	pending, err := r.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	out.Reset()
	require.NoError(t, r.Rollback())
	assert.Contains(t, out.String(), "Nothing to roll back.")
}

func TestRunWithoutMigrations(t *testing.T) {
	r := NewWith(openDB(t), nil, nil)
	assert.ErrorIs(t, r.Run(), ErrNoMigrations)
}
