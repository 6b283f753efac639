package orm

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/retromusic/storefront/pkg/cache"
)

type record struct {
	ID    uint
	Kind  string
	Title string
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&record{}))
	for i := 1; i <= 45; i++ {
		kind := "vinilo"
		if i%3 == 0 {
			kind = "casete"
		}
		require.NoError(t, db.Create(&record{Kind: kind, Title: fmt.Sprintf("r%02d", i)}).Error)
	}
	return db
}

func TestPaginate(t *testing.T) {
	db := newDB(t)

	var page []record
	p, err := New(context.Background(), db).Model(&record{}).Order("id").Paginate(3, 20, &page)
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 3, Limit: 20, Total: 45, LastPage: 3}, p)
	require.Len(t, page, 5)
	assert.Equal(t, "r41", page[0].Title)
}

func TestPaginateWithFilters(t *testing.T) {
	db := newDB(t)

	var page []record
	p, err := New(context.Background(), db).Model(&record{}).
		WhereIf(true, "kind = ?", "casete").
		WhereIf(false, "kind = ?", "vinilo").
		Paginate(1, 0, &page)
	require.NoError(t, err)
	assert.EqualValues(t, 15, p.Total)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Len(t, page, 15)
}

func TestClamp(t *testing.T) {
	page, limit := Clamp(0, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxLimit, limit)

	page, limit = Clamp(4, -1)
	assert.Equal(t, 4, page)
	assert.Equal(t, DefaultLimit, limit)
}

func TestCacheLoadsOnceWhenEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	store := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	loads := 0
	load := func(dest *[]string) func() error {
		return func() error {
			loads++
			*dest = []string{"a", "b"}
			return nil
		}
	}

	var first, second []string
	require.NoError(t, Cache(ctx, store, "k", 0, &first, load(&first)))
	require.NoError(t, Cache(ctx, store, "k", 0, &second, load(&second)))
	assert.Equal(t, 1, loads)
	assert.Equal(t, []string{"a", "b"}, second)
}

func TestCacheWithoutRedisAlwaysLoads(t *testing.T) {
	var store *cache.Store
	loads := 0
	var out int
	for i := 0; i < 2; i++ {
		require.NoError(t, Cache(context.Background(), store, "k", 0, &out, func() error {
			loads++
			out = 7
			return nil
		}))
	}
	assert.Equal(t, 2, loads)
}
