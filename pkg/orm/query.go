// Package orm is a thin fluent layer over GORM used by repositories for
// paginated and cached reads.
package orm

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/pkg/cache"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is the metadata returned with a paginated listing.
type Pagination struct {
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// Page is a cacheable page of rows with its pagination metadata.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

type Query struct {
	db *gorm.DB
}

// New starts a query bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

// WhereIf applies the condition only when ok is true.
func (q *Query) WhereIf(ok bool, query string, args ...interface{}) *Query {
	if !ok {
		return q
	}
	return q.Where(query, args...)
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Preload(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Preload(query, args...)}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

// Paginate counts the matching rows and loads one page into dest.
// page and limit are clamped to sane bounds.
func (q *Query) Paginate(page, limit int, dest interface{}) (Pagination, error) {
	page, limit = Clamp(page, limit)

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	if err := q.db.Offset((page - 1) * limit).Limit(limit).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	return Pagination{
		Page:     page,
		Limit:    limit,
		Total:    total,
		LastPage: int(math.Max(1, math.Ceil(float64(total)/float64(limit)))),
	}, nil
}

// Cache serves dest from store when key is present, otherwise runs load and
// caches its result for ttl. Cache failures never fail the read.
func Cache(ctx context.Context, store *cache.Store, key string, ttl time.Duration, dest interface{}, load func() error) error {
	if store.Get(ctx, key, dest) {
		return nil
	}

	if err := load(); err != nil {
		return err
	}

	_ = store.Set(ctx, key, dest, ttl)
	return nil
}

// Clamp normalises page/limit query values.
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
