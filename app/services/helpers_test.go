package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/queue"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (q *recordingQueue) Dispatch(_ context.Context, job queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Jobs() []queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Job(nil), q.jobs...)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func authSettings() config.AuthSettings {
	return config.AuthSettings{
		JWTSecret:       "test-secret",
		TokenTTL:        2 * time.Hour,
		MaxAttempts:     3,
		LockoutDuration: 5 * time.Minute,
		RevealAttempts:  true,
		ResetCodeTTL:    10 * time.Minute,
		BcryptCost:      bcrypt.MinCost,
	}
}

func orderSettings() config.OrderSettings {
	return config.OrderSettings{TaxRate: decimal.RequireFromString("0.16"), Timeout: 5 * time.Second}
}

type catalogFixture struct {
	Category models.Category
	Brand    models.Brand
	A, B     models.Product
}

// seedCatalog creates product A (100.00, stock 2) and B (50.00, stock 5).
func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	f := catalogFixture{
		Category: models.Category{Name: "Guitarras"},
		Brand:    models.Brand{Name: "Fender"},
	}
	require.NoError(t, db.Create(&f.Category).Error)
	require.NoError(t, db.Create(&f.Brand).Error)

	f.A = models.Product{Name: "Stratocaster", BrandID: f.Brand.ID, CategoryID: f.Category.ID,
		Price: decimal.RequireFromString("100.00"), Stock: 2}
	f.B = models.Product{Name: "Telecaster", BrandID: f.Brand.ID, CategoryID: f.Category.ID,
		Price: decimal.RequireFromString("50.00"), Stock: 5}
	require.NoError(t, db.Create(&f.A).Error)
	require.NoError(t, db.Create(&f.B).Error)
	return f
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Unscoped().First(&p, id).Error)
	return p.Stock
}
