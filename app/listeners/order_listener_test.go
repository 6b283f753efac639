package listeners

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/internal/testutil"
	"github.com/retromusic/storefront/pkg/event"
	"github.com/retromusic/storefront/pkg/queue"
)

type captured struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (c *captured) Dispatch(_ context.Context, job queue.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func TestOrderCreatedQueuesConfirmation(t *testing.T) {
	db := testutil.NewDB(t)
	user := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)

	q := &captured{}
	bus := event.New()
	Register(bus, repositories.NewUserRepository(db), q, "Retro Music")

	order := models.Order{
		ID: 12, UserID: user.ID,
		Subtotal: decimal.RequireFromString("200"), Tax: decimal.RequireFromString("32"), Total: decimal.RequireFromString("232"),
		Lines: []models.OrderLine{{ProductName: "Stratocaster", Quantity: 2, Subtotal: decimal.RequireFromString("200")}},
	}
	require.NoError(t, bus.Fire(context.Background(), services.EventOrderCreated, services.OrderCreated{Order: order}))

	require.Len(t, q.jobs, 1)
	job := q.jobs[0].(*jobs.SendMail)
	assert.Equal(t, "ana@example.com", job.To)
	assert.Contains(t, job.Text, "Orden #12")
	assert.Contains(t, job.Text, "2 x Stratocaster")
}

func TestOrderCreatedUnknownBuyer(t *testing.T) {
	db := testutil.NewDB(t)
	bus := event.New()
	Register(bus, repositories.NewUserRepository(db), &captured{}, "Retro Music")

	err := bus.Fire(context.Background(), services.EventOrderCreated, services.OrderCreated{Order: models.Order{ID: 1, UserID: 42}})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	err = bus.Fire(context.Background(), services.EventOrderCreated, "nope")
	assert.Error(t, err)
}
