package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/retromusic/storefront/app/models"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/event"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/metrics"
)

// EventOrderCreated fires after an order commits. The payload is OrderCreated.
const EventOrderCreated = "order.created"

type OrderCreated struct {
	Order models.Order
}

// OrderService turns carts into orders.
type OrderService struct {
	db     *gorm.DB
	orders *repositories.OrderRepository
	events *event.Bus
	cfg    config.OrderSettings
}

func NewOrderService(db *gorm.DB, events *event.Bus, cfg config.OrderSettings) *OrderService {
	return &OrderService{
		db:     db,
		orders: repositories.NewOrderRepository(db),
		events: events,
		cfg:    cfg,
	}
}

// Create validates the cart, prices it and writes the order, its lines and
// the stock decrements in one transaction. Any failure leaves no trace.
func (s *OrderService) Create(parent context.Context, userID uint, items []CartItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	lines := normalizeCart(items)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.place(ctx, tx, userID, lines)
		order = o
		return err
	})
	metrics.OrderTxDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		metrics.RecordOrder(orderResult(err))
		return nil, err
	}

	metrics.RecordOrder("created")
	logger.WithCtx(parent).Info("order: created",
		"order_id", order.ID, "user_id", userID, "lines", len(order.Lines), "total", order.Total.StringFixed(2))

	if s.events != nil {
		s.events.FireAsync(parent, EventOrderCreated, OrderCreated{Order: *order})
	}
	return order, nil
}

func (s *OrderService) place(ctx context.Context, tx *gorm.DB, userID uint, lines []cartLine) (*models.Order, error) {
	products := repositories.NewProductRepository(tx)

	found, err := products.LockByIDs(ctx, distinctIDs(lines))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrProductsNotFound
	}

	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	orderLines := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		if p.Stock < l.Quantity {
			return nil, &StockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock}
		}
		orderLines = append(orderLines, models.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   models.Money(p.Price),
			Subtotal:    LineSubtotal(p.Price, l.Quantity),
		})
	}

	totals := ComputeTotals(orderLines, s.cfg.TaxRate)
	order := &models.Order{
		UserID:   userID,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
		Status:   models.OrderPending,
		Lines:    orderLines,
	}
	if err := repositories.NewOrderRepository(tx).Create(ctx, order); err != nil {
		return nil, err
	}

	for _, l := range order.Lines {
		ok, err := products.DecrementStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			available, err := products.Stock(ctx, l.ProductID)
			if err != nil {
				return nil, err
			}
			return nil, &StockError{ProductID: l.ProductID, ProductName: l.ProductName, Available: available}
		}
	}

	return order, nil
}

// ListForUser returns the user's orders newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.ListForUser(ctx, userID)
}

func orderResult(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrProductsNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
