// Package listeners reacts to domain events.
package listeners

import (
	"context"
	"fmt"

	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/app/repositories"
	"github.com/retromusic/storefront/app/services"
	"github.com/retromusic/storefront/pkg/event"
)

// SendOrderConfirmation queues a receipt mail to the buyer of a new order.
func SendOrderConfirmation(users *repositories.UserRepository, q services.Dispatcher, storeName string) event.Handler {
	return func(ctx context.Context, payload interface{}) error {
		created, ok := payload.(services.OrderCreated)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		o := created.Order

		user, err := users.FindByID(ctx, o.UserID)
		if err != nil {
			return fmt.Errorf("listeners: load buyer of order %d: %w", o.ID, err)
		}

		lines := make([]jobs.ReceiptLine, 0, len(o.Lines))
		for _, l := range o.Lines {
			lines = append(lines, jobs.ReceiptLine{Name: l.ProductName, Quantity: l.Quantity, Subtotal: l.Subtotal})
		}
		return q.Dispatch(ctx, jobs.OrderConfirmationMail(storeName, user.Email, o.ID, lines, o.Subtotal, o.Tax, o.Total))
	}
}

// Register binds every listener to bus.
func Register(bus *event.Bus, users *repositories.UserRepository, q services.Dispatcher, storeName string) {
	bus.Listen(services.EventOrderCreated, SendOrderConfirmation(users, q, storeName))
}
