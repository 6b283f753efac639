package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderPending = "pending"

// Order is an immutable purchase record.
type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"usuario_id"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"impuesto"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status    string          `gorm:"size:20;not null;default:pending" json:"estado"`
	CreatedAt time.Time       `gorm:"index" json:"fecha"`
	Lines     []OrderLine     `gorm:"foreignKey:OrderID" json:"detalles"`
}

func (Order) TableName() string { return "ordenes" }

// OrderLine snapshots name and price at purchase time. ProductID is a plain
// reference so later catalog edits never rewrite history.
type OrderLine struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	OrderID     uint            `gorm:"not null;index" json:"-"`
	ProductID   uint            `gorm:"not null;index" json:"producto_id"`
	ProductName string          `gorm:"size:255;not null" json:"nombre"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"cantidad"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"precio_unitario"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}

func (OrderLine) TableName() string { return "orden_detalles" }
