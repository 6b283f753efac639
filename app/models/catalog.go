package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products (e.g. "Guitarras").
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:120;not null" json:"nombre"`
}

func (Category) TableName() string { return "categorias" }

// Brand is a product manufacturer.
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:120;not null" json:"nombre"`
}

func (Brand) TableName() string { return "marcas" }

// Product is a sellable catalog item. Stock is only decremented by the order
// transaction.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null;index" json:"nombre"`
	BrandID     uint            `gorm:"not null;index" json:"marca_id"`
	Brand       *Brand          `gorm:"foreignKey:BrandID" json:"marca,omitempty"`
	CategoryID  uint            `gorm:"not null;index" json:"categoria_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"categoria,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"precio"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Description string          `gorm:"type:text" json:"descripcion"`
	Image       string          `gorm:"size:512" json:"imagen"`
	IsNew       bool            `gorm:"not null;default:false" json:"es_nuevo"`
	CreatedAt   time.Time       `json:"creado_en"`
	UpdatedAt   time.Time       `json:"actualizado_en"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "productos" }
