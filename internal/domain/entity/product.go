package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo con variantes por talla.
// El catálogo (nombre, SKU, categoría) se gestiona fuera del motor; aquí solo se leen su identidad
// y se mutan las cantidades de sus variantes.
type Product struct {
	ID        string
	Name      string
	SKU       string
	Category  string
	Variants  []Variant // en orden de alta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant es un hueco de cantidad identificado por talla dentro de un producto.
// Quantity es la proyección desnormalizada del libro de movimientos.
type Variant struct {
	Size     string
	Quantity int64
	MRP      decimal.Decimal // precio de lista informativo, no forma parte de la clave
}

// Variant devuelve la variante con la talla indicada, si existe.
func (p *Product) Variant(size string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}

// ProductIdentity identidad mínima de producto para mostrar junto a un movimiento.
type ProductIdentity struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	SKU      string    `json:"sku"`
	Category string    `json:"category"`
	Variants []Variant `json:"variants"`
}
