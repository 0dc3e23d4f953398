package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección del movimiento de stock.
const (
	DirectionIn  = "in"  // entrada (recepción)
	DirectionOut = "out" // salida (venta)
)

// ValidDirection indica si d es una dirección conocida.
func ValidDirection(d string) bool {
	return d == DirectionIn || d == DirectionOut
}

// MovementLine delta firmado de una talla dentro de un movimiento.
type MovementLine struct {
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"` // positivo entrada, negativo salida
	MRP      decimal.Decimal `json:"mrp"`
}

// StockMovement registro inmutable de un cambio de cantidad. Una recepción agrupa todas sus
// líneas en un solo movimiento; una venta genera un movimiento por línea.
// No existe actualización: las correcciones son movimientos nuevos.
type StockMovement struct {
	ID         string
	Seq        int64 // secuencia monotónica asignada por el almacén, desempata created_at
	ProductID  string
	Direction  string
	Lines      []MovementLine
	Note       string
	Customer   string // solo salidas
	ReceivedAt time.Time
	CreatedAt  time.Time
}

// Delta devuelve la suma firmada de las líneas para la talla indicada.
func (m *StockMovement) Delta(size string) int64 {
	var total int64
	for _, l := range m.Lines {
		if l.Size == size {
			total += l.Quantity
		}
	}
	return total
}

// MovementWithProduct movimiento unido a la identidad de su producto.
// Product es nil cuando el producto ya no existe.
type MovementWithProduct struct {
	StockMovement
	Product *ProductIdentity
}

// MovementCursor posición de paginación en el orden (created_at DESC, seq DESC).
// El valor cero pide la primera página.
type MovementCursor struct {
	CreatedAt time.Time
	Seq       int64
}

// IsZero indica si el cursor pide la primera página.
func (c MovementCursor) IsZero() bool { return c.Seq == 0 }

// Cursor devuelve el cursor que continúa justo después de m.
func (m *StockMovement) Cursor() MovementCursor {
	return MovementCursor{CreatedAt: m.CreatedAt, Seq: m.Seq}
}

// Before indica si m va después del cursor en el orden (created_at DESC, seq DESC).
func (c MovementCursor) Before(m *StockMovement) bool {
	if c.IsZero() {
		return true
	}
	if !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.Before(c.CreatedAt)
	}
	return m.Seq < c.Seq
}
