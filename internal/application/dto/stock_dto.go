package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntryRequest una línea de recepción.
type StockEntryRequest struct {
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"`
	MRP      decimal.Decimal `json:"mrp"`
}

// ReceiveStockRequest body para POST /api/stock/entries.
type ReceiveStockRequest struct {
	ProductID    string              `json:"product_id"`
	ReceivedDate *time.Time          `json:"received_date,omitempty"`
	Notes        string              `json:"notes"`
	StockEntries []StockEntryRequest `json:"stock_entries"`
}

// ReceiveStockResponse resultado de una recepción.
type ReceiveStockResponse struct {
	MovementID string           `json:"movement_id"`
	Written    int              `json:"written"`
	Quantities map[string]int64 `json:"quantities"`
}

// SaleEntryRequest una línea de venta.
type SaleEntryRequest struct {
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
}

// SellStockRequest body para POST /api/stock/sales.
type SellStockRequest struct {
	ProductID   string             `json:"product_id"`
	Customer    string             `json:"customer,omitempty"`
	Notes       string             `json:"notes"`
	SaleEntries []SaleEntryRequest `json:"sale_entries"`
}

// SellStockResponse resultado de una venta.
type SellStockResponse struct {
	Sold        int              `json:"sold"`
	MovementIDs []string         `json:"movement_ids"`
	Quantities  map[string]int64 `json:"quantities"`
}

// VariantDTO variante de producto.
type VariantDTO struct {
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"`
	MRP      decimal.Decimal `json:"mrp"`
}

// ProductIdentityDTO identidad mínima del producto para el historial.
type ProductIdentityDTO struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	SKU      string       `json:"sku"`
	Category string       `json:"category"`
	Variants []VariantDTO `json:"variants"`
}

// MovementLineDTO línea de un movimiento.
type MovementLineDTO struct {
	Size     string          `json:"size"`
	Quantity int64           `json:"quantity"`
	MRP      decimal.Decimal `json:"mrp"`
}

// MovementDTO movimiento del libro con su producto (null si ya no existe).
type MovementDTO struct {
	ID         string              `json:"id"`
	Seq        int64               `json:"seq"`
	ProductID  string              `json:"product_id"`
	Direction  string              `json:"direction"`
	Lines      []MovementLineDTO   `json:"lines"`
	Note       string              `json:"note"`
	Customer   string              `json:"customer,omitempty"`
	ReceivedAt time.Time           `json:"received_at"`
	CreatedAt  time.Time           `json:"created_at"`
	Product    *ProductIdentityDTO `json:"product"`
}

// ActivityResponse entradas y salidas recientes para la pantalla de historial.
type ActivityResponse struct {
	StockIn  []MovementDTO `json:"stock_in"`
	StockOut []MovementDTO `json:"stock_out"`
}

// ClearStockResponse resultado de reiniciar el inventario de un producto.
type ClearStockResponse struct {
	Deleted int64 `json:"deleted"`
}

// CleanupResponse resultado de la reparación de cantidades negativas.
type CleanupResponse struct {
	Repaired int64 `json:"repaired"`
}

// VariantAuditDTO comparación libro vs proyección para una talla.
type VariantAuditDTO struct {
	Size      string `json:"size"`
	Expected  int64  `json:"expected"`
	Projected int64  `json:"projected"`
	Drift     int64  `json:"drift"`
}

// AuditReportResponse reporte de consistencia de un producto.
type AuditReportResponse struct {
	ProductID  string            `json:"product_id"`
	Movements  int               `json:"movements"`
	Consistent bool              `json:"consistent"`
	Variants   []VariantAuditDTO `json:"variants"`
}
