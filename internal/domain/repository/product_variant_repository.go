package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductVariantRepository puerto de la proyección de cantidades por (producto, talla).
// Cada mutación es una sola sentencia atómica en el almacén: las llamadas concurrentes sobre la
// misma (producto, talla) se serializan allí, no en la aplicación.
type ProductVariantRepository interface {
	// Create da de alta un producto con sus variantes (solo para siembra; el CRUD de catálogo es externo).
	Create(ctx context.Context, product *entity.Product) error

	// GetProduct devuelve el producto con sus variantes, o nil si no existe.
	GetProduct(ctx context.Context, productID string) (*entity.Product, error)

	// GetVariantQuantity devuelve la cantidad proyectada; 0 si la talla no existe (no es error).
	GetVariantQuantity(ctx context.Context, productID, size string) (int64, error)

	// ApplyDelta suma delta a la variante con piso en 0 y devuelve la nueva cantidad.
	// Con delta positivo sobre una talla inexistente la crea en 0 antes de aplicar (upsert-or-create).
	// Con delta negativo sobre una talla inexistente no hace nada y devuelve 0.
	ApplyDelta(ctx context.Context, productID, size string, delta int64, mrp decimal.Decimal) (int64, error)

	// DecrementIfAvailable resta qty solo si la cantidad actual es >= qty, en un único paso.
	// ok=false indica que la condición falló; available lleva la cantidad leída en ese momento.
	DecrementIfAvailable(ctx context.Context, productID, size string, qty int64) (newQty int64, ok bool, available int64, err error)

	// ListVariants devuelve las variantes del producto; domain.ErrNotFound si el producto no existe.
	ListVariants(ctx context.Context, productID string) ([]entity.Variant, error)

	// ResetQuantities pone en 0 todas las variantes del producto y devuelve cuántas tocó.
	ResetQuantities(ctx context.Context, productID string) (int64, error)

	// ClampNegative pone en 0 toda variante con cantidad negativa y devuelve cuántas reparó.
	ClampNegative(ctx context.Context) (int64, error)
}
