package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockMovementRepository puerto del libro de movimientos (solo anexar).
// No expone actualización: los movimientos son inmutables una vez creados.
type StockMovementRepository interface {
	// Append persiste el movimiento, asigna ID y Seq y devuelve el ID.
	Append(ctx context.Context, movement *entity.StockMovement) (string, error)

	// ListRecent devuelve los últimos movimientos de una dirección, más recientes primero
	// (created_at DESC, Seq DESC), unidos con la identidad del producto.
	// Con un cursor no nulo solo devuelve los movimientos que van después de él en ese mismo orden
	// (paginación por la tupla created_at, Seq).
	ListRecent(ctx context.Context, direction string, limit int, after entity.MovementCursor) ([]entity.MovementWithProduct, error)

	// ListByProduct devuelve todos los movimientos de un producto en orden de Seq ascendente.
	ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error)

	// DeleteAllForProduct borra en bloque los movimientos de un producto y devuelve cuántos borró.
	DeleteAllForProduct(ctx context.Context, productID string) (int64, error)
}
