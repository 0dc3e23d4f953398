package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento; la base asigna seq.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = m.CreatedAt
	}
	lines, err := json.Marshal(m.Lines)
	if err != nil {
		return "", fmt.Errorf("encode movement lines: %w", err)
	}
	query := `
		INSERT INTO stock_movements (id, product_id, direction, lines, note, customer, received_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	err = r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.Direction, lines, m.Note, m.Customer, m.ReceivedAt, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return "", fmt.Errorf("append stock movement: %w", err)
	}
	return m.ID, nil
}

// ListRecent últimos movimientos de una dirección unidos a su producto (LEFT JOIN: el producto puede no existir).
func (r *StockMovementRepo) ListRecent(ctx context.Context, direction string, limit int, after entity.MovementCursor) ([]entity.MovementWithProduct, error) {
	query := `
		SELECT m.id, m.seq, m.product_id, m.direction, m.lines, m.note, m.customer, m.received_at, m.created_at,
		       p.id, p.name, p.sku, p.category
		FROM stock_movements m
		LEFT JOIN products p ON p.id = m.product_id
		WHERE m.direction = $1 AND ($2::bigint = 0 OR (m.created_at, m.seq) < ($3::timestamptz, $2::bigint))
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $4`
	rows, err := r.q.Query(ctx, query, direction, after.Seq, after.CreatedAt, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}
	defer rows.Close()

	var out []entity.MovementWithProduct
	var productIDs []string
	for rows.Next() {
		var (
			mp                     entity.MovementWithProduct
			raw                    []byte
			pID, pName, pSKU, pCat *string
		)
		if err := rows.Scan(
			&mp.ID, &mp.Seq, &mp.ProductID, &mp.Direction, &raw, &mp.Note, &mp.Customer, &mp.ReceivedAt, &mp.CreatedAt,
			&pID, &pName, &pSKU, &pCat,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if err := json.Unmarshal(raw, &mp.Lines); err != nil {
			return nil, fmt.Errorf("decode movement lines: %w", err)
		}
		if pID != nil {
			mp.Product = &entity.ProductIdentity{ID: *pID, Name: deref(pName), SKU: deref(pSKU), Category: deref(pCat)}
			productIDs = append(productIDs, *pID)
		}
		out = append(out, mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	if len(productIDs) == 0 {
		return out, nil
	}

	variants, err := listVariantsByProducts(ctx, r.q, productIDs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Product != nil {
			out[i].Product.Variants = variants[out[i].Product.ID]
		}
	}
	return out, nil
}

// ListByProduct todos los movimientos del producto en orden de seq.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error) {
	query := `
		SELECT id, seq, product_id, direction, lines, note, customer, received_at, created_at
		FROM stock_movements WHERE product_id = $1
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	defer rows.Close()

	var out []entity.StockMovement
	for rows.Next() {
		var (
			m   entity.StockMovement
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.Seq, &m.ProductID, &m.Direction, &raw, &m.Note, &m.Customer, &m.ReceivedAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if err := json.Unmarshal(raw, &m.Lines); err != nil {
			return nil, fmt.Errorf("decode movement lines: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteAllForProduct borra el historial del producto.
func (r *StockMovementRepo) DeleteAllForProduct(ctx context.Context, productID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete movements: %w", err)
	}
	return tag.RowsAffected(), nil
}

func listVariantsByProducts(ctx context.Context, q Querier, productIDs []string) (map[string][]entity.Variant, error) {
	rows, err := q.Query(ctx, `
		SELECT product_id, size, quantity, mrp
		FROM product_variants WHERE product_id::text = ANY($1::text[])
		ORDER BY product_id, position`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]entity.Variant)
	for rows.Next() {
		var (
			pid string
			v   entity.Variant
		)
		if err := rows.Scan(&pid, &v.Size, &v.Quantity, &v.MRP); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out[pid] = append(out[pid], v)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
