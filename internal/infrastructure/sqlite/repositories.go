package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository  = (*MovementRepo)(nil)
	_ repository.ProductVariantRepository = (*VariantRepo)(nil)
)

// =============================================================================
// MOVIMIENTOS
// =============================================================================

// MovementRepo libro de movimientos sobre SQLite (usable con db o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar db o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento; seq lo asigna AUTOINCREMENT.
func (r *MovementRepo) Append(ctx context.Context, m *entity.StockMovement) (string, error) {
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
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_movements (id, product_id, direction, lines, note, customer, received_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.Direction, string(lines), m.Note, m.Customer,
		toNanos(m.ReceivedAt), toNanos(m.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("append stock movement: %w", err)
	}
	if m.Seq, err = res.LastInsertId(); err != nil {
		return "", fmt.Errorf("read movement seq: %w", err)
	}
	return m.ID, nil
}

// ListRecent últimos movimientos de una dirección unidos a su producto.
func (r *MovementRepo) ListRecent(ctx context.Context, direction string, limit int, after entity.MovementCursor) ([]entity.MovementWithProduct, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT m.id, m.seq, m.product_id, m.direction, m.lines, m.note, m.customer, m.received_at, m.created_at,
		       p.id, p.name, p.sku, p.category
		FROM stock_movements m
		LEFT JOIN products p ON p.id = m.product_id
		WHERE m.direction = ? AND (? = 0 OR (m.created_at, m.seq) < (?, ?))
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT ?`,
		direction, after.Seq, toNanos(after.CreatedAt), after.Seq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}

	var out []entity.MovementWithProduct
	for rows.Next() {
		var (
			mp                     entity.MovementWithProduct
			pID, pName, pSKU, pCat sql.NullString
		)
		if err := scanMovement(rows, &mp.StockMovement, &pID, &pName, &pSKU, &pCat); err != nil {
			rows.Close()
			return nil, err
		}
		if pID.Valid {
			mp.Product = &entity.ProductIdentity{ID: pID.String, Name: pName.String, SKU: pSKU.String, Category: pCat.String}
		}
		out = append(out, mp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	// Con una sola conexión hay que liberar las filas antes de la siguiente consulta.
	rows.Close()

	variants := make(map[string][]entity.Variant)
	for i := range out {
		p := out[i].Product
		if p == nil {
			continue
		}
		vs, ok := variants[p.ID]
		if !ok {
			if vs, err = listVariants(ctx, r.q, p.ID); err != nil {
				return nil, err
			}
			variants[p.ID] = vs
		}
		p.Variants = vs
	}
	return out, nil
}

// ListByProduct todos los movimientos del producto en orden de seq.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, seq, product_id, direction, lines, note, customer, received_at, created_at
		FROM stock_movements WHERE product_id = ?
		ORDER BY seq`, productID)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	defer rows.Close()

	var out []entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := scanMovement(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteAllForProduct borra el historial del producto.
func (r *MovementRepo) DeleteAllForProduct(ctx context.Context, productID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM stock_movements WHERE product_id = ?`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete movements: %w", err)
	}
	return res.RowsAffected()
}

func scanMovement(rows *sql.Rows, m *entity.StockMovement, extra ...any) error {
	var (
		raw                   string
		receivedAt, createdAt int64
	)
	dest := append([]any{
		&m.ID, &m.Seq, &m.ProductID, &m.Direction, &raw, &m.Note, &m.Customer, &receivedAt, &createdAt,
	}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan movement: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &m.Lines); err != nil {
		return fmt.Errorf("decode movement lines: %w", err)
	}
	m.ReceivedAt = fromNanos(receivedAt)
	m.CreatedAt = fromNanos(createdAt)
	return nil
}

// =============================================================================
// PROYECCIÓN
// =============================================================================

// VariantRepo proyección de cantidades sobre SQLite (usable con db o tx).
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador. Pasar db o tx (Querier).
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

// Create persiste un producto con sus variantes iniciales.
func (r *VariantRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, name, sku, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.SKU, p.Category, toNanos(p.CreatedAt), toNanos(p.UpdatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) || isConstraint(err, sqlite3.ErrConstraintUnique) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	for i, v := range p.Variants {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO product_variants (product_id, size, quantity, mrp, position, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, v.Size, v.Quantity, v.MRP.String(), i, toNanos(now),
		)
		if err != nil {
			if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert variant: %w", err)
		}
	}
	return nil
}

// GetProduct obtiene el producto con sus variantes en orden. nil,nil si no existe.
func (r *VariantRepo) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	var (
		p                    entity.Product
		createdAt, updatedAt int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, sku, category, created_at, updated_at
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p.CreatedAt = fromNanos(createdAt)
	p.UpdatedAt = fromNanos(updatedAt)
	if p.Variants, err = listVariants(ctx, r.q, productID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetVariantQuantity cantidad actual; 0 si la talla no existe.
func (r *VariantRepo) GetVariantQuantity(ctx context.Context, productID, size string) (int64, error) {
	var q int64
	err := r.q.QueryRowContext(ctx, `
		SELECT quantity FROM product_variants WHERE product_id = ? AND size = ?`,
		productID, size,
	).Scan(&q)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get variant quantity: %w", err)
	}
	return q, nil
}

// ApplyDelta suma delta con piso en 0 en una sola sentencia. Un delta positivo crea la talla si no existe;
// uno negativo sobre talla inexistente no hace nada.
func (r *VariantRepo) ApplyDelta(ctx context.Context, productID, size string, delta int64, mrp decimal.Decimal) (int64, error) {
	now := toNanos(time.Now())
	var q int64
	if delta <= 0 {
		err := r.q.QueryRowContext(ctx, `
			UPDATE product_variants
			SET quantity = MAX(quantity + ?, 0), updated_at = ?
			WHERE product_id = ? AND size = ?
			RETURNING quantity`,
			delta, now, productID, size,
		).Scan(&q)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, nil
			}
			return 0, fmt.Errorf("apply delta: %w", err)
		}
		return q, nil
	}

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO product_variants (product_id, size, quantity, mrp, position, updated_at)
		VALUES (?1, ?2, ?3, ?4,
		        (SELECT COALESCE(MAX(position) + 1, 0) FROM product_variants WHERE product_id = ?1),
		        ?5)
		ON CONFLICT (product_id, size) DO UPDATE SET
			quantity   = MAX(product_variants.quantity + excluded.quantity, 0),
			mrp        = CASE WHEN ?6 THEN excluded.mrp ELSE product_variants.mrp END,
			updated_at = excluded.updated_at
		RETURNING quantity`,
		productID, size, delta, mrp.String(), now, !mrp.IsZero(),
	).Scan(&q)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return 0, fmt.Errorf("aplicar delta a %s: %w", productID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("upsert variant: %w", err)
	}
	return q, nil
}

// DecrementIfAvailable resta qty solo si la cantidad alcanza, en una sola sentencia.
func (r *VariantRepo) DecrementIfAvailable(ctx context.Context, productID, size string, qty int64) (int64, bool, int64, error) {
	var q int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE product_variants
		SET quantity = quantity - ?1, updated_at = ?2
		WHERE product_id = ?3 AND size = ?4 AND quantity >= ?1
		RETURNING quantity`,
		qty, toNanos(time.Now()), productID, size,
	).Scan(&q)
	if err == nil {
		return q, true, q, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, 0, fmt.Errorf("decrement variant: %w", err)
	}
	available, err := r.GetVariantQuantity(ctx, productID, size)
	if err != nil {
		return 0, false, 0, err
	}
	return 0, false, available, nil
}

// ListVariants variantes del producto en orden; ErrNotFound si el producto no existe.
func (r *VariantRepo) ListVariants(ctx context.Context, productID string) ([]entity.Variant, error) {
	p, err := r.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return p.Variants, nil
}

// ResetQuantities deja todas las variantes del producto en 0.
func (r *VariantRepo) ResetQuantities(ctx context.Context, productID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE product_variants SET quantity = 0, updated_at = ? WHERE product_id = ?`,
		toNanos(time.Now()), productID)
	if err != nil {
		return 0, fmt.Errorf("reset variants: %w", err)
	}
	return res.RowsAffected()
}

// ClampNegative lleva a 0 toda variante negativa.
func (r *VariantRepo) ClampNegative(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE product_variants SET quantity = 0, updated_at = ? WHERE quantity < 0`,
		toNanos(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("clamp negative variants: %w", err)
	}
	return res.RowsAffected()
}

// SetQuantity fuerza la cantidad de una variante sin pasar por el libro (reproducir deriva heredada).
func (r *VariantRepo) SetQuantity(ctx context.Context, productID, size string, qty int64) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO product_variants (product_id, size, quantity, mrp, position, updated_at)
		VALUES (?1, ?2, ?3, '0',
		        (SELECT COALESCE(MAX(position) + 1, 0) FROM product_variants WHERE product_id = ?1),
		        ?4)
		ON CONFLICT (product_id, size) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		productID, size, qty, toNanos(time.Now()))
	if err != nil {
		return fmt.Errorf("set variant quantity: %w", err)
	}
	return nil
}

func listVariants(ctx context.Context, q Querier, productID string) ([]entity.Variant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT size, quantity, mrp FROM product_variants
		WHERE product_id = ? ORDER BY position, size`, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	variants := []entity.Variant{}
	for rows.Next() {
		var (
			v   entity.Variant
			mrp string
		)
		if err := rows.Scan(&v.Size, &v.Quantity, &mrp); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if v.MRP, err = decimal.NewFromString(strings.TrimSpace(mrp)); err != nil {
			return nil, fmt.Errorf("decode mrp %q: %w", mrp, err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
