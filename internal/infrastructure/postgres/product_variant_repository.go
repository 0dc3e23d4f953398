package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductVariantRepository = (*ProductVariantRepo)(nil)

// ProductVariantRepo proyección de cantidades por talla sobre PostgreSQL (usable con pool o tx).
// Cada escritura es una sola sentencia: el bloqueo de fila serializa a los escritores del mismo (producto, talla).
type ProductVariantRepo struct {
	q Querier
}

// NewProductVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductVariantRepository(q Querier) *ProductVariantRepo {
	return &ProductVariantRepo{q: q}
}

// Create persiste un producto con sus variantes iniciales.
func (r *ProductVariantRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, name, sku, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.SKU, p.Category, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	for i, v := range p.Variants {
		_, err := r.q.Exec(ctx, `
			INSERT INTO product_variants (product_id, size, quantity, mrp, position, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())`,
			p.ID, v.Size, v.Quantity, v.MRP, i,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert variant: %w", err)
		}
	}
	return nil
}

// GetProduct obtiene el producto con sus variantes en orden. nil,nil si no existe.
func (r *ProductVariantRepo) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if !isUUID(productID) {
		return nil, nil
	}
	var p entity.Product
	err := r.q.QueryRow(ctx, `
		SELECT id, name, sku, category, created_at, updated_at
		FROM products WHERE id = $1`, productID,
	).Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	variants, err := r.listVariants(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return &p, nil
}

// GetVariantQuantity cantidad actual; 0 si la talla no existe.
func (r *ProductVariantRepo) GetVariantQuantity(ctx context.Context, productID, size string) (int64, error) {
	if !isUUID(productID) {
		return 0, nil
	}
	var q int64
	err := r.q.QueryRow(ctx, `
		SELECT quantity FROM product_variants WHERE product_id = $1 AND size = $2`,
		productID, size,
	).Scan(&q)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get variant quantity: %w", err)
	}
	return q, nil
}

// ApplyDelta suma delta con piso en 0. Un delta positivo crea la talla si no existe (al final del orden);
// uno negativo sobre talla inexistente no hace nada.
func (r *ProductVariantRepo) ApplyDelta(ctx context.Context, productID, size string, delta int64, mrp decimal.Decimal) (int64, error) {
	if !isUUID(productID) {
		return 0, fmt.Errorf("aplicar delta a %s: %w", productID, domain.ErrNotFound)
	}
	var q int64
	if delta <= 0 {
		err := r.q.QueryRow(ctx, `
			UPDATE product_variants
			SET quantity = GREATEST(quantity + $3, 0), updated_at = now()
			WHERE product_id = $1 AND size = $2
			RETURNING quantity`,
			productID, size, delta,
		).Scan(&q)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, nil
			}
			return 0, fmt.Errorf("apply delta: %w", err)
		}
		return q, nil
	}

	err := r.q.QueryRow(ctx, `
		INSERT INTO product_variants (product_id, size, quantity, mrp, position, updated_at)
		VALUES ($1, $2, $3, $4,
		        (SELECT COALESCE(MAX(position) + 1, 0) FROM product_variants WHERE product_id = $1),
		        now())
		ON CONFLICT (product_id, size) DO UPDATE SET
			quantity   = GREATEST(product_variants.quantity + EXCLUDED.quantity, 0),
			mrp        = CASE WHEN EXCLUDED.mrp <> 0 THEN EXCLUDED.mrp ELSE product_variants.mrp END,
			updated_at = now()
		RETURNING quantity`,
		productID, size, delta, mrp,
	).Scan(&q)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("aplicar delta a %s: %w", productID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("upsert variant: %w", err)
	}
	return q, nil
}

// DecrementIfAvailable resta qty solo si la cantidad alcanza, en una sola sentencia.
func (r *ProductVariantRepo) DecrementIfAvailable(ctx context.Context, productID, size string, qty int64) (int64, bool, int64, error) {
	if !isUUID(productID) {
		return 0, false, 0, nil
	}
	var q int64
	err := r.q.QueryRow(ctx, `
		UPDATE product_variants
		SET quantity = quantity - $3, updated_at = now()
		WHERE product_id = $1 AND size = $2 AND quantity >= $3
		RETURNING quantity`,
		productID, size, qty,
	).Scan(&q)
	if err == nil {
		return q, true, q, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, 0, fmt.Errorf("decrement variant: %w", err)
	}
	available, err := r.GetVariantQuantity(ctx, productID, size)
	if err != nil {
		return 0, false, 0, err
	}
	return 0, false, available, nil
}

// ListVariants variantes del producto en orden; ErrNotFound si el producto no existe.
func (r *ProductVariantRepo) ListVariants(ctx context.Context, productID string) ([]entity.Variant, error) {
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
func (r *ProductVariantRepo) ResetQuantities(ctx context.Context, productID string) (int64, error) {
	if !isUUID(productID) {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE product_variants SET quantity = 0, updated_at = now() WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("reset variants: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClampNegative lleva a 0 toda variante negativa del catálogo.
func (r *ProductVariantRepo) ClampNegative(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE product_variants SET quantity = 0, updated_at = now() WHERE quantity < 0`)
	if err != nil {
		return 0, fmt.Errorf("clamp negative variants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ProductVariantRepo) listVariants(ctx context.Context, productID string) ([]entity.Variant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT size, quantity, mrp FROM product_variants
		WHERE product_id = $1 ORDER BY position, size`, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	variants := []entity.Variant{}
	for rows.Next() {
		var v entity.Variant
		if err := rows.Scan(&v.Size, &v.Quantity, &v.MRP); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
