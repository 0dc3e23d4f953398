// Package memory implementa los puertos del libro de stock en memoria (desarrollo y pruebas).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Store guarda productos, variantes y movimientos bajo un único mutex.
// Cada operación de repositorio es atómica; TxRunner toma el mutex durante toda la función.
type Store struct {
	mu        sync.Mutex
	products  map[string]*entity.Product
	movements []entity.StockMovement
	seq       int64
	now       func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		now:      time.Now,
	}
}

// Movements repositorio de movimientos.
func (s *Store) Movements() repository.StockMovementRepository {
	return &MovementRepo{s: s}
}

// Variants repositorio de la proyección.
func (s *Store) Variants() repository.ProductVariantRepository {
	return &VariantRepo{s: s}
}

// TxRunner ejecutor transaccional del almacén.
func (s *Store) TxRunner() inventory.TxRunner {
	return &TxRunner{s: s}
}

var (
	_ repository.StockMovementRepository  = (*MovementRepo)(nil)
	_ repository.ProductVariantRepository = (*VariantRepo)(nil)
	_ inventory.TxRunner                  = (*TxRunner)(nil)
)

// TxRunner serializa la función completa y restaura una copia del estado si devuelve error.
type TxRunner struct {
	s *Store
}

// Run implementa inventory.TxRunner.
func (t *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	variantRepo repository.ProductVariantRepository,
) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snap := t.s.snapshot()
	if err := fn(&MovementRepo{s: t.s, inTx: true}, &VariantRepo{s: t.s, inTx: true}); err != nil {
		t.s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		t.s.restore(snap)
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type state struct {
	products  map[string]*entity.Product
	movements []entity.StockMovement
	seq       int64
}

func (s *Store) snapshot() state {
	products := make(map[string]*entity.Product, len(s.products))
	for id, p := range s.products {
		products[id] = cloneProduct(p)
	}
	movements := make([]entity.StockMovement, len(s.movements))
	copy(movements, s.movements)
	return state{products: products, movements: movements, seq: s.seq}
}

func (s *Store) restore(st state) {
	s.products = st.products
	s.movements = st.movements
	s.seq = st.seq
}

// lock toma el mutex salvo que el repositorio esté atado a una transacción en curso.
func lock(s *Store, inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	c.Variants = append([]entity.Variant(nil), p.Variants...)
	return &c
}

func cloneMovement(m entity.StockMovement) entity.StockMovement {
	m.Lines = append([]entity.MovementLine(nil), m.Lines...)
	return m
}

// =============================================================================
// MOVIMIENTOS
// =============================================================================

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct {
	s    *Store
	inTx bool
}

// Append implementa repository.StockMovementRepository.
func (r *MovementRepo) Append(ctx context.Context, m *entity.StockMovement) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer lock(r.s, r.inTx)()

	r.s.seq++
	m.ID = uuid.NewString()
	m.Seq = r.s.seq
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.now()
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = m.CreatedAt
	}
	r.s.movements = append(r.s.movements, cloneMovement(*m))
	return m.ID, nil
}

// ListRecent implementa repository.StockMovementRepository.
func (r *MovementRepo) ListRecent(ctx context.Context, direction string, limit int, after entity.MovementCursor) ([]entity.MovementWithProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer lock(r.s, r.inTx)()

	var out []entity.MovementWithProduct
	for _, m := range r.s.movements {
		if m.Direction != direction {
			continue
		}
		if !after.Before(&m) {
			continue
		}
		mp := entity.MovementWithProduct{StockMovement: cloneMovement(m)}
		if p, ok := r.s.products[m.ProductID]; ok {
			mp.Product = &entity.ProductIdentity{
				ID:       p.ID,
				Name:     p.Name,
				SKU:      p.SKU,
				Category: p.Category,
				Variants: append([]entity.Variant(nil), p.Variants...),
			}
		}
		out = append(out, mp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByProduct implementa repository.StockMovementRepository.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer lock(r.s, r.inTx)()

	var out []entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			out = append(out, cloneMovement(m))
		}
	}
	return out, nil
}

// DeleteAllForProduct implementa repository.StockMovementRepository.
func (r *MovementRepo) DeleteAllForProduct(ctx context.Context, productID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer lock(r.s, r.inTx)()

	kept := r.s.movements[:0:0]
	var deleted int64
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.s.movements = kept
	return deleted, nil
}

// =============================================================================
// PROYECCIÓN
// =============================================================================

// VariantRepo proyección de cantidades en memoria.
type VariantRepo struct {
	s    *Store
	inTx bool
}

// Create implementa repository.ProductVariantRepository.
func (r *VariantRepo) Create(ctx context.Context, p *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer lock(r.s, r.inTx)()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("crear producto %s: %w", p.ID, domain.ErrDuplicate)
	}
	now := r.s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

// GetProduct implementa repository.ProductVariantRepository.
func (r *VariantRepo) GetProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

// GetVariantQuantity implementa repository.ProductVariantRepository.
func (r *VariantRepo) GetVariantQuantity(ctx context.Context, productID, size string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return 0, nil
	}
	if v, ok := p.Variant(size); ok {
		return v.Quantity, nil
	}
	return 0, nil
}

// ApplyDelta implementa repository.ProductVariantRepository.
func (r *VariantRepo) ApplyDelta(ctx context.Context, productID, size string, delta int64, mrp decimal.Decimal) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return 0, fmt.Errorf("aplicar delta a %s: %w", productID, domain.ErrNotFound)
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Size != size {
			continue
		}
		v.Quantity = max(v.Quantity+delta, 0)
		if delta > 0 && !mrp.IsZero() {
			v.MRP = mrp
		}
		p.UpdatedAt = r.s.now()
		return v.Quantity, nil
	}
	if delta <= 0 {
		return 0, nil
	}
	p.Variants = append(p.Variants, entity.Variant{Size: size, Quantity: delta, MRP: mrp})
	p.UpdatedAt = r.s.now()
	return delta, nil
}

// DecrementIfAvailable implementa repository.ProductVariantRepository.
func (r *VariantRepo) DecrementIfAvailable(ctx context.Context, productID, size string, qty int64) (int64, bool, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, 0, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return 0, false, 0, nil
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Size != size {
			continue
		}
		if v.Quantity < qty {
			return 0, false, v.Quantity, nil
		}
		v.Quantity -= qty
		p.UpdatedAt = r.s.now()
		return v.Quantity, true, v.Quantity, nil
	}
	return 0, false, 0, nil
}

// ListVariants implementa repository.ProductVariantRepository.
func (r *VariantRepo) ListVariants(ctx context.Context, productID string) ([]entity.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return append([]entity.Variant{}, p.Variants...), nil
}

// ResetQuantities implementa repository.ProductVariantRepository.
func (r *VariantRepo) ResetQuantities(ctx context.Context, productID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer lock(r.s, r.inTx)()

	p, ok := r.s.products[productID]
	if !ok {
		return 0, nil
	}
	for i := range p.Variants {
		p.Variants[i].Quantity = 0
	}
	p.UpdatedAt = r.s.now()
	return int64(len(p.Variants)), nil
}

// ClampNegative implementa repository.ProductVariantRepository.
func (r *VariantRepo) ClampNegative(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer lock(r.s, r.inTx)()

	var repaired int64
	for _, p := range r.s.products {
		for i := range p.Variants {
			if p.Variants[i].Quantity < 0 {
				p.Variants[i].Quantity = 0
				repaired++
			}
		}
	}
	return repaired, nil
}

// SetQuantity fuerza la cantidad de una variante sin pasar por el libro.
// Sirve para reproducir deriva (por ejemplo cantidades negativas heredadas) en pruebas y semillas.
func (s *Store) SetQuantity(productID, size string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			p.Variants[i].Quantity = qty
			return nil
		}
	}
	p.Variants = append(p.Variants, entity.Variant{Size: size, Quantity: qty})
	return nil
}
