package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProduct(t *testing.T, s *sqlite.Store, variants ...entity.Variant) string {
	t.Helper()
	p := &entity.Product{Name: "Kurta", SKU: "KRT-01", Category: "Ropa", Variants: variants}
	require.NoError(t, s.Variants().Create(context.Background(), p))
	return p.ID
}

// ─── Proyección ───────────────────────────────────────────────────────────────

func TestOpen_EsquemaIdempotente(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCreate_Duplicado(t *testing.T) {
	s := openStore(t)
	id := seedProduct(t, s)
	err := s.Variants().Create(context.Background(), &entity.Product{ID: id, Name: "otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestApplyDelta_UpsertConPiso(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "S", Quantity: 1, MRP: decimal.NewFromInt(100)})
	repo := s.Variants()

	q, err := repo.ApplyDelta(ctx, id, "M", 4, decimal.RequireFromString("1299.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), q)

	q, err = repo.ApplyDelta(ctx, id, "M", -10, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q)

	q, err = repo.ApplyDelta(ctx, id, "XL", -1, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q)

	variants, err := repo.ListVariants(ctx, id)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, "S", variants[0].Size)
	assert.Equal(t, "M", variants[1].Size, "la talla nueva va al final")
	assert.True(t, variants[1].MRP.Equal(decimal.RequireFromString("1299.5")))

	_, err = repo.ApplyDelta(ctx, "no-existe", "M", 1, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecrementIfAvailable(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 3})

	q, ok, _, err := s.Variants().DecrementIfAvailable(ctx, id, "M", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, q)

	_, ok, available, err := s.Variants().DecrementIfAvailable(ctx, id, "M", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, available)
}

func TestClampNegativeYReset(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 5})
	require.NoError(t, s.Variants().SetQuantity(ctx, id, "L", -4))

	n, err := s.Variants().ClampNegative(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.Variants().ClampNegative(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Variants().ResetQuantities(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	q, err := s.Variants().GetVariantQuantity(ctx, id, "M")
	require.NoError(t, err)
	assert.Zero(t, q)
}

// ─── Libro ────────────────────────────────────────────────────────────────────

func TestMovimientos_AppendListarYBorrar(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 1})
	repo := s.Movements()
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, pid := range []string{id, id, "borrado"} {
		_, err := repo.Append(ctx, &entity.StockMovement{
			ProductID: pid,
			Direction: entity.DirectionIn,
			Lines:     []entity.MovementLine{{Size: "M", Quantity: 2, MRP: decimal.NewFromInt(50)}},
			Note:      "lote",
			CreatedAt: at,
		})
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, entity.DirectionIn, 10, entity.MovementCursor{})
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Greater(t, recent[0].Seq, recent[1].Seq)
	assert.Nil(t, recent[0].Product)
	require.NotNil(t, recent[1].Product)
	assert.Equal(t, "Kurta", recent[1].Product.Name)
	require.Len(t, recent[1].Product.Variants, 1)
	assert.True(t, recent[1].CreatedAt.Equal(at))
	assert.True(t, recent[1].Lines[0].MRP.Equal(decimal.NewFromInt(50)))

	older, err := repo.ListRecent(ctx, entity.DirectionIn, 10, recent[0].Cursor())
	require.NoError(t, err)
	assert.Len(t, older, 2)

	byProduct, err := repo.ListByProduct(ctx, id)
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.Less(t, byProduct[0].Seq, byProduct[1].Seq)

	n, err := repo.DeleteAllForProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListRecent_PaginaPorFechaYSeq(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	repo := s.Movements()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []int{5, 1, 9, 1, 3} {
		_, err := repo.Append(ctx, &entity.StockMovement{
			ProductID: "p1",
			Direction: entity.DirectionOut,
			Lines:     []entity.MovementLine{{Size: "M", Quantity: -1}},
			CreatedAt: base.Add(time.Duration(offset) * time.Minute),
		})
		require.NoError(t, err)
	}

	var seqs []int64
	var cursor entity.MovementCursor
	for page := 0; page < 10; page++ {
		rows, err := repo.ListRecent(ctx, entity.DirectionOut, 2, cursor)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		for _, m := range rows {
			seqs = append(seqs, m.Seq)
		}
		cursor = rows[len(rows)-1].Cursor()
	}
	assert.Equal(t, []int64{3, 1, 5, 4, 2}, seqs)
}

func TestTxRunner_Rollback(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 5})
	boom := errors.New("boom")

	err := s.TxRunner().Run(ctx, func(movRepo repository.StockMovementRepository, variantRepo repository.ProductVariantRepository) error {
		if _, _, _, err := variantRepo.DecrementIfAvailable(ctx, id, "M", 5); err != nil {
			return err
		}
		if _, err := movRepo.Append(ctx, &entity.StockMovement{ProductID: id, Direction: entity.DirectionOut}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	q, err := s.Variants().GetVariantQuantity(ctx, id, "M")
	require.NoError(t, err)
	assert.Equal(t, int64(5), q)
	movs, err := s.Movements().ListByProduct(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

// ─── Motor sobre SQLite ───────────────────────────────────────────────────────

func TestMotor_VentasConcurrentesNoSobrevenden(t *testing.T) {
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 10})
	uc := inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  s.TxRunner(),
		Movements: s.Movements(),
		Variants:  s.Variants(),
	})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int64
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Sell(context.Background(), inventory.SellInput{
				ProductID: id,
				Entries:   []inventory.SaleEntry{{Size: "M", Quantity: 4}},
			})
			if err == nil {
				mu.Lock()
				sold += 4
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), sold)
	report, err := uc.AuditProduct(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Movements)
}

func TestMotor_EjemploVenta(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	id := seedProduct(t, s, entity.Variant{Size: "M", Quantity: 10})
	uc := inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  s.TxRunner(),
		Movements: s.Movements(),
		Variants:  s.Variants(),
	})

	_, err := uc.Sell(ctx, inventory.SellInput{ProductID: id, Entries: []inventory.SaleEntry{{Size: "M", Quantity: 7}}})
	require.NoError(t, err)
	_, err = uc.Sell(ctx, inventory.SellInput{ProductID: id, Entries: []inventory.SaleEntry{{Size: "M", Quantity: 5}}})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(3), insufficient.Available)

	movs, err := s.Movements().ListByProduct(ctx, id)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(-7), movs[0].Delta("M"))
}
