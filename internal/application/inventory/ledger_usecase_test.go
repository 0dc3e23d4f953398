package inventory_test

import (
	"context"
	"errors"
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
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu     sync.Mutex
	events []inventory.MovementEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e inventory.MovementEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

// failingVariants falla ApplyDelta a partir de la llamada número failAt (1-based).
type failingVariants struct {
	repository.ProductVariantRepository
	failAt int
	calls  int
}

func (f *failingVariants) ApplyDelta(ctx context.Context, productID, size string, delta int64, mrp decimal.Decimal) (int64, error) {
	f.calls++
	if f.calls >= f.failAt {
		return 0, errors.New("conexión perdida")
	}
	return f.ProductVariantRepository.ApplyDelta(ctx, productID, size, delta, mrp)
}

type fixture struct {
	store    *memory.Store
	uc       *inventory.StockLedgerUseCase
	notifier *recordingNotifier
}

func newFixture(t *testing.T, variants ...entity.Variant) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Variants().Create(context.Background(), &entity.Product{
		ID: "P", Name: "Kurta", SKU: "KRT-01", Category: "Ropa", Variants: variants,
	}))
	n := &recordingNotifier{}
	uc := inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  store.TxRunner(),
		Movements: store.Movements(),
		Variants:  store.Variants(),
		Notifier:  n,
	})
	return &fixture{store: store, uc: uc, notifier: n}
}

func (f *fixture) qty(t *testing.T, size string) int64 {
	t.Helper()
	q, err := f.store.Variants().GetVariantQuantity(context.Background(), "P", size)
	require.NoError(t, err)
	return q
}

func (f *fixture) movements(t *testing.T) []entity.StockMovement {
	t.Helper()
	m, err := f.store.Movements().ListByProduct(context.Background(), "P")
	require.NoError(t, err)
	return m
}

// orderedTx registra el orden de los descuentos condicionales dentro de la transacción.
type orderedTx struct {
	inventory.TxRunner
	sizes []string
}

type recordingVariants struct {
	repository.ProductVariantRepository
	tx *orderedTx
}

func (r recordingVariants) DecrementIfAvailable(ctx context.Context, productID, size string, qty int64) (int64, bool, int64, error) {
	r.tx.sizes = append(r.tx.sizes, size)
	return r.ProductVariantRepository.DecrementIfAvailable(ctx, productID, size, qty)
}

func (o *orderedTx) Run(ctx context.Context, fn func(repository.StockMovementRepository, repository.ProductVariantRepository) error) error {
	return o.TxRunner.Run(ctx, func(m repository.StockMovementRepository, v repository.ProductVariantRepository) error {
		return fn(m, recordingVariants{ProductVariantRepository: v, tx: o})
	})
}

// ─── Receive ──────────────────────────────────────────────────────────────────

func TestReceive_UnMovimientoConTodasLasLineas(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 2})
	received := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	res, err := f.uc.Receive(context.Background(), inventory.ReceiveInput{
		ProductID:  "P",
		ReceivedAt: received,
		Note:       "Proveedor A",
		Entries: []inventory.ReceiveEntry{
			{Size: "M", Quantity: 5, MRP: decimal.NewFromInt(1200)},
			{Size: " L ", Quantity: 3, MRP: decimal.NewFromInt(1200)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.NotEmpty(t, res.MovementID)
	assert.Equal(t, map[string]int64{"M": 7, "L": 3}, res.Quantities)
	assert.Equal(t, int64(7), f.qty(t, "M"))
	assert.Equal(t, int64(3), f.qty(t, "L"), "la talla nueva se crea en la primera entrada")

	movs := f.movements(t)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.DirectionIn, movs[0].Direction)
	assert.Len(t, movs[0].Lines, 2)
	assert.True(t, movs[0].ReceivedAt.Equal(received))
	assert.Equal(t, []string{inventory.EventStockReceived}, f.notifier.types())
}

func TestReceive_ValidacionSinEscrituras(t *testing.T) {
	f := newFixture(t)
	cases := map[string]inventory.ReceiveInput{
		"sin producto":  {Entries: []inventory.ReceiveEntry{{Size: "M", Quantity: 1}}},
		"sin entradas":  {ProductID: "P"},
		"talla vacía":   {ProductID: "P", Entries: []inventory.ReceiveEntry{{Size: "  ", Quantity: 1}}},
		"cantidad cero": {ProductID: "P", Entries: []inventory.ReceiveEntry{{Size: "M", Quantity: 0}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Receive(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.movements(t))
}

func TestReceive_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Receive(context.Background(), inventory.ReceiveInput{
		ProductID: "X",
		Entries:   []inventory.ReceiveEntry{{Size: "M", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.CodeNotFound, domain.ErrorCode(err))
}

func TestReceive_CantidadNegativaConPiso(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 2})
	_, err := f.uc.Receive(context.Background(), inventory.ReceiveInput{
		ProductID: "P",
		Entries:   []inventory.ReceiveEntry{{Size: "M", Quantity: -5}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.qty(t, "M"))
}

func TestReceive_FalloParcialNoRetiraMovimiento(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Variants().Create(context.Background(), &entity.Product{ID: "P", Name: "Kurta"}))
	variants := &failingVariants{ProductVariantRepository: store.Variants(), failAt: 2}
	uc := inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  store.TxRunner(),
		Movements: store.Movements(),
		Variants:  variants,
	})

	res, err := uc.Receive(context.Background(), inventory.ReceiveInput{
		ProductID: "P",
		Entries: []inventory.ReceiveEntry{
			{Size: "S", Quantity: 1},
			{Size: "M", Quantity: 2},
			{Size: "L", Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Applied)

	movs, err := store.Movements().ListByProduct(context.Background(), "P")
	require.NoError(t, err)
	assert.Len(t, movs, 1, "el movimiento ya anexado se conserva")
	q, err := store.Variants().GetVariantQuantity(context.Background(), "P", "S")
	require.NoError(t, err)
	assert.Equal(t, int64(1), q)
}

// ─── Sell ─────────────────────────────────────────────────────────────────────

func TestSell_EjemploVentaYSobreventa(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 10, MRP: decimal.NewFromInt(999)})
	ctx := context.Background()

	res, err := f.uc.Sell(ctx, inventory.SellInput{
		ProductID: "P",
		Customer:  "Ana",
		Entries:   []inventory.SaleEntry{{Size: "M", Quantity: 7}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sold)
	assert.Equal(t, int64(3), f.qty(t, "M"))

	movs := f.movements(t)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.DirectionOut, movs[0].Direction)
	assert.Equal(t, int64(-7), movs[0].Delta("M"))
	assert.Equal(t, "Ana", movs[0].Customer)
	assert.Equal(t, inventory.DefaultSaleNote, movs[0].Note)
	assert.True(t, movs[0].Lines[0].MRP.Equal(decimal.NewFromInt(999)))

	_, err = f.uc.Sell(ctx, inventory.SellInput{
		ProductID: "P",
		Entries:   []inventory.SaleEntry{{Size: "M", Quantity: 5}},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "M", insufficient.Size)
	assert.Equal(t, int64(5), insufficient.Requested)
	assert.Equal(t, int64(3), insufficient.Available)
	assert.Len(t, f.movements(t), 1)
	assert.Equal(t, int64(3), f.qty(t, "M"))
}

func TestSell_TodoONada(t *testing.T) {
	f := newFixture(t,
		entity.Variant{Size: "S", Quantity: 5},
		entity.Variant{Size: "M", Quantity: 1},
	)
	_, err := f.uc.Sell(context.Background(), inventory.SellInput{
		ProductID: "P",
		Entries: []inventory.SaleEntry{
			{Size: "S", Quantity: 2},
			{Size: "M", Quantity: 4},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.qty(t, "S"))
	assert.Equal(t, int64(1), f.qty(t, "M"))
	assert.Empty(t, f.movements(t))
	assert.Empty(t, f.notifier.types())
}

func TestSell_TallaRepetidaSeAgrega(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 5})
	_, err := f.uc.Sell(context.Background(), inventory.SellInput{
		ProductID: "P",
		Entries: []inventory.SaleEntry{
			{Size: "M", Quantity: 3},
			{Size: "M", Quantity: 3},
		},
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Requested)
	assert.Equal(t, int64(5), f.qty(t, "M"))
}

func TestSell_DescuentaTallasEnOrdenFijo(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Variants().Create(ctx, &entity.Product{ID: "P", Name: "Kurta", Variants: []entity.Variant{
		{Size: "S", Quantity: 5}, {Size: "M", Quantity: 5}, {Size: "L", Quantity: 5},
	}}))
	tx := &orderedTx{TxRunner: store.TxRunner()}
	uc := inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  tx,
		Movements: store.Movements(),
		Variants:  store.Variants(),
	})

	res, err := uc.Sell(ctx, inventory.SellInput{
		ProductID: "P",
		Entries: []inventory.SaleEntry{
			{Size: "S", Quantity: 1},
			{Size: "M", Quantity: 2},
			{Size: "L", Quantity: 1},
			{Size: "M", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"L", "M", "S"}, tx.sizes, "un descuento por talla, en orden")
	assert.Equal(t, map[string]int64{"S": 4, "M": 2, "L": 4}, res.Quantities)

	movs, err := store.Movements().ListByProduct(ctx, "P")
	require.NoError(t, err)
	require.Len(t, movs, 4, "un movimiento por línea, en el orden pedido")
	assert.Equal(t, int64(-1), movs[0].Delta("S"))
	assert.Equal(t, int64(-2), movs[1].Delta("M"))
	assert.Equal(t, int64(-1), movs[2].Delta("L"))
	assert.Equal(t, int64(-1), movs[3].Delta("M"))
}

func TestSell_Validacion(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 5})
	cases := map[string]inventory.SellInput{
		"sin producto":      {Entries: []inventory.SaleEntry{{Size: "M", Quantity: 1}}},
		"sin entradas":      {ProductID: "P"},
		"cantidad negativa": {ProductID: "P", Entries: []inventory.SaleEntry{{Size: "M", Quantity: -1}}},
		"cantidad cero":     {ProductID: "P", Entries: []inventory.SaleEntry{{Size: "M", Quantity: 0}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Sell(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := f.uc.Sell(context.Background(), inventory.SellInput{
		ProductID: "X",
		Entries:   []inventory.SaleEntry{{Size: "M", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Concurrencia ─────────────────────────────────────────────────────────────

func TestReceive_ConcurrenteNoPierdeActualizaciones(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 0})
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			_, err := f.uc.Receive(context.Background(), inventory.ReceiveInput{
				ProductID: "P",
				Entries:   []inventory.ReceiveEntry{{Size: "M", Quantity: n}},
			})
			assert.NoError(t, err)
		}(int64(i%3 + 1))
	}
	wg.Wait()

	var want int64
	for i := 0; i < workers; i++ {
		want += int64(i%3 + 1)
	}
	assert.Equal(t, want, f.qty(t, "M"))
	assert.Len(t, f.movements(t), workers)
}

func TestSell_ConcurrenteNuncaSobrevende(t *testing.T) {
	const available = 10
	f := newFixture(t, entity.Variant{Size: "M", Quantity: available})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Sell(context.Background(), inventory.SellInput{
				ProductID: "P",
				Entries:   []inventory.SaleEntry{{Size: "M", Quantity: 3}},
			})
			if err == nil {
				mu.Lock()
				sold += 3
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, sold, int64(available))
	assert.Equal(t, int64(available)-sold, f.qty(t, "M"))
	var recorded int64
	for _, m := range f.movements(t) {
		recorded -= m.Delta("M")
	}
	assert.Equal(t, sold, recorded, "cada unidad descontada tiene su movimiento")
}

// ─── Mantenimiento ────────────────────────────────────────────────────────────

func TestClearAllStock_BorraHistorialYReinicia(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 4})
	ctx := context.Background()
	_, err := f.uc.Receive(ctx, inventory.ReceiveInput{ProductID: "P", Entries: []inventory.ReceiveEntry{{Size: "L", Quantity: 2}}})
	require.NoError(t, err)
	_, err = f.uc.Sell(ctx, inventory.SellInput{ProductID: "P", Entries: []inventory.SaleEntry{{Size: "M", Quantity: 1}}})
	require.NoError(t, err)

	deleted, err := f.uc.ClearAllStock(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Empty(t, f.movements(t))
	assert.Zero(t, f.qty(t, "M"))
	assert.Zero(t, f.qty(t, "L"))

	history := inventory.NewHistoryUseCase(inventory.HistoryDeps{Movements: f.store.Movements()})
	activity, err := history.RecentActivity(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, activity.StockIn)
	assert.Empty(t, activity.StockOut)

	_, err = f.uc.ClearAllStock(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProductStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Receive(ctx, inventory.ReceiveInput{ProductID: "P", Entries: []inventory.ReceiveEntry{{Size: "M", Quantity: 2}}})
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteProductStock(ctx, "P"))
	assert.Empty(t, f.movements(t))
	assert.ErrorIs(t, f.uc.DeleteProductStock(ctx, "X"), domain.ErrNotFound)
	assert.Contains(t, f.notifier.types(), inventory.EventStockDeleted)
}

func TestCleanupNegativeStock_IdempotenteYSinMovimientos(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 1})
	require.NoError(t, f.store.SetQuantity("P", "M", -3))
	ctx := context.Background()

	n, err := f.uc.CleanupNegativeStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, f.qty(t, "M"))

	n, err = f.uc.CleanupNegativeStock(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.movements(t))
}

func TestNotifierFallido_NoAfectaResultado(t *testing.T) {
	f := newFixture(t, entity.Variant{Size: "M", Quantity: 1})
	f.notifier.err = errors.New("kafka caído")

	_, err := f.uc.Sell(context.Background(), inventory.SellInput{ProductID: "P", Entries: []inventory.SaleEntry{{Size: "M", Quantity: 1}}})
	require.NoError(t, err)
	assert.Zero(t, f.qty(t, "M"))
}

// ─── Auditoría ────────────────────────────────────────────────────────────────

func TestAuditProduct_DetectaDeriva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Receive(ctx, inventory.ReceiveInput{ProductID: "P", Entries: []inventory.ReceiveEntry{{Size: "M", Quantity: 5}}})
	require.NoError(t, err)
	_, err = f.uc.Sell(ctx, inventory.SellInput{ProductID: "P", Entries: []inventory.SaleEntry{{Size: "M", Quantity: 2}}})
	require.NoError(t, err)

	report, err := f.uc.AuditProduct(ctx, "P")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.Movements)
	require.Len(t, report.Variants, 1)
	assert.Equal(t, int64(3), report.Variants[0].Expected)

	require.NoError(t, f.store.SetQuantity("P", "M", 9))
	report, err = f.uc.AuditProduct(ctx, "P")
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(6), report.Variants[0].Drift)
}
