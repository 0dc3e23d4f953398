package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// DefaultSaleNote nota por defecto de un movimiento de salida.
const DefaultSaleNote = "Venta registrada"

// StockLedgerUseCase motor de conciliación: anexa movimientos al libro, mantiene la proyección
// de cantidades por variante y repara la deriva sin tocar el historial.
type StockLedgerUseCase struct {
	txRunner    TxRunner
	movRepo     repository.StockMovementRepository
	variantRepo repository.ProductVariantRepository
	notifier    MovementNotifier
	metrics     LedgerMetrics
	log         *logger.Logger
	now         func() time.Time
}

// LedgerDeps dependencias del motor. Notifier, Metrics, Logger y Clock son opcionales.
type LedgerDeps struct {
	TxRunner  TxRunner
	Movements repository.StockMovementRepository
	Variants  repository.ProductVariantRepository
	Notifier  MovementNotifier
	Metrics   LedgerMetrics
	Logger    *logger.Logger
	Clock     func() time.Time
}

// NewStockLedgerUseCase construye el motor.
func NewStockLedgerUseCase(deps LedgerDeps) *StockLedgerUseCase {
	uc := &StockLedgerUseCase{
		txRunner:    deps.TxRunner,
		movRepo:     deps.Movements,
		variantRepo: deps.Variants,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		log:         deps.Logger,
		now:         deps.Clock,
	}
	if uc.notifier == nil {
		uc.notifier = MultiNotifier(nil)
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// ReceiveEntry una línea de recepción.
type ReceiveEntry struct {
	Size     string
	Quantity int64
	MRP      decimal.Decimal
}

// ReceiveInput entrada de una recepción (stock-in).
type ReceiveInput struct {
	ProductID  string
	ReceivedAt time.Time // cero = ahora
	Note       string
	Entries    []ReceiveEntry
}

// ReceiveResult resultado de una recepción. Applied cuenta las líneas ya reflejadas en la proyección,
// también cuando la llamada termina con error a mitad del lote.
type ReceiveResult struct {
	MovementID string
	Applied    int
	Quantities map[string]int64
}

// Receive registra una recepción: un solo movimiento de entrada con todas las líneas y luego
// un +cantidad en la proyección por línea. Cada línea es su propia unidad de trabajo: si una falla
// no se retira el movimiento ni las líneas anteriores (se prioriza la completitud del libro).
func (uc *StockLedgerUseCase) Receive(ctx context.Context, in ReceiveInput) (res *ReceiveResult, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpReceive, err, time.Since(start)) }()

	if in.ProductID == "" {
		return nil, domain.InvalidInput("product_id requerido")
	}
	if len(in.Entries) == 0 {
		return nil, domain.InvalidInput("stock_entries requerido")
	}
	lines := make([]entity.MovementLine, 0, len(in.Entries))
	for i, e := range in.Entries {
		size := inventory.NormalizeSize(e.Size)
		if size == "" {
			return nil, domain.InvalidInput("entrada %d: size requerido", i)
		}
		if e.Quantity == 0 {
			return nil, domain.InvalidInput("entrada %d: quantity debe ser distinto de cero", i)
		}
		lines = append(lines, entity.MovementLine{Size: size, Quantity: e.Quantity, MRP: e.MRP})
	}

	if _, err := uc.requireProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := uc.now()
	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}
	mov := &entity.StockMovement{
		ProductID:  in.ProductID,
		Direction:  entity.DirectionIn,
		Lines:      lines,
		Note:       in.Note,
		ReceivedAt: receivedAt,
		CreatedAt:  now,
	}
	id, err := uc.movRepo.Append(ctx, mov)
	if err != nil {
		return nil, domain.StorageError("registrar movimiento de entrada", err)
	}
	uc.metrics.MovementsAppended(entity.DirectionIn, 1)

	res = &ReceiveResult{MovementID: id, Quantities: make(map[string]int64, len(lines))}
	defer func() {
		uc.notify(ctx, MovementEvent{
			Type:       EventStockReceived,
			ProductID:  in.ProductID,
			Movements:  []entity.StockMovement{*mov},
			Quantities: res.Quantities,
			At:         now,
		})
	}()

	for _, l := range lines {
		q, err := uc.variantRepo.ApplyDelta(ctx, in.ProductID, l.Size, l.Quantity, l.MRP)
		if err != nil {
			uc.log.Error().Err(err).
				Str("product_id", in.ProductID).
				Str("movement_id", id).
				Str("size", l.Size).
				Int("applied", res.Applied).
				Int("total", len(lines)).
				Msg("recepción parcial: el movimiento queda registrado sin retirar líneas previas")
			return res, domain.StorageError(
				fmt.Sprintf("aplicar entrada talla %q (%d de %d aplicadas)", l.Size, res.Applied, len(lines)), err)
		}
		res.Applied++
		res.Quantities[l.Size] = q
	}

	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("movement_id", id).
		Int("lines", len(lines)).
		Msg("stock recibido")
	return res, nil
}

// SaleEntry una línea de venta.
type SaleEntry struct {
	Size     string
	Quantity int64
}

// SellInput entrada de una venta (stock-out).
type SellInput struct {
	ProductID string
	Customer  string
	Note      string
	Entries   []SaleEntry
}

// SellResult resultado de una venta confirmada.
type SellResult struct {
	Sold        int
	MovementIDs []string
	Quantities  map[string]int64
}

// Sell registra una venta en dos fases.
//
// Validación: cada talla (sumando líneas repetidas) debe tener cantidad suficiente; si alguna no
// alcanza se rechaza todo el lote sin escribir nada.
//
// Confirmación: dentro de una sola transacción, un descuento condicional atómico por talla
// (resta solo si cantidad >= pedido, tallas en orden) y luego un movimiento de salida por línea. Si otra venta concurrente ganó la
// carrera, la condición falla, la transacción se deshace entera y se devuelve InsufficientStock.
func (uc *StockLedgerUseCase) Sell(ctx context.Context, in SellInput) (res *SellResult, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpSell, err, time.Since(start)) }()

	if in.ProductID == "" {
		return nil, domain.InvalidInput("product_id requerido")
	}
	if len(in.Entries) == 0 {
		return nil, domain.InvalidInput("sale_entries requerido")
	}
	entries := make([]SaleEntry, 0, len(in.Entries))
	requested := make([]inventory.SizeQuantity, 0, len(in.Entries))
	for i, e := range in.Entries {
		size := inventory.NormalizeSize(e.Size)
		if size == "" {
			return nil, domain.InvalidInput("venta %d: size requerido", i)
		}
		if e.Quantity <= 0 {
			return nil, domain.InvalidInput("venta %d: quantity debe ser mayor que cero", i)
		}
		entries = append(entries, SaleEntry{Size: size, Quantity: e.Quantity})
		requested = append(requested, inventory.SizeQuantity{Size: size, Quantity: e.Quantity})
	}

	product, err := uc.requireProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	// Fase 1: validación contra la proyección, sin efectos.
	for _, r := range inventory.AggregateBySize(requested) {
		available, err := uc.variantRepo.GetVariantQuantity(ctx, in.ProductID, r.Size)
		if err != nil {
			return nil, domain.StorageError("leer cantidad disponible", err)
		}
		if r.Quantity > available {
			uc.metrics.InsufficientStock(in.ProductID)
			return nil, domain.NewInsufficientStock(r.Size, r.Quantity, available)
		}
	}

	// Fase 2: confirmación atómica con descuento condicional.
	note := in.Note
	if note == "" {
		note = DefaultSaleNote
	}
	now := uc.now()
	// Los descuentos van por talla en orden fijo: dos ventas con las mismas tallas en distinto orden
	// toman los bloqueos de fila en la misma secuencia.
	decrements := inventory.AggregateBySize(requested)
	sort.Slice(decrements, func(i, j int) bool { return decrements[i].Size < decrements[j].Size })
	movements := make([]entity.StockMovement, 0, len(entries))
	quantities := make(map[string]int64, len(decrements))
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		for _, d := range decrements {
			newQty, ok, available, err := variantRepo.DecrementIfAvailable(ctx, in.ProductID, d.Size, d.Quantity)
			if err != nil {
				return domain.StorageError("descontar stock", err)
			}
			if !ok {
				return domain.NewInsufficientStock(d.Size, d.Quantity, available)
			}
			quantities[d.Size] = newQty
		}
		for _, e := range entries {
			var mrp decimal.Decimal
			if v, found := product.Variant(e.Size); found {
				mrp = v.MRP
			}
			mov := entity.StockMovement{
				ProductID:  in.ProductID,
				Direction:  entity.DirectionOut,
				Lines:      []entity.MovementLine{{Size: e.Size, Quantity: -e.Quantity, MRP: mrp}},
				Note:       note,
				Customer:   in.Customer,
				ReceivedAt: now,
				CreatedAt:  now,
			}
			if _, err := movRepo.Append(ctx, &mov); err != nil {
				return domain.StorageError("registrar movimiento de salida", err)
			}
			movements = append(movements, mov)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			uc.metrics.InsufficientStock(in.ProductID)
			uc.log.Warn().Err(err).Str("product_id", in.ProductID).Msg("venta rechazada al confirmar: otra operación consumió el stock")
			return nil, err
		}
		return nil, asStorage("confirmar venta", err)
	}
	uc.metrics.MovementsAppended(entity.DirectionOut, len(movements))

	res = &SellResult{Sold: len(movements), Quantities: quantities}
	for _, m := range movements {
		res.MovementIDs = append(res.MovementIDs, m.ID)
	}
	uc.notify(ctx, MovementEvent{
		Type:       EventStockSold,
		ProductID:  in.ProductID,
		Movements:  movements,
		Quantities: quantities,
		At:         now,
	})
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("customer", in.Customer).
		Int("sold", res.Sold).
		Msg("venta registrada")
	return res, nil
}

// ClearAllStock borra todos los movimientos del producto y deja sus variantes en 0, en una sola
// transacción. Irreversible: destruye el historial de auditoría, a diferencia de una corrección.
func (uc *StockLedgerUseCase) ClearAllStock(ctx context.Context, productID string) (deleted int64, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpClearAllStock, err, time.Since(start)) }()

	if productID == "" {
		return 0, domain.InvalidInput("product_id requerido")
	}
	if _, err := uc.requireProduct(ctx, productID); err != nil {
		return 0, err
	}
	var reset int64
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		variantRepo repository.ProductVariantRepository,
	) error {
		n, err := movRepo.DeleteAllForProduct(ctx, productID)
		if err != nil {
			return domain.StorageError("borrar movimientos", err)
		}
		deleted = n
		reset, err = variantRepo.ResetQuantities(ctx, productID)
		if err != nil {
			return domain.StorageError("reiniciar variantes", err)
		}
		return nil
	})
	if err != nil {
		return 0, asStorage("reiniciar inventario", err)
	}

	uc.log.Warn().
		Str("product_id", productID).
		Int64("deleted_movements", deleted).
		Int64("reset_variants", reset).
		Msg("inventario reiniciado: historial de movimientos eliminado")
	uc.notify(ctx, MovementEvent{Type: EventStockCleared, ProductID: productID, Affected: deleted, At: uc.now()})
	return deleted, nil
}

// DeleteProductStock borra en bloque los movimientos de un producto (acompaña su eliminación del catálogo).
func (uc *StockLedgerUseCase) DeleteProductStock(ctx context.Context, productID string) (err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpDeleteProduct, err, time.Since(start)) }()

	if productID == "" {
		return domain.InvalidInput("product_id requerido")
	}
	if _, err := uc.requireProduct(ctx, productID); err != nil {
		return err
	}
	n, err := uc.movRepo.DeleteAllForProduct(ctx, productID)
	if err != nil {
		return domain.StorageError("borrar movimientos del producto", err)
	}
	uc.log.Warn().Str("product_id", productID).Int64("deleted_movements", n).Msg("movimientos del producto eliminados")
	uc.notify(ctx, MovementEvent{Type: EventStockDeleted, ProductID: productID, Affected: n, At: uc.now()})
	return nil
}

// CleanupNegativeStock lleva a 0 toda variante negativa. Es una reparación de la vista: no escribe
// movimientos. Idempotente; una segunda pasada devuelve 0.
func (uc *StockLedgerUseCase) CleanupNegativeStock(ctx context.Context) (repaired int64, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpCleanupNegative, err, time.Since(start)) }()

	repaired, err = uc.variantRepo.ClampNegative(ctx)
	if err != nil {
		return 0, domain.StorageError("reparar cantidades negativas", err)
	}
	uc.metrics.VariantsRepaired(repaired)
	if repaired > 0 {
		uc.log.Info().Int64("repaired", repaired).Msg("variantes negativas reparadas")
		uc.notify(ctx, MovementEvent{Type: EventStockRepaired, Affected: repaired, At: uc.now()})
	}
	return repaired, nil
}

// ListVariants devuelve las variantes proyectadas del producto.
func (uc *StockLedgerUseCase) ListVariants(ctx context.Context, productID string) ([]entity.Variant, error) {
	if productID == "" {
		return nil, domain.InvalidInput("product_id requerido")
	}
	variants, err := uc.variantRepo.ListVariants(ctx, productID)
	if err != nil {
		return nil, asStorage("listar variantes", err)
	}
	return variants, nil
}

func (uc *StockLedgerUseCase) requireProduct(ctx context.Context, productID string) (*entity.Product, error) {
	product, err := uc.variantRepo.GetProduct(ctx, productID)
	if err != nil {
		return nil, domain.StorageError("obtener producto", err)
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return product, nil
}

func (uc *StockLedgerUseCase) notify(ctx context.Context, event MovementEvent) {
	if err := uc.notifier.Notify(ctx, event); err != nil {
		uc.log.Warn().Err(err).
			Str("event", event.Type).
			Str("product_id", event.ProductID).
			Msg("no se pudo notificar el evento de stock")
	}
}

// asStorage deja pasar los errores de dominio y marca el resto como fallo de almacenamiento.
func asStorage(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrStorage):
		return err
	}
	return domain.StorageError(op, err)
}
