package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Lo usa la venta para que el descuento condicional y el movimiento de todas las líneas se confirmen juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		variantRepo repository.ProductVariantRepository,
	) error) error
}

// Tipos de evento que el motor notifica tras confirmar una escritura.
const (
	EventStockReceived = "stock.received"
	EventStockSold     = "stock.sold"
	EventStockCleared  = "stock.cleared"
	EventStockDeleted  = "stock.deleted"
	EventStockRepaired = "stock.repaired"
)

// MovementEvent describe una escritura confirmada en el libro o en la proyección.
type MovementEvent struct {
	Type       string
	ProductID  string // vacío en reparaciones globales
	Movements  []entity.StockMovement
	Quantities map[string]int64 // cantidades resultantes por talla
	Affected   int64            // movimientos borrados o variantes reparadas
	At         time.Time
}

// MovementNotifier recibe los eventos ya confirmados (publicación a Kafka, invalidación de caché).
// Un fallo del notificador no deshace nada: el motor solo lo registra.
type MovementNotifier interface {
	Notify(ctx context.Context, event MovementEvent) error
}

// MultiNotifier reparte el evento a varios notificadores y devuelve el primer error.
type MultiNotifier []MovementNotifier

// Notify implementa MovementNotifier.
func (m MultiNotifier) Notify(ctx context.Context, event MovementEvent) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Operaciones medidas por LedgerMetrics.
const (
	OpReceive         = "receive"
	OpSell            = "sell"
	OpClearAllStock   = "clear_all_stock"
	OpDeleteProduct   = "delete_product_stock"
	OpCleanupNegative = "cleanup_negative_stock"
	OpRecentActivity  = "recent_activity"
)

// LedgerMetrics puerto de métricas del motor.
type LedgerMetrics interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	MovementsAppended(direction string, n int)
	InsufficientStock(productID string)
	VariantsRepaired(n int64)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, error, time.Duration) {}
func (nopMetrics) MovementsAppended(string, int)                 {}
func (nopMetrics) InsufficientStock(string)                      {}
func (nopMetrics) VariantsRepaired(int64)                        {}

// ActivityCache caché de lectura para la consulta de actividad reciente.
// Get devuelve también la generación vigente, leída antes de consultar el almacén. Set guarda bajo esa
// generación: si una escritura confirmada la avanzó entretanto, lo guardado ya no se sirve.
// Una generación negativa significa que no se puede guardar.
type ActivityCache interface {
	Get(ctx context.Context, limitIn, limitOut int) (activity *dto.ActivityResponse, generation int64, ok bool)
	Set(ctx context.Context, generation int64, limitIn, limitOut int, activity *dto.ActivityResponse)
}

// HistoryReportGenerator genera el reporte imprimible del historial de stock.
type HistoryReportGenerator interface {
	GenerateActivityPDF(ctx context.Context, activity *dto.ActivityResponse, generatedAt time.Time) ([]byte, error)
}
