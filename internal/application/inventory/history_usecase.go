package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Límites por defecto de la consulta de actividad reciente.
const (
	DefaultRecentLimit    = 10
	DefaultMaxRecentLimit = 100
)

// ErrReportsDisabled el generador de reportes no está configurado.
var ErrReportsDisabled = errors.New("generador de reportes no configurado")

// HistoryUseCase fachada de lectura del libro para la pantalla de historial.
type HistoryUseCase struct {
	movRepo      repository.StockMovementRepository
	cache        ActivityCache
	reports      HistoryReportGenerator
	metrics      LedgerMetrics
	log          *logger.Logger
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// HistoryDeps dependencias de HistoryUseCase. Cache, Reports y Metrics son opcionales.
type HistoryDeps struct {
	Movements    repository.StockMovementRepository
	Cache        ActivityCache
	Reports      HistoryReportGenerator
	Metrics      LedgerMetrics
	Logger       *logger.Logger
	DefaultLimit int
	MaxLimit     int
	Clock        func() time.Time
}

// NewHistoryUseCase construye la fachada.
func NewHistoryUseCase(deps HistoryDeps) *HistoryUseCase {
	uc := &HistoryUseCase{
		movRepo:      deps.Movements,
		cache:        deps.Cache,
		reports:      deps.Reports,
		metrics:      deps.Metrics,
		log:          deps.Logger,
		defaultLimit: deps.DefaultLimit,
		maxLimit:     deps.MaxLimit,
		now:          deps.Clock,
	}
	if uc.metrics == nil {
		uc.metrics = nopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.maxLimit <= 0 {
		uc.maxLimit = DefaultMaxRecentLimit
	}
	if uc.defaultLimit <= 0 {
		uc.defaultLimit = DefaultRecentLimit
	}
	if uc.defaultLimit > uc.maxLimit {
		uc.defaultLimit = uc.maxLimit
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// ResolveLimit aplica el valor por defecto (<= 0) y el máximo configurado.
func (uc *HistoryUseCase) ResolveLimit(limit int) int {
	if limit <= 0 {
		return uc.defaultLimit
	}
	if limit > uc.maxLimit {
		return uc.maxLimit
	}
	return limit
}

// RecentActivity devuelve las últimas entradas y salidas, más recientes primero. Los movimientos
// cuyo producto ya no existe se devuelven con product nulo.
func (uc *HistoryUseCase) RecentActivity(ctx context.Context, limitIn, limitOut int) (res *dto.ActivityResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveOperation(OpRecentActivity, err, time.Since(start)) }()

	limitIn = uc.ResolveLimit(limitIn)
	limitOut = uc.ResolveLimit(limitOut)

	generation := int64(-1)
	if uc.cache != nil {
		cached, gen, ok := uc.cache.Get(ctx, limitIn, limitOut)
		if ok {
			return cached, nil
		}
		generation = gen
	}

	in, err := uc.movRepo.ListRecent(ctx, entity.DirectionIn, limitIn, entity.MovementCursor{})
	if err != nil {
		return nil, domain.StorageError("listar entradas recientes", err)
	}
	out, err := uc.movRepo.ListRecent(ctx, entity.DirectionOut, limitOut, entity.MovementCursor{})
	if err != nil {
		return nil, domain.StorageError("listar salidas recientes", err)
	}
	res = &dto.ActivityResponse{
		StockIn:  ToMovementDTOs(in),
		StockOut: ToMovementDTOs(out),
	}
	if uc.cache != nil && generation >= 0 {
		uc.cache.Set(ctx, generation, limitIn, limitOut, res)
	}
	return res, nil
}

// RecentActivityPDF genera el reporte imprimible de la actividad reciente.
func (uc *HistoryUseCase) RecentActivityPDF(ctx context.Context, limitIn, limitOut int) ([]byte, error) {
	if uc.reports == nil {
		return nil, ErrReportsDisabled
	}
	activity, err := uc.RecentActivity(ctx, limitIn, limitOut)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.reports.GenerateActivityPDF(ctx, activity, uc.now())
	if err != nil {
		uc.log.Error().Err(err).Msg("error generando PDF de historial")
		return nil, fmt.Errorf("generar reporte: %w", err)
	}
	return pdf, nil
}
