// Package storage abre el almacén del libro según DB_DRIVER y entrega sus puertos listos para el motor.
package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Backend puertos de un almacén abierto.
type Backend struct {
	Driver    string
	Movements repository.StockMovementRepository
	Variants  repository.ProductVariantRepository
	TxRunner  inventory.TxRunner

	migrate func(ctx context.Context) error
	close   func()
}

// Migrate aplica el esquema (idempotente). SQLite y memoria ya lo aplican al abrir.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.migrate == nil {
		return nil
	}
	return b.migrate(ctx)
}

// Close libera conexiones.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open abre el almacén configurado. Con postgres aplica el esquema al arrancar si migrate es true.
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger, migrate bool) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		b := &Backend{
			Driver:    cfg.Driver,
			Movements: postgres.NewStockMovementRepository(pool),
			Variants:  postgres.NewProductVariantRepository(pool),
			TxRunner:  postgres.NewTxRunner(pool),
			migrate:   func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:     pool.Close,
		}
		if migrate {
			if err := b.Migrate(ctx); err != nil {
				pool.Close()
				return nil, err
			}
		}
		log.Info().Str("driver", cfg.Driver).Msg("almacén PostgreSQL listo")
		return b, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.Driver).Str("path", cfg.SQLitePath).Msg("almacén SQLite listo")
		return &Backend{
			Driver:    cfg.Driver,
			Movements: store.Movements(),
			Variants:  store.Variants(),
			TxRunner:  store.TxRunner(),
			close: func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("cerrar sqlite")
				}
			},
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return &Backend{
			Driver:    cfg.Driver,
			Movements: store.Movements(),
			Variants:  store.Variants(),
			TxRunner:  store.TxRunner(),
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.Driver)
}
