// Package cli comandos de operador del libro de stock (stockctl).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RootOptions flags globales de todos los comandos.
type RootOptions struct {
	Verbose    bool
	Format     string // "yaml" | "json"
	Driver     string // sobrescribe DB_DRIVER
	SQLitePath string // sobrescribe SQLITE_PATH
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"yaml", "json"}

// NewRootCommand crea el comando raíz de stockctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockctl",
		Short: "Operación del libro de stock",
		Long:  "Herramientas de operador: migración, siembra, reparación y consulta del libro de movimientos.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "salida detallada")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "yaml", "formato de salida (yaml|json)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "almacén: postgres, sqlite o memory (por defecto DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "ruta de la base SQLite (por defecto SQLITE_PATH)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewCleanupNegativeCommand(opts))
	cmd.AddCommand(NewClearStockCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewActivityCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// env configuración, logger y almacén abiertos para un comando.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	backend *storage.Backend
}

func (e *env) Close() { e.backend.Close() }

func (e *env) ledger() *inventory.StockLedgerUseCase {
	return inventory.NewStockLedgerUseCase(inventory.LedgerDeps{
		TxRunner:  e.backend.TxRunner,
		Movements: e.backend.Movements,
		Variants:  e.backend.Variants,
		Logger:    e.log,
	})
}

func (e *env) history() *inventory.HistoryUseCase {
	return inventory.NewHistoryUseCase(inventory.HistoryDeps{
		Movements:    e.backend.Movements,
		Logger:       e.log,
		DefaultLimit: e.cfg.Ledger.RecentLimit,
		MaxLimit:     e.cfg.Ledger.MaxRecentLimit,
	})
}

func openEnv(ctx context.Context, cmd *cobra.Command, opts *RootOptions, migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if opts.Driver != "" {
		cfg.DB.Driver = opts.Driver
	}
	if opts.SQLitePath != "" {
		cfg.DB.SQLitePath = opts.SQLitePath
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Env: "development", Level: level, Out: cmd.ErrOrStderr()})

	backend, err := storage.Open(ctx, cfg.DB, log, migrate)
	if err != nil {
		return nil, fmt.Errorf("abrir almacén: %w", err)
	}
	return &env{cfg: cfg, log: log, backend: backend}, nil
}

// render escribe v en el formato elegido. YAML conserva los nombres de campo de la API JSON.
func render(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializar salida: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("convertir a yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}
