package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// NewMigrateCommand aplica el esquema del almacén.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Crear tablas e índices del libro (idempotente)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.backend.Migrate(cmd.Context()); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, map[string]string{"driver": e.backend.Driver, "status": "migrado"})
		},
	}
}

// SeedOptions flags del comando seed.
type SeedOptions struct {
	*RootOptions
	ID       string
	Name     string
	SKU      string
	Category string
	MRP      string
	Sizes    []string // TALLA=CANTIDAD
}

// NewSeedCommand da de alta un producto con sus variantes. El CRUD de catálogo vive fuera del motor;
// esto es solo para entornos de desarrollo y pruebas.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Sembrar un producto con variantes por talla",
		Long: `Crea un producto con sus variantes iniciales.

Ejemplos:
  stockctl seed --name Kurta --sku KRT-01 --size S=4 --size M=10 --mrp 1200
  stockctl seed --driver sqlite --sqlite-path ./dev.db --name Saree --size "FREE SIZE=3"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := opts.product()
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), cmd, opts.RootOptions, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.backend.Variants.Create(cmd.Context(), product); err != nil {
				return fmt.Errorf("sembrar producto: %w", err)
			}
			return render(cmd.OutOrStdout(), opts.Format, dto.ProductIdentityDTO{
				ID:       product.ID,
				Name:     product.Name,
				SKU:      product.SKU,
				Category: product.Category,
				Variants: inventory.ToVariantDTOs(product.Variants),
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "ID del producto (por defecto UUID nuevo)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "nombre del producto (requerido)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.SKU, "sku", "", "SKU")
	cmd.Flags().StringVar(&opts.Category, "category", "", "categoría")
	cmd.Flags().StringVar(&opts.MRP, "mrp", "0", "precio de lista de todas las variantes")
	cmd.Flags().StringArrayVar(&opts.Sizes, "size", nil, "variante TALLA=CANTIDAD (repetible)")

	return cmd
}

func (o *SeedOptions) product() (*entity.Product, error) {
	mrp, err := decimal.NewFromString(o.MRP)
	if err != nil {
		return nil, fmt.Errorf("mrp inválido %q: %w", o.MRP, err)
	}
	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	p := &entity.Product{ID: id, Name: o.Name, SKU: o.SKU, Category: o.Category}
	seen := make(map[string]bool, len(o.Sizes))
	for _, raw := range o.Sizes {
		size, qty, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("variante %q: formato TALLA=CANTIDAD", raw)
		}
		size = domaininv.NormalizeSize(size)
		n, err := strconv.ParseInt(strings.TrimSpace(qty), 10, 64)
		if err != nil || size == "" {
			return nil, fmt.Errorf("variante %q: formato TALLA=CANTIDAD", raw)
		}
		if seen[size] {
			return nil, fmt.Errorf("talla %q repetida", size)
		}
		seen[size] = true
		p.Variants = append(p.Variants, entity.Variant{Size: size, Quantity: n, MRP: mrp})
	}
	return p, nil
}

// NewCleanupNegativeCommand lleva a cero las variantes negativas.
func NewCleanupNegativeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-negative",
		Short: "Reparar variantes con cantidad negativa (idempotente)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			repaired, err := e.ledger().CleanupNegativeStock(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, dto.CleanupResponse{Repaired: repaired})
		},
	}
}

// NewClearStockCommand reinicia el inventario de un producto. Exige --yes.
func NewClearStockCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-stock <product-id>",
		Short: "Borrar todos los movimientos de un producto y dejar sus variantes en 0",
		Long:  "Operación irreversible: el historial del producto se pierde. Requiere --yes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("operación irreversible: repita con --yes para confirmar")
			}
			e, err := openEnv(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			deleted, err := e.ledger().ClearAllStock(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, dto.ClearStockResponse{Deleted: deleted})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirmar el borrado")
	return cmd
}

// NewAuditCommand compara libro y proyección de un producto.
func NewAuditCommand(opts *RootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "audit <product-id>",
		Short: "Reproducir el libro de un producto y comparar con la proyección",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := e.ledger().AuditProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), opts.Format, report); err != nil {
				return err
			}
			if strict && !report.Consistent {
				return fmt.Errorf("deriva detectada en el producto %s", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "terminar con error si hay deriva")
	return cmd
}

// NewActivityCommand muestra la actividad reciente.
func NewActivityCommand(opts *RootOptions) *cobra.Command {
	var limitIn, limitOut int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Últimas entradas y salidas del libro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd, opts, false)
			if err != nil {
				return err
			}
			defer e.Close()

			activity, err := e.history().RecentActivity(cmd.Context(), limitIn, limitOut)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, activity)
		},
	}
	cmd.Flags().IntVar(&limitIn, "limit-in", 0, "máximo de entradas (0 = valor por defecto)")
	cmd.Flags().IntVar(&limitOut, "limit-out", 0, "máximo de salidas (0 = valor por defecto)")
	return cmd
}

// NewTokenCommand emite un Bearer token firmado con JWT_SECRET (entornos de desarrollo y operación).
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var userID, companyID, role string
	var expMinutes int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emitir un Bearer token para la API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("cargar configuración: %w", err)
			}
			if expMinutes <= 0 {
				expMinutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, companyID, role, cfg.JWT.Issuer, expMinutes)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, map[string]any{
				"token":      tok,
				"role":       role,
				"expires_in": expMinutes * 60,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "ID de usuario (requerido)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&companyID, "company", "", "ID de empresa")
	cmd.Flags().StringVar(&role, "role", "vendedor", "rol: admin, bodeguero o vendedor")
	cmd.Flags().IntVar(&expMinutes, "exp", 0, "minutos de validez (0 = JWT_EXPIRATION_MINUTES)")
	return cmd
}
