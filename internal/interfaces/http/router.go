package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger    *inventory.StockLedgerUseCase
	History   *inventory.HistoryUseCase
	Metrics   RequestObserver // opcional
	Logger    *logger.Logger  // opcional
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	if deps.Logger != nil {
		api.Use(RequestLogger(deps.Logger))
	}
	if deps.Metrics != nil {
		api.Use(MetricsMiddleware(deps.Metrics))
	}

	// Rutas protegidas (requieren Bearer Token)
	stock := api.Group("/stock", AuthMiddleware(deps.JWTSecret))
	h := NewStockHandler(deps.Ledger, deps.History)

	stock.Post("/entries", RequireRole(RoleAdmin, RoleBodeguero), h.Receive)
	stock.Post("/sales", RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor), h.Sell)

	// Lectura: cualquier usuario autenticado
	stock.Get("/activity", h.RecentActivity)
	stock.Get("/activity/pdf", h.RecentActivityPDF)
	stock.Get("/products/:id/variants", h.ListVariants)

	// Administración
	admin := RequireRole(RoleAdmin)
	stock.Get("/products/:id/audit", admin, h.Audit)
	stock.Delete("/products/:id/movements", admin, h.ClearAllStock)
	stock.Delete("/products/:id", admin, h.DeleteProductStock)
	stock.Post("/maintenance/cleanup-negative", admin, h.CleanupNegativeStock)
}
