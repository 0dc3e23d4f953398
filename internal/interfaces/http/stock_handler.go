package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	ledger  *inventory.StockLedgerUseCase
	history *inventory.HistoryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedgerUseCase, history *inventory.HistoryUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, history: history}
}

// Receive godoc
// @Summary      Registrar entrada de stock
// @Description  Anexa un movimiento de entrada con todas las líneas y suma cada cantidad a su talla.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReceiveStockRequest  true  "product_id, received_date, notes, stock_entries"
// @Success      201   {object}  dto.ReceiveStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/entries [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.ledger.Receive(c.UserContext(), inventory.ReceiveInputFromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToReceiveResponse(res))
}

// Sell godoc
// @Summary      Registrar venta
// @Description  Valida el lote completo y descuenta cada línea de forma condicional en una sola transacción.
// @Description  Si alguna talla no alcanza no se escribe nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SellStockRequest  true  "product_id, customer, notes, sale_entries"
// @Success      201   {object}  dto.SellStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/sales [post]
func (h *StockHandler) Sell(c *fiber.Ctx) error {
	var in dto.SellStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.ledger.Sell(c.UserContext(), inventory.SellInputFromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToSellResponse(res))
}

// RecentActivity godoc
// @Summary      Actividad reciente
// @Description  Últimas entradas y salidas, más recientes primero. product es null si el producto ya no existe.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit_in   query     int  false  "Máximo de entradas (por defecto 10)"
// @Param        limit_out  query     int  false  "Máximo de salidas (por defecto 10)"
// @Success      200        {object}  dto.ActivityResponse
// @Failure      503        {object}  dto.ErrorResponse
// @Router       /api/stock/activity [get]
func (h *StockHandler) RecentActivity(c *fiber.Ctx) error {
	res, err := h.history.RecentActivity(c.UserContext(), c.QueryInt("limit_in"), c.QueryInt("limit_out"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// RecentActivityPDF godoc
// @Summary      Historial de stock en PDF
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Param        limit_in   query  int  false  "Máximo de entradas"
// @Param        limit_out  query  int  false  "Máximo de salidas"
// @Success      200        {file}    binary
// @Failure      501        {object}  dto.ErrorResponse
// @Failure      503        {object}  dto.ErrorResponse
// @Router       /api/stock/activity/pdf [get]
func (h *StockHandler) RecentActivityPDF(c *fiber.Ctx) error {
	out, err := h.history.RecentActivityPDF(c.UserContext(), c.QueryInt("limit_in"), c.QueryInt("limit_out"))
	if errors.Is(err, inventory.ErrReportsDisabled) {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "REPORTS_DISABLED", Message: err.Error()})
	}
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="historial-stock-`+time.Now().Format("20060102")+`.pdf"`)
	return c.Send(out)
}

// ListVariants godoc
// @Summary      Variantes de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {array}   dto.VariantDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/variants [get]
func (h *StockHandler) ListVariants(c *fiber.Ctx) error {
	variants, err := h.ledger.ListVariants(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToVariantDTOs(variants))
}

// Audit godoc
// @Summary      Auditar proyección contra el libro
// @Description  Reproduce los movimientos del producto y compara con las cantidades proyectadas. No escribe.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.AuditReportResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/audit [get]
func (h *StockHandler) Audit(c *fiber.Ctx) error {
	report, err := h.ledger.AuditProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// ClearAllStock godoc
// @Summary      Reiniciar inventario de un producto
// @Description  Borra todos los movimientos del producto y deja sus variantes en 0. Irreversible.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.ClearStockResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/movements [delete]
func (h *StockHandler) ClearAllStock(c *fiber.Ctx) error {
	deleted, err := h.ledger.ClearAllStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ClearStockResponse{Deleted: deleted})
}

// DeleteProductStock godoc
// @Summary      Borrar movimientos de un producto eliminado
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id} [delete]
func (h *StockHandler) DeleteProductStock(c *fiber.Ctx) error {
	if err := h.ledger.DeleteProductStock(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimientos del producto eliminados"})
}

// CleanupNegativeStock godoc
// @Summary      Reparar cantidades negativas
// @Description  Lleva a 0 toda variante negativa. Idempotente; no anexa movimientos.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CleanupResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/maintenance/cleanup-negative [post]
func (h *StockHandler) CleanupNegativeStock(c *fiber.Ctx) error {
	repaired, err := h.ledger.CleanupNegativeStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CleanupResponse{Repaired: repaired})
}
