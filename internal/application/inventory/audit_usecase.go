package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// AuditProduct reproduce el libro del producto y lo compara con la proyección actual.
// Solo lectura: la reparación de negativos es CleanupNegativeStock.
func (uc *StockLedgerUseCase) AuditProduct(ctx context.Context, productID string) (*dto.AuditReportResponse, error) {
	if productID == "" {
		return nil, domain.InvalidInput("product_id requerido")
	}
	product, err := uc.requireProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	movements, err := uc.movRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, domain.StorageError("listar movimientos del producto", err)
	}

	drifts := inventory.CompareProjection(product.Variants, inventory.ReplayBalances(movements))
	report := &dto.AuditReportResponse{
		ProductID:  productID,
		Movements:  len(movements),
		Consistent: true,
		Variants:   make([]dto.VariantAuditDTO, 0, len(drifts)),
	}
	for _, d := range drifts {
		if d.Delta() != 0 {
			report.Consistent = false
		}
		report.Variants = append(report.Variants, dto.VariantAuditDTO{
			Size:      d.Size,
			Expected:  d.Expected,
			Projected: d.Projected,
			Drift:     d.Delta(),
		})
	}
	if !report.Consistent {
		uc.log.Warn().Str("product_id", productID).Msg("deriva detectada entre libro y proyección")
	}
	return report, nil
}
