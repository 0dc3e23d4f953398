package inventory

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReceiveInputFromRequest traduce el body HTTP/CLI a la entrada del motor.
func ReceiveInputFromRequest(req dto.ReceiveStockRequest) ReceiveInput {
	in := ReceiveInput{
		ProductID: req.ProductID,
		Note:      req.Notes,
		Entries:   make([]ReceiveEntry, 0, len(req.StockEntries)),
	}
	if req.ReceivedDate != nil {
		in.ReceivedAt = *req.ReceivedDate
	}
	for _, e := range req.StockEntries {
		in.Entries = append(in.Entries, ReceiveEntry{Size: e.Size, Quantity: e.Quantity, MRP: e.MRP})
	}
	return in
}

// SellInputFromRequest traduce el body de venta a la entrada del motor.
func SellInputFromRequest(req dto.SellStockRequest) SellInput {
	in := SellInput{
		ProductID: req.ProductID,
		Customer:  req.Customer,
		Note:      req.Notes,
		Entries:   make([]SaleEntry, 0, len(req.SaleEntries)),
	}
	for _, e := range req.SaleEntries {
		in.Entries = append(in.Entries, SaleEntry{Size: e.Size, Quantity: e.Quantity})
	}
	return in
}

// ToReceiveResponse resultado de recepción como DTO.
func ToReceiveResponse(r *ReceiveResult) dto.ReceiveStockResponse {
	if r == nil {
		return dto.ReceiveStockResponse{}
	}
	return dto.ReceiveStockResponse{MovementID: r.MovementID, Written: r.Applied, Quantities: r.Quantities}
}

// ToSellResponse resultado de venta como DTO.
func ToSellResponse(r *SellResult) dto.SellStockResponse {
	if r == nil {
		return dto.SellStockResponse{}
	}
	return dto.SellStockResponse{Sold: r.Sold, MovementIDs: r.MovementIDs, Quantities: r.Quantities}
}

// ToVariantDTOs variantes como DTO.
func ToVariantDTOs(variants []entity.Variant) []dto.VariantDTO {
	out := make([]dto.VariantDTO, 0, len(variants))
	for _, v := range variants {
		out = append(out, dto.VariantDTO{Size: v.Size, Quantity: v.Quantity, MRP: v.MRP})
	}
	return out
}

// ToMovementDTOs movimientos unidos a su producto como DTO.
func ToMovementDTOs(movements []entity.MovementWithProduct) []dto.MovementDTO {
	out := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		d := dto.MovementDTO{
			ID:         m.ID,
			Seq:        m.Seq,
			ProductID:  m.ProductID,
			Direction:  m.Direction,
			Lines:      make([]dto.MovementLineDTO, 0, len(m.Lines)),
			Note:       m.Note,
			Customer:   m.Customer,
			ReceivedAt: m.ReceivedAt.UTC().Truncate(time.Microsecond),
			CreatedAt:  m.CreatedAt.UTC().Truncate(time.Microsecond),
		}
		for _, l := range m.Lines {
			d.Lines = append(d.Lines, dto.MovementLineDTO{Size: l.Size, Quantity: l.Quantity, MRP: l.MRP})
		}
		if m.Product != nil {
			d.Product = &dto.ProductIdentityDTO{
				ID:       m.Product.ID,
				Name:     m.Product.Name,
				SKU:      m.Product.SKU,
				Category: m.Product.Category,
				Variants: ToVariantDTOs(m.Product.Variants),
			}
		}
		out = append(out, d)
	}
	return out
}
