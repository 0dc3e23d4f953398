// Package pdf genera el reporte imprimible del historial de stock.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la app    │  HISTORIAL DE STOCK + Fecha  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ENTRADAS: Fecha | Producto | SKU | Tallas | Unid. | Valor  │
//	│  TOTALES entradas                                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALIDAS: Fecha | Producto | Cliente | Talla | Unid. | Valor│
//	│  TOTALES salidas                                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: leyenda                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorOut     = &props.Color{Red: 150, Green: 40, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.HistoryReportGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa inventory.HistoryReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	title string
}

// NewMarotoPDFGenerator construye el generador; title va en la cabecera de cada reporte.
func NewMarotoPDFGenerator(title string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{title: title}
}

// GenerateActivityPDF genera el PDF de la actividad reciente y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateActivityPDF(
	_ context.Context,
	activity *dto.ActivityResponse,
	generatedAt time.Time,
) ([]byte, error) {
	if activity == nil {
		activity = &dto.ActivityResponse{}
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Historial de stock", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.title, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow("ENTRADAS DE STOCK", colorPrimary))
	m.AddRows(stockInHeaderRow())
	m.AddRows(stockInRows(activity.StockIn)...)
	m.AddRows(totalsRow(summarize(activity.StockIn)))

	m.AddRows(line.NewRow(4))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionRow("SALIDAS DE STOCK", colorOut))
	m.AddRows(stockOutHeaderRow())
	m.AddRows(stockOutRows(activity.StockOut)...)
	m.AddRows(totalsRow(summarize(activity.StockOut)))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Totales ───────────────────────────────────────────────────────────────────

// Summary unidades y valor (cantidad × MRP) de un bloque de movimientos, en valor absoluto.
type Summary struct {
	Movements int
	Units     int64
	Value     decimal.Decimal
}

func summarize(movements []dto.MovementDTO) Summary {
	s := Summary{Movements: len(movements), Value: decimal.Zero}
	for _, m := range movements {
		units, value := lineTotals(m.Lines)
		s.Units += units
		s.Value = s.Value.Add(value)
	}
	return s
}

func lineTotals(lines []dto.MovementLineDTO) (int64, decimal.Decimal) {
	var units int64
	value := decimal.Zero
	for _, l := range lines {
		q := l.Quantity
		if q < 0 {
			q = -q
		}
		units += q
		value = value.Add(l.MRP.Mul(decimal.NewFromInt(q)))
	}
	return units, value
}

// sizesLabel "M×5, L×3" en orden de talla.
func sizesLabel(lines []dto.MovementLineDTO) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		q := l.Quantity
		if q < 0 {
			q = -q
		}
		parts = append(parts, fmt.Sprintf("%s×%d", l.Size, q))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(nonEmpty(title, "Stock Ledger"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("HISTORIAL DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func sectionRow(label string, color *props.Color) core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 9, Color: color, Top: 2,
	})))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func cell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{
		Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func stockInHeaderRow() core.Row {
	return row.New(7).Add(
		headerCell("Fecha", 2, align.Left),
		headerCell("Producto", 3, align.Left),
		headerCell("SKU", 2, align.Left),
		headerCell("Tallas", 2, align.Left),
		headerCell("Unid.", 1, align.Right),
		headerCell("Valor", 2, align.Right),
	)
}

func stockInRows(movements []dto.MovementDTO) []core.Row {
	if len(movements) == 0 {
		return []core.Row{emptyRow()}
	}
	rows := make([]core.Row, 0, len(movements))
	for _, m := range movements {
		units, value := lineTotals(m.Lines)
		name, sku := productLabels(m)
		rows = append(rows, row.New(7).Add(
			cell(m.ReceivedAt.Format("02/01/2006"), 2, align.Left),
			cell(name, 3, align.Left),
			cell(sku, 2, align.Left),
			cell(sizesLabel(m.Lines), 2, align.Left),
			cell(fmt.Sprintf("%d", units), 1, align.Right),
			cell(value.StringFixed(2), 2, align.Right),
		))
	}
	return rows
}

func stockOutHeaderRow() core.Row {
	return row.New(7).Add(
		headerCell("Fecha", 2, align.Left),
		headerCell("Producto", 3, align.Left),
		headerCell("Cliente", 2, align.Left),
		headerCell("Talla", 2, align.Left),
		headerCell("Unid.", 1, align.Right),
		headerCell("Valor", 2, align.Right),
	)
}

func stockOutRows(movements []dto.MovementDTO) []core.Row {
	if len(movements) == 0 {
		return []core.Row{emptyRow()}
	}
	rows := make([]core.Row, 0, len(movements))
	for _, m := range movements {
		units, value := lineTotals(m.Lines)
		name, _ := productLabels(m)
		rows = append(rows, row.New(7).Add(
			cell(m.CreatedAt.Format("02/01/2006 15:04"), 2, align.Left),
			cell(name, 3, align.Left),
			cell(nonEmpty(m.Customer, "—"), 2, align.Left),
			cell(sizesLabel(m.Lines), 2, align.Left),
			cell(fmt.Sprintf("%d", units), 1, align.Right),
			cell(value.StringFixed(2), 2, align.Right),
		))
	}
	return rows
}

func totalsRow(s Summary) core.Row {
	return row.New(8).Add(
		col.New(9).Add(text.New(fmt.Sprintf("%d movimientos", s.Movements), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Color: colorGray,
		})),
		col.New(1).Add(text.New(fmt.Sprintf("%d", s.Units), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Right: 1,
		})),
		col.New(2).Add(text.New(s.Value.StringFixed(2), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 2, Right: 1,
		})),
	)
}

func emptyRow() core.Row {
	return row.New(7).Add(col.New(12).Add(text.New("Sin movimientos", props.Text{
		Size: 8, Style: fontstyle.Italic, Color: colorGray, Top: 1, Left: 1,
	})))
}

func footerRow() core.Row {
	return row.New(8).Add(col.New(12).Add(text.New(
		"Valores calculados con el MRP registrado en cada movimiento. Productos eliminados aparecen como \"(producto eliminado)\".",
		props.Text{Size: 7, Color: colorGray, Top: 2},
	)))
}

func productLabels(m dto.MovementDTO) (name, sku string) {
	if m.Product == nil {
		return "(producto eliminado)", "—"
	}
	return m.Product.Name, nonEmpty(m.Product.SKU, "—")
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
