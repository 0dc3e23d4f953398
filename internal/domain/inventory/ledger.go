package inventory

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// NormalizeSize limpia la talla para usarla como llave: recorta espacios y normaliza a NFC,
// de modo que "M" escrita con distintas secuencias Unicode caiga en la misma variante.
func NormalizeSize(size string) string {
	return norm.NFC.String(strings.TrimSpace(size))
}

// ReplayBalances reproduce los movimientos (ordenados por Seq) con la misma semántica de la
// proyección: cada delta se aplica con piso en 0. El resultado es la cantidad que la proyección
// debería tener por talla.
func ReplayBalances(movements []entity.StockMovement) map[string]int64 {
	balances := make(map[string]int64)
	for _, m := range movements {
		for _, l := range m.Lines {
			q := balances[l.Size] + l.Quantity
			if q < 0 {
				q = 0
			}
			balances[l.Size] = q
		}
	}
	return balances
}

// SizeQuantity par talla/cantidad agregado.
type SizeQuantity struct {
	Size     string
	Quantity int64
}

// AggregateBySize suma cantidades por talla conservando el orden de primera aparición.
// Se usa para validar ventas que repiten talla dentro del mismo lote.
func AggregateBySize(items []SizeQuantity) []SizeQuantity {
	idx := make(map[string]int, len(items))
	out := make([]SizeQuantity, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.Size]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[it.Size] = len(out)
		out = append(out, it)
	}
	return out
}

// Drift diferencia entre la proyección y la reproducción del libro para una talla.
type Drift struct {
	Size      string
	Expected  int64
	Projected int64
}

// Delta proyección menos esperado.
func (d Drift) Delta() int64 { return d.Projected - d.Expected }

// CompareProjection contrasta las variantes proyectadas con el saldo reproducido.
// Devuelve una entrada por talla presente en cualquiera de los dos lados, ordenada por talla.
func CompareProjection(variants []entity.Variant, expected map[string]int64) []Drift {
	seen := make(map[string]bool, len(variants))
	out := make([]Drift, 0, len(variants))
	for _, v := range variants {
		seen[v.Size] = true
		out = append(out, Drift{Size: v.Size, Expected: expected[v.Size], Projected: v.Quantity})
	}
	for size, q := range expected {
		if !seen[size] {
			out = append(out, Drift{Size: size, Expected: q})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out
}
