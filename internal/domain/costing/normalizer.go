package costing

import (
	"sort"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// YieldSource indica de dónde sale la merma aplicada a una entrada de coste.
type YieldSource string

const (
	YieldFromTable YieldSource = "table"    // fila de mermas válida
	YieldDefault   YieldSource = "default"  // sin fila (o fila vacía): 1.0
	YieldRejected  YieldSource = "rejected" // fuera de (0, 1]: coste efectivo indefinido
)

// CostIssue motivo por el que una entrada no tiene coste definido.
type CostIssue string

const (
	IssueNone         CostIssue = ""
	IssueInvalidQty   CostIssue = "invalid_qty"   // cantidad ausente, cero, negativa o mal formada
	IssueInvalidTotal CostIssue = "invalid_total" // total ausente, negativo o mal formado
	IssueInvalidIVA   CostIssue = "invalid_iva"   // 1 + IVA <= 0
	IssueInvalidYield CostIssue = "invalid_yield" // merma fuera de (0, 1]
)

// EffectiveCostEntry coste efectivo de una clave (ingrediente, unidad).
// UnitCostNet y EffectiveCost son inválidos (Valid=false) cuando no se pueden calcular.
type EffectiveCostEntry struct {
	Key           Key
	SourceSeq     int64 // Seq de la compra elegida (la última en llegar)
	UnitCostNet   decimal.NullDecimal
	UsableYield   decimal.Decimal
	YieldSource   YieldSource
	EffectiveCost decimal.NullDecimal
	Issue         CostIssue
}

// CostTable tabla de costes efectivos, una entrada por clave presente en las compras.
// Es una vista derivada de solo lectura: se recalcula entera en cada invocación.
type CostTable struct {
	entries []EffectiveCostEntry
	index   map[Key]int
}

// Len número de claves.
func (t *CostTable) Len() int { return len(t.entries) }

// Empty true si no hay ninguna compra registrada.
func (t *CostTable) Empty() bool { return len(t.entries) == 0 }

// Entries copia de las entradas ordenadas por (ingrediente, unidad).
func (t *CostTable) Entries() []EffectiveCostEntry {
	out := make([]EffectiveCostEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup devuelve la entrada de la clave, tenga o no coste definido.
func (t *CostTable) Lookup(k Key) (EffectiveCostEntry, bool) {
	i, ok := t.index[k]
	if !ok {
		return EffectiveCostEntry{}, false
	}
	return t.entries[i], true
}

// EffectiveCost devuelve el coste efectivo sólo si existe y está definido.
func (t *CostTable) EffectiveCost(k Key) (decimal.Decimal, bool) {
	e, ok := t.Lookup(k)
	if !ok || !e.EffectiveCost.Valid {
		return decimal.Zero, false
	}
	return e.EffectiveCost.Decimal, true
}

// BuildCostTable normaliza el histórico de compras y las mermas en la tabla de costes.
//
// Para cada clave sólo cuenta la compra con mayor posición en el slice (última insertada);
// el texto de la fecha no se usa para ordenar.
//
//	unit_cost_net  = total_cost_gross / (1 + iva_rate) / qty
//	effective_cost = unit_cost_net / usable_yield
//
// Nunca falla: los datos numéricos inválidos dejan la entrada sin coste y anotan Issue.
// Un histórico vacío produce una tabla vacía.
func BuildCostTable(purchases []entity.Purchase, yields []entity.IngredientYield) *CostTable {
	latest := make(map[Key]int, len(purchases))
	for i, p := range purchases {
		latest[NewKey(p.Ingredient, p.Unit)] = i
	}

	yieldByKey := make(map[Key]decimal.NullDecimal, len(yields))
	for _, y := range yields {
		yieldByKey[NewKey(y.Ingredient, y.Unit)] = y.UsableYield
	}

	keys := make([]Key, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	t := &CostTable{
		entries: make([]EffectiveCostEntry, 0, len(keys)),
		index:   make(map[Key]int, len(keys)),
	}
	for _, k := range keys {
		p := purchases[latest[k]]
		entry := EffectiveCostEntry{Key: k, SourceSeq: p.Seq}
		entry.UnitCostNet, entry.Issue = unitCostNet(p)
		entry.UsableYield, entry.YieldSource = resolveYield(yieldByKey, k)

		switch {
		case entry.YieldSource == YieldRejected:
			if entry.Issue == IssueNone {
				entry.Issue = IssueInvalidYield
			}
		case entry.UnitCostNet.Valid:
			entry.EffectiveCost = decimal.NewNullDecimal(entry.UnitCostNet.Decimal.Div(entry.UsableYield))
		}

		t.index[k] = len(t.entries)
		t.entries = append(t.entries, entry)
	}
	return t
}

// UnitCostNet coste neto (sin IVA) por unidad de una compra; inválido si no es calculable.
func UnitCostNet(p entity.Purchase) decimal.NullDecimal {
	c, _ := unitCostNet(p)
	return c
}

func unitCostNet(p entity.Purchase) (decimal.NullDecimal, CostIssue) {
	if !p.Qty.Valid || !p.Qty.Decimal.IsPositive() {
		return decimal.NullDecimal{}, IssueInvalidQty
	}
	if !p.TotalCostGross.Valid || p.TotalCostGross.Decimal.IsNegative() {
		return decimal.NullDecimal{}, IssueInvalidTotal
	}
	iva := entity.DefaultIVARate
	if p.IVARate.Valid {
		iva = p.IVARate.Decimal
	}
	divisor := one.Add(iva)
	if !divisor.IsPositive() {
		return decimal.NullDecimal{}, IssueInvalidIVA
	}
	return decimal.NewNullDecimal(p.TotalCostGross.Decimal.Div(divisor).Div(p.Qty.Decimal)), IssueNone
}

// resolveYield merma de la clave: sin fila o vacía → 1.0; fuera de (0, 1] → rechazada.
func resolveYield(yields map[Key]decimal.NullDecimal, k Key) (decimal.Decimal, YieldSource) {
	y, ok := yields[k]
	if !ok || !y.Valid {
		return one, YieldDefault
	}
	if !y.Decimal.IsPositive() || y.Decimal.GreaterThan(one) {
		return y.Decimal, YieldRejected
	}
	return y.Decimal, YieldFromTable
}
