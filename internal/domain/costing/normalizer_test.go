package costing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pvp-api/internal/domain/costing"
	"github.com/jhoicas/pvp-api/internal/domain/entity"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func num(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func tomatePurchase() entity.Purchase {
	return entity.Purchase{
		Seq:            1,
		Supplier:       "Mercamadrid",
		Ingredient:     "Tomate",
		Qty:            num("10"),
		Unit:           "kg",
		TotalCostGross: num("21.0"),
		IVARate:        num("0.21"),
	}
}

// ── Normalización de claves ───────────────────────────────────────────────────

func TestNormalizeText_ColapsaEspaciosYMayusculas(t *testing.T) {
	assert.Equal(t, "tomate pera", costing.NormalizeText("  Tomate   Pera "))
	assert.Equal(t, "aceite de oliva", costing.NormalizeText("Aceite\tde \n Oliva"))
	assert.Equal(t, "", costing.NormalizeText("   "))
}

func TestNormalizeText_Idempotente(t *testing.T) {
	inputs := []string{"  Tomate   Pera ", "KG", "Queso  Manchego\t", "", "ya normal"}
	for _, in := range inputs {
		once := costing.NormalizeText(in)
		assert.Equal(t, once, costing.NormalizeText(once), "normalize(normalize(%q))", in)
	}
}

func TestNewKey_ColisionDeVariantes(t *testing.T) {
	assert.Equal(t, costing.NewKey("  Tomate   Pera ", " KG"), costing.NewKey("tomate pera", "kg"))
	assert.NotEqual(t, costing.NewKey("tomate", "kg"), costing.NewKey("tomate", "unit"))
}

// ── Escenarios de coste ───────────────────────────────────────────────────────

// Escenario 1: sin fila de merma, el coste efectivo es el coste neto (merma 1.0).
func TestBuildCostTable_Escenario1_SinMerma(t *testing.T) {
	table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, nil)
	require.Equal(t, 1, table.Len())

	e, ok := table.Lookup(costing.NewKey("tomate", "kg"))
	require.True(t, ok)
	require.True(t, e.UnitCostNet.Valid)
	require.True(t, e.EffectiveCost.Valid)
	assert.Equal(t, "1.7355", e.UnitCostNet.Decimal.StringFixed(4))
	assert.True(t, e.EffectiveCost.Decimal.Equal(e.UnitCostNet.Decimal), "sin merma effective == unit_cost_net")
	assert.Equal(t, costing.YieldDefault, e.YieldSource)
	assert.True(t, e.UsableYield.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, costing.IssueNone, e.Issue)
}

// Escenario 2: merma 0.8 definida con otra capitalización.
func TestBuildCostTable_Escenario2_ConMerma(t *testing.T) {
	yields := []entity.IngredientYield{{Ingredient: "tomate", Unit: "kg", UsableYield: num("0.8")}}
	table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, yields)

	e, ok := table.Lookup(costing.NewKey("Tomate", "KG"))
	require.True(t, ok)
	assert.Equal(t, costing.YieldFromTable, e.YieldSource)
	assert.Equal(t, "2.1694", e.EffectiveCost.Decimal.StringFixed(4))
}

func TestBuildCostTable_IVAPorDefecto(t *testing.T) {
	p := tomatePurchase()
	p.IVARate = decimal.NullDecimal{}
	p.TotalCostGross = num("11")

	table := costing.BuildCostTable([]entity.Purchase{p}, nil)
	cost, ok := table.EffectiveCost(costing.NewKey("tomate", "kg"))
	require.True(t, ok)
	// 11 / 1.10 / 10 = 1
	assert.Equal(t, "1.0000", cost.StringFixed(4))
}

// La compra insertada después gana aunque su fecha textual sea anterior.
func TestBuildCostTable_UltimaCompraGana(t *testing.T) {
	first := tomatePurchase()
	first.Date = "31/12/2025"
	second := tomatePurchase()
	second.Seq = 2
	second.Ingredient = "  TOMATE "
	second.Date = "01/01/2020"
	second.TotalCostGross = num("42.0")

	table := costing.BuildCostTable([]entity.Purchase{first, second}, nil)
	require.Equal(t, 1, table.Len(), "una sola entrada por clave normalizada")

	e, _ := table.Lookup(costing.NewKey("tomate", "kg"))
	assert.Equal(t, int64(2), e.SourceSeq)
	assert.Equal(t, "3.4711", e.UnitCostNet.Decimal.StringFixed(4))
}

func TestBuildCostTable_CantidadCeroNoFalla(t *testing.T) {
	p := tomatePurchase()
	p.Qty = num("0")

	table := costing.BuildCostTable([]entity.Purchase{p}, nil)
	require.Equal(t, 1, table.Len(), "la clave aparece aunque no tenga coste")

	e, _ := table.Lookup(costing.NewKey("tomate", "kg"))
	assert.False(t, e.UnitCostNet.Valid)
	assert.False(t, e.EffectiveCost.Valid)
	assert.Equal(t, costing.IssueInvalidQty, e.Issue)

	_, ok := table.EffectiveCost(costing.NewKey("tomate", "kg"))
	assert.False(t, ok)
}

func TestBuildCostTable_NumerosMalFormadosSinCoste(t *testing.T) {
	noQty := tomatePurchase()
	noQty.Qty = decimal.NullDecimal{}
	noTotal := tomatePurchase()
	noTotal.Ingredient = "cebolla"
	noTotal.TotalCostGross = decimal.NullDecimal{}
	badIVA := tomatePurchase()
	badIVA.Ingredient = "ajo"
	badIVA.IVARate = num("-1")

	table := costing.BuildCostTable([]entity.Purchase{noQty, noTotal, badIVA}, nil)
	require.Equal(t, 3, table.Len())

	issues := map[string]costing.CostIssue{}
	for _, e := range table.Entries() {
		assert.False(t, e.EffectiveCost.Valid, e.Key.String())
		issues[e.Key.Ingredient] = e.Issue
	}
	assert.Equal(t, costing.IssueInvalidQty, issues["tomate"])
	assert.Equal(t, costing.IssueInvalidTotal, issues["cebolla"])
	assert.Equal(t, costing.IssueInvalidIVA, issues["ajo"])
}

func TestBuildCostTable_AbonoConTotalNegativoSinCoste(t *testing.T) {
	abono := tomatePurchase()
	abono.TotalCostGross = num("-21")

	table := costing.BuildCostTable([]entity.Purchase{abono}, nil)
	e, ok := table.Lookup(costing.NewKey("tomate", "kg"))
	require.True(t, ok)
	assert.Equal(t, costing.IssueInvalidTotal, e.Issue)
	assert.False(t, e.UnitCostNet.Valid)
	assert.False(t, e.EffectiveCost.Valid, "un coste negativo no llega al PVP")
}

func TestBuildCostTable_MermaFueraDeRangoSeRechaza(t *testing.T) {
	for _, y := range []string{"0", "-0.5", "1.2"} {
		yields := []entity.IngredientYield{{Ingredient: "Tomate", Unit: "kg", UsableYield: num(y)}}
		table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, yields)

		e, ok := table.Lookup(costing.NewKey("tomate", "kg"))
		require.True(t, ok)
		assert.Equal(t, costing.YieldRejected, e.YieldSource, "merma %s", y)
		assert.Equal(t, costing.IssueInvalidYield, e.Issue, "merma %s", y)
		assert.True(t, e.UnitCostNet.Valid, "el coste neto sigue siendo calculable")
		assert.False(t, e.EffectiveCost.Valid, "merma %s", y)
	}
}

func TestBuildCostTable_MermaVaciaEquivaleASinFila(t *testing.T) {
	yields := []entity.IngredientYield{{Ingredient: "tomate", Unit: "kg"}}
	table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, yields)

	e, _ := table.Lookup(costing.NewKey("tomate", "kg"))
	assert.Equal(t, costing.YieldDefault, e.YieldSource)
	assert.True(t, e.EffectiveCost.Valid)
}

func TestBuildCostTable_MermaDuplicadaGanaLaUltima(t *testing.T) {
	yields := []entity.IngredientYield{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("0.5")},
		{Ingredient: " Tomate ", Unit: "KG", UsableYield: num("0.8")},
	}
	table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, yields)

	e, _ := table.Lookup(costing.NewKey("tomate", "kg"))
	assert.True(t, e.UsableYield.Equal(decimal.RequireFromString("0.8")))
}

func TestBuildCostTable_MermasSinCompraNoGeneranEntrada(t *testing.T) {
	yields := []entity.IngredientYield{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("0.8")},
		{Ingredient: "lubina", Unit: "kg", UsableYield: num("0.45")},
	}
	table := costing.BuildCostTable([]entity.Purchase{tomatePurchase()}, yields)

	assert.Equal(t, 1, table.Len())
	_, ok := table.Lookup(costing.NewKey("lubina", "kg"))
	assert.False(t, ok)
}

// Escenario 5 (primera mitad): histórico vacío → tabla vacía, sin error.
func TestBuildCostTable_HistoricoVacio(t *testing.T) {
	table := costing.BuildCostTable(nil, nil)
	require.NotNil(t, table)
	assert.True(t, table.Empty())
	assert.Empty(t, table.Entries())
}

func TestBuildCostTable_OrdenPorClave(t *testing.T) {
	purchases := []entity.Purchase{
		{Ingredient: "Tomate", Unit: "kg", Qty: num("1"), TotalCostGross: num("1")},
		{Ingredient: "Aceite", Unit: "L", Qty: num("1"), TotalCostGross: num("1")},
		{Ingredient: "Aceite", Unit: "garrafa", Qty: num("1"), TotalCostGross: num("1")},
	}
	entries := costing.BuildCostTable(purchases, nil).Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, costing.Key{Ingredient: "aceite", Unit: "garrafa"}, entries[0].Key)
	assert.Equal(t, costing.Key{Ingredient: "aceite", Unit: "l"}, entries[1].Key)
	assert.Equal(t, costing.Key{Ingredient: "tomate", Unit: "kg"}, entries[2].Key)
}

func TestBuildCostTable_Determinista(t *testing.T) {
	purchases := []entity.Purchase{tomatePurchase(), {
		Ingredient: "Queso", Unit: "kg", Qty: num("3"), TotalCostGross: num("40.5"), IVARate: num("0.10"),
	}}
	yields := []entity.IngredientYield{{Ingredient: "queso", Unit: "kg", UsableYield: num("0.9")}}

	a := costing.BuildCostTable(purchases, yields).Entries()
	b := costing.BuildCostTable(purchases, yields).Entries()
	assert.Equal(t, a, b)
}
