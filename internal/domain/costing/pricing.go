package costing

import (
	"fmt"
	"strings"

	"github.com/jhoicas/pvp-api/internal/domain"
	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultMargin margen cuando ni el producto ni su sección lo definen (70%).
var DefaultMargin = decimal.RequireFromString("0.70")

// MarginSource qué regla de la cadena de márgenes se aplicó.
type MarginSource string

const (
	MarginExplicit MarginSource = "explicit" // override del producto
	MarginCategory MarginSource = "category" // margen de la sección
	MarginDefault  MarginSource = "default"  // DefaultMargin
)

// RateSource origen del IVA aplicado a un producto.
type RateSource string

const (
	RateExplicit RateSource = "explicit"
	RateDefault  RateSource = "default"
)

// ResolvedMargin margen efectivo y la regla que lo produjo.
// Malformed indica que el producto traía un override no numérico que se descartó.
type ResolvedMargin struct {
	Value     decimal.Decimal
	Source    MarginSource
	Malformed bool
}

// ResolvedRate IVA efectivo de un producto.
type ResolvedRate struct {
	Value  decimal.Decimal
	Source RateSource
}

// CategoryMargins márgenes por sección. Se construye con NewCategoryMargins.
type CategoryMargins map[string]decimal.Decimal

// NewCategoryMargins indexa la tabla de márgenes por sección: las filas con margen
// nulo se ignoran y, si una sección se repite, gana la última.
func NewCategoryMargins(rows []entity.CategoryMargin) CategoryMargins {
	cm := make(CategoryMargins, len(rows))
	for _, r := range rows {
		if !r.TargetMargin.Valid {
			continue
		}
		cm[strings.TrimSpace(r.Category)] = r.TargetMargin.Decimal
	}
	return cm
}

// ResolveMargin aplica la cadena: override del producto → sección → 70%.
func ResolveMargin(r entity.Recipe, cm CategoryMargins) ResolvedMargin {
	var malformed bool
	if raw := strings.TrimSpace(r.TargetMargin); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err == nil {
			return ResolvedMargin{Value: v, Source: MarginExplicit}
		}
		malformed = true
	}
	if v, ok := cm[strings.TrimSpace(r.Category)]; ok {
		return ResolvedMargin{Value: v, Source: MarginCategory, Malformed: malformed}
	}
	return ResolvedMargin{Value: DefaultMargin, Source: MarginDefault, Malformed: malformed}
}

// ResolveIVA IVA del producto o 10% por defecto.
func ResolveIVA(r entity.Recipe) ResolvedRate {
	if r.IVARate.Valid {
		return ResolvedRate{Value: r.IVARate.Decimal, Source: RateExplicit}
	}
	return ResolvedRate{Value: entity.DefaultIVARate, Source: RateDefault}
}

// PricingInput entradas del motor de precios. Costs es obligatorio.
type PricingInput struct {
	Recipes         []entity.Recipe
	Lines           []entity.RecipeLine
	Costs           *CostTable
	CategoryMargins []entity.CategoryMargin
	Overhead        decimal.Decimal // importe fijo por ración, >= 0
}

// PriceBreakdown desglose de precio de un producto.
// PriceExclTax y PVP son inválidos cuando el margen es >= 1 (precio no calculable).
type PriceBreakdown struct {
	ItemKey         string
	Category        string
	DisplayName     string
	IVA             ResolvedRate
	Margin          ResolvedMargin
	CostIngredients decimal.Decimal
	Overhead        decimal.Decimal
	CostTotal       decimal.Decimal
	PriceExclTax    decimal.NullDecimal
	PVP             decimal.NullDecimal
	MissingCost     bool
	MissingLines    []Key // líneas del escandallo sin coste, en orden de aparición
}

// PriceRecipes calcula un PriceBreakdown por producto, en el orden de entrada.
//
//	cost_total = cost_ingredients + overhead
//	price_excl = cost_total / (1 - margin)   sólo si margin < 1
//	pvp        = price_excl * (1 + iva)
//
// Errores: domain.ErrMissingInput si falta la tabla de costes, domain.ErrInvalidInput
// si el overhead es negativo y domain.ErrInsufficientData si no hay ninguna compra.
// Los problemas por fila (líneas sin coste, margen >= 1, margen mal formado) nunca
// son error: quedan marcados en la propia fila.
func PriceRecipes(in PricingInput) ([]PriceBreakdown, error) {
	if in.Costs == nil {
		return nil, fmt.Errorf("costing: tabla de costes: %w", domain.ErrMissingInput)
	}
	if in.Overhead.IsNegative() {
		return nil, fmt.Errorf("costing: overhead %s negativo: %w", in.Overhead, domain.ErrInvalidInput)
	}
	if in.Costs.Empty() {
		return nil, domain.ErrInsufficientData
	}

	type bomLine struct {
		key Key
		qty decimal.NullDecimal
	}
	linesByItem := make(map[string][]bomLine, len(in.Recipes))
	for _, l := range in.Lines {
		linesByItem[l.ItemKey] = append(linesByItem[l.ItemKey], bomLine{
			key: NewKey(l.Ingredient, l.Unit),
			qty: l.QtyPerPortion,
		})
	}
	margins := NewCategoryMargins(in.CategoryMargins)

	out := make([]PriceBreakdown, 0, len(in.Recipes))
	for _, r := range in.Recipes {
		b := PriceBreakdown{
			ItemKey:         r.ItemKey,
			Category:        r.Category,
			DisplayName:     r.DisplayName,
			IVA:             ResolveIVA(r),
			Margin:          ResolveMargin(r, margins),
			CostIngredients: decimal.Zero,
			Overhead:        in.Overhead,
		}
		for _, l := range linesByItem[r.ItemKey] {
			cost, ok := in.Costs.EffectiveCost(l.key)
			if !ok || !l.qty.Valid {
				b.MissingCost = true
				b.MissingLines = append(b.MissingLines, l.key)
				continue
			}
			b.CostIngredients = b.CostIngredients.Add(cost.Mul(l.qty.Decimal))
		}
		b.CostTotal = b.CostIngredients.Add(in.Overhead)
		b.PriceExclTax, b.PVP = derivePrice(b.CostTotal, b.Margin.Value, b.IVA.Value)
		out = append(out, b)
	}
	return out, nil
}

// derivePrice precio sin IVA y PVP; ambos indefinidos si 1 - margin <= 0.
func derivePrice(costTotal, margin, iva decimal.Decimal) (priceExcl, pvp decimal.NullDecimal) {
	denom := one.Sub(margin)
	if !denom.IsPositive() {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	p := costTotal.Div(denom)
	return decimal.NewNullDecimal(p), decimal.NewNullDecimal(p.Mul(one.Add(iva)))
}
