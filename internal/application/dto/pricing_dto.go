package dto

import "github.com/shopspring/decimal"

// Estados de las respuestas de cálculo.
const (
	StatusOK               = "ok"
	StatusInsufficientData = "insufficient_data"
)

// CostEntryResponse coste efectivo de un (ingrediente, unidad).
// Los importes indefinidos se serializan como null.
type CostEntryResponse struct {
	Ingredient    string              `json:"ingredient"`
	Unit          string              `json:"unit"`
	SourceSeq     int64               `json:"source_seq"`
	UnitCostNet   decimal.NullDecimal `json:"unit_cost_net"`
	UsableYield   decimal.Decimal     `json:"usable_yield"`
	YieldSource   string              `json:"yield_source"`
	EffectiveCost decimal.NullDecimal `json:"effective_cost"`
	Issue         string              `json:"issue,omitempty"`
}

// CostTableResponse respuesta de GET /api/costs.
type CostTableResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Entries []CostEntryResponse `json:"entries"`
}

// PriceRowDisplay valores ya formateados como en la tabla de la carta ("1.68€", "65%").
type PriceRowDisplay struct {
	IVA             string `json:"iva"`
	Margin          string `json:"margin"`
	CostIngredients string `json:"cost_ingredients"`
	Overhead        string `json:"overhead"`
	CostTotal       string `json:"cost_total"`
	PriceExclTax    string `json:"price_excl_tax"`
	PVP             string `json:"pvp"`
	MissingCost     string `json:"missing_cost"`
}

// PriceRowResponse desglose de precio de un producto.
type PriceRowResponse struct {
	ItemKey         string              `json:"item_key"`
	Category        string              `json:"category"`
	DisplayName     string              `json:"display_name"`
	IVA             decimal.Decimal     `json:"iva"`
	IVASource       string              `json:"iva_source"`
	Margin          decimal.Decimal     `json:"margin"`
	MarginSource    string              `json:"margin_source"`
	MarginMalformed bool                `json:"margin_malformed,omitempty"`
	CostIngredients decimal.Decimal     `json:"cost_ingredients"`
	Overhead        decimal.Decimal     `json:"overhead"`
	CostTotal       decimal.Decimal     `json:"cost_total"`
	PriceExclTax    decimal.NullDecimal `json:"price_excl_tax"`
	PVP             decimal.NullDecimal `json:"pvp"`
	MissingCost     bool                `json:"missing_cost"`
	MissingLines    []string            `json:"missing_lines,omitempty"`
	Display         PriceRowDisplay     `json:"display"`
}

// PriceTableResponse respuesta de GET /api/pricing. Con Status insufficient_data
// Rows va vacío y Message explica que faltan compras.
type PriceTableResponse struct {
	Status   string             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Currency string             `json:"currency"`
	Overhead decimal.Decimal    `json:"overhead"`
	Rows     []PriceRowResponse `json:"rows"`
}

// TaxHintResponse IVA sugerido a partir de un PDF de factura.
type TaxHintResponse struct {
	SuggestedIVA decimal.Decimal `json:"suggested_iva"`
	Matched      string          `json:"matched,omitempty"` // marcador encontrado ("21%", "10%"); vacío = por defecto
	Extracted    bool            `json:"extracted"`         // false si no se pudo leer el texto del PDF
}
