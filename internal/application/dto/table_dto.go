package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRow una compra tal como se da de alta o se lista.
// Los números aceptan JSON numérico o texto ("10", 10); null = vacío.
type PurchaseRow struct {
	Seq            int64               `json:"seq,omitempty"`
	Supplier       string              `json:"supplier"`
	Date           string              `json:"date"`
	InvoiceNo      string              `json:"invoice_no"`
	Ingredient     string              `json:"ingredient" validate:"notblank"`
	Qty            decimal.NullDecimal `json:"qty" validate:"required,gte=0"`
	Unit           string              `json:"unit" validate:"notblank"`
	TotalCostGross decimal.NullDecimal `json:"total_cost_gross" validate:"required,gte=0"`
	IVARate        decimal.NullDecimal `json:"iva_rate" validate:"omitempty,gte=0,lte=0.3"`
	Notes          string              `json:"notes"`
	CreatedAt      *time.Time          `json:"created_at,omitempty"`
}

// AppendPurchasesRequest cuerpo de POST /api/purchases.
type AppendPurchasesRequest struct {
	Rows []PurchaseRow `json:"rows"`
}

// PurchaseListResponse página del histórico de compras (orden de inserción).
type PurchaseListResponse struct {
	Rows []PurchaseRow `json:"rows"`
	Page PageResponse  `json:"page"`
}

// YieldRow fila de la tabla de mermas.
type YieldRow struct {
	Ingredient  string              `json:"ingredient" validate:"notblank"`
	Unit        string              `json:"unit" validate:"notblank"`
	UsableYield decimal.NullDecimal `json:"usable_yield" validate:"omitempty,gt=0,lte=1"`
}

// RecipeRow producto de la carta. TargetMargin es texto libre: vacío = sin override.
type RecipeRow struct {
	ItemKey      string              `json:"item_key" validate:"notblank"`
	Category     string              `json:"category"`
	DisplayName  string              `json:"display_name"`
	IVARate      decimal.NullDecimal `json:"iva_rate" validate:"omitempty,gte=0,lte=0.3"`
	TargetMargin string              `json:"target_margin"`
}

// RecipeLineRow línea de escandallo.
type RecipeLineRow struct {
	ItemKey       string              `json:"item_key" validate:"notblank"`
	Ingredient    string              `json:"ingredient" validate:"notblank"`
	Unit          string              `json:"unit" validate:"notblank"`
	QtyPerPortion decimal.NullDecimal `json:"qty_per_portion" validate:"omitempty,gte=0"`
}

// CategoryMarginRow margen objetivo de una sección.
type CategoryMarginRow struct {
	Category     string              `json:"category" validate:"notblank"`
	TargetMargin decimal.NullDecimal `json:"target_margin" validate:"omitempty,gte=0,lt=1"`
}

// TableRequest cuerpo de los PUT que sobrescriben una tabla completa.
type TableRequest[T any] struct {
	Rows []T `json:"rows"`
}

// TableResponse listado de una tabla completa.
type TableResponse[T any] struct {
	Rows []T `json:"rows"`
}

// FieldError detalle de validación por fila y campo.
type FieldError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse cuerpo 400 con errores por campo.
type ValidationErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields"`
}
