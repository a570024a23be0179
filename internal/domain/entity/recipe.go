package entity

import "github.com/shopspring/decimal"

// Recipe producto de la carta (una fila por item_key).
// TargetMargin guarda el texto tal como se editó: vacío = sin override,
// un texto no numérico se ignora y se usa el margen de la sección.
type Recipe struct {
	ItemKey      string
	Category     string // sección de la carta
	DisplayName  string
	IVARate      decimal.NullDecimal
	TargetMargin string
}

// RecipeLine línea de escandallo (BOM): cantidad de ingrediente por ración.
type RecipeLine struct {
	ItemKey       string
	Ingredient    string
	Unit          string
	QtyPerPortion decimal.NullDecimal
}
