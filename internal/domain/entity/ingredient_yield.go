package entity

import "github.com/shopspring/decimal"

// IngredientYield fracción aprovechable (merma) de un ingrediente por unidad de compra.
// UsableYield debe estar en (0, 1]; si se repite la clave gana la última fila.
type IngredientYield struct {
	Ingredient  string
	Unit        string
	UsableYield decimal.NullDecimal
}
