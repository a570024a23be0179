package entity

import "github.com/shopspring/decimal"

// CategoryMargin margen objetivo por sección de la carta (fracción en [0,1)).
// Un TargetMargin nulo no aporta margen para esa sección.
type CategoryMargin struct {
	Category     string
	TargetMargin decimal.NullDecimal
}
