package costing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SortBreakdowns ordena por (sección, nombre) de forma estable: los empates
// conservan el orden de entrada.
func SortBreakdowns(rows []PriceBreakdown) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})
}

// FormatMoney importe con 2 decimales y símbolo de moneda como sufijo ("1.68€").
// Un valor indefinido se muestra como cadena vacía.
func FormatMoney(v decimal.NullDecimal, symbol string) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2) + symbol
}

// FormatAmount igual que FormatMoney para importes siempre definidos.
func FormatAmount(v decimal.Decimal, symbol string) string {
	return FormatMoney(decimal.NewNullDecimal(v), symbol)
}

// FormatRate fracción como porcentaje entero: 0.65 → "65%".
func FormatRate(v decimal.Decimal) string {
	return v.Mul(hundred).StringFixed(0) + "%"
}

// MissingLabel texto de la columna "Faltan costes".
func MissingLabel(missing bool) string {
	if missing {
		return "Sí"
	}
	return ""
}
