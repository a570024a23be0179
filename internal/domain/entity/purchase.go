package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultIVARate IVA aplicado cuando una compra o un producto no lo indican (10%).
var DefaultIVARate = decimal.RequireFromString("0.10")

// Purchase representa una línea de factura de compra (append-only).
// Qty, TotalCostGross e IVARate son NullDecimal: un valor ausente o mal formado
// llega como Valid=false y el motor de costes lo trata como "sin coste".
// El orden de llegada (Seq) es el que decide cuál compra es la más reciente;
// Date es texto libre y no se interpreta.
type Purchase struct {
	Seq            int64
	Supplier       string
	Date           string // texto libre, ej. "03/05/2025"
	InvoiceNo      string
	Ingredient     string
	Qty            decimal.NullDecimal
	Unit           string              // kg, L, unit...
	TotalCostGross decimal.NullDecimal // total de la línea con IVA
	IVARate        decimal.NullDecimal // fracción: 0.10, 0.21
	Notes          string
	CreatedAt      time.Time
}
