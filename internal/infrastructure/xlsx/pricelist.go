// Package xlsx exporta la carta de precios a Excel e importa hojas de compras con excelize.
package xlsx

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/domain/costing"
)

const (
	sheetPrices = "PVP"
	sheetCosts  = "Costes"
)

var (
	priceHeader = []string{
		"Sección", "Producto", "IVA", "Margen", "Coste ingredientes",
		"Overhead", "Coste total", "Precio sin IVA", "PVP", "Faltan costes",
	}
	costHeader = []string{"Ingrediente", "Unidad", "Coste neto", "Merma", "Coste efectivo", "Incidencia"}
)

var _ pricing.PriceListRenderer = (*PriceListWriter)(nil)

// PriceListWriter genera un libro con la hoja PVP y la hoja de costes efectivos.
type PriceListWriter struct{}

// NewPriceListWriter construye el exportador.
func NewPriceListWriter() *PriceListWriter { return &PriceListWriter{} }

// ContentType MIME de xlsx.
func (w *PriceListWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension extensión del fichero.
func (w *PriceListWriter) Extension() string { return "xlsx" }

// Render escribe el libro. Los importes indefinidos quedan como celdas vacías.
func (w *PriceListWriter) Render(doc pricing.PriceListDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetPrices); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	if _, err := f.NewSheet(sheetCosts); err != nil {
		return nil, fmt.Errorf("xlsx: crear hoja: %w", err)
	}

	st, err := newStyles(f, doc.Currency)
	if err != nil {
		return nil, err
	}
	if err := writePrices(f, st, doc.Rows); err != nil {
		return nil, err
	}
	if err := writeCosts(f, st, doc.Costs); err != nil {
		return nil, err
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   doc.Title,
		Created: doc.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

type styles struct {
	header, money, rate, cost int
}

func newStyles(f *excelize.File, currency string) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	}); err != nil {
		return s, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}
	moneyFmt := fmt.Sprintf(`0.00"%s"`, currency)
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return s, fmt.Errorf("xlsx: estilo importe: %w", err)
	}
	if s.rate, err = f.NewStyle(&excelize.Style{NumFmt: 9}); err != nil { // 0%
		return s, fmt.Errorf("xlsx: estilo porcentaje: %w", err)
	}
	costFmt := "0.0000"
	if s.cost, err = f.NewStyle(&excelize.Style{CustomNumFmt: &costFmt}); err != nil {
		return s, fmt.Errorf("xlsx: estilo coste: %w", err)
	}
	return s, nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx: cabecera %s: %w", sheet, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

// setNumber escribe un decimal como número con estilo; indefinido deja la celda vacía.
func setNumber(f *excelize.File, sheet string, col, row int, v decimal.NullDecimal, style int) error {
	if !v.Valid {
		return nil
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := f.SetCellFloat(sheet, cell, v.Decimal.InexactFloat64(), -1, 64); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func setText(f *excelize.File, sheet string, col, row int, s string) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return f.SetCellStr(sheet, cell, s)
}

func writePrices(f *excelize.File, st styles, rows []costing.PriceBreakdown) error {
	if err := writeHeader(f, sheetPrices, priceHeader, st.header); err != nil {
		return err
	}
	for i, r := range rows {
		n := i + 2
		nd := decimal.NewNullDecimal
		steps := []error{
			setText(f, sheetPrices, 1, n, r.Category),
			setText(f, sheetPrices, 2, n, r.DisplayName),
			setNumber(f, sheetPrices, 3, n, nd(r.IVA.Value), st.rate),
			setNumber(f, sheetPrices, 4, n, nd(r.Margin.Value), st.rate),
			setNumber(f, sheetPrices, 5, n, nd(r.CostIngredients), st.money),
			setNumber(f, sheetPrices, 6, n, nd(r.Overhead), st.money),
			setNumber(f, sheetPrices, 7, n, nd(r.CostTotal), st.money),
			setNumber(f, sheetPrices, 8, n, r.PriceExclTax, st.money),
			setNumber(f, sheetPrices, 9, n, r.PVP, st.money),
			setText(f, sheetPrices, 10, n, costing.MissingLabel(r.MissingCost)),
		}
		for _, err := range steps {
			if err != nil {
				return fmt.Errorf("xlsx: fila %d: %w", n, err)
			}
		}
	}
	if err := f.SetColWidth(sheetPrices, "A", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetPrices, "C", "J", 14); err != nil {
		return err
	}
	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(priceHeader), len(rows)+1)
		if err := f.AutoFilter(sheetPrices, "A1:"+last, nil); err != nil {
			return fmt.Errorf("xlsx: autofiltro: %w", err)
		}
	}
	return nil
}

func writeCosts(f *excelize.File, st styles, entries []costing.EffectiveCostEntry) error {
	if err := writeHeader(f, sheetCosts, costHeader, st.header); err != nil {
		return err
	}
	for i, e := range entries {
		n := i + 2
		steps := []error{
			setText(f, sheetCosts, 1, n, e.Key.Ingredient),
			setText(f, sheetCosts, 2, n, e.Key.Unit),
			setNumber(f, sheetCosts, 3, n, e.UnitCostNet, st.cost),
			setNumber(f, sheetCosts, 4, n, decimal.NewNullDecimal(e.UsableYield), st.rate),
			setNumber(f, sheetCosts, 5, n, e.EffectiveCost, st.cost),
			setText(f, sheetCosts, 6, n, string(e.Issue)),
		}
		for _, err := range steps {
			if err != nil {
				return fmt.Errorf("xlsx: coste fila %d: %w", n, err)
			}
		}
	}
	return f.SetColWidth(sheetCosts, "A", "F", 18)
}
