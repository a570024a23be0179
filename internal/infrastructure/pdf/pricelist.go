// Package pdf genera la carta de precios en PDF (maroto) y extrae el texto de
// facturas en PDF (pdfcpu) para sugerir el IVA.
//
// Layout de la carta, A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título  │  Fecha + overhead por ración             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SECCIÓN (una banda por categoría)                          │
//	│  Producto | IVA | Margen | Coste | Sin IVA | PVP | Falta    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: leyenda de costes incompletos                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/domain/costing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWarn    = &props.Color{Red: 170, Green: 60, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ pricing.PriceListRenderer = (*MarotoPriceList)(nil)

// MarotoPriceList implementa pricing.PriceListRenderer usando Maroto v2.
type MarotoPriceList struct{}

// NewMarotoPriceList construye el generador.
func NewMarotoPriceList() *MarotoPriceList { return &MarotoPriceList{} }

// ContentType MIME del documento.
func (g *MarotoPriceList) ContentType() string { return "application/pdf" }

// Extension extensión del fichero.
func (g *MarotoPriceList) Extension() string { return "pdf" }

// Render genera el PDF y devuelve sus bytes. Las filas ya vienen ordenadas por sección.
func (g *MarotoPriceList) Render(doc pricing.PriceListDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	missing := false
	current := ""
	for i, r := range doc.Rows {
		if i == 0 || r.Category != current {
			current = r.Category
			m.AddRows(line.NewRow(3))
			m.AddRows(sectionRow(current))
			m.AddRows(tableHeaderRow())
		}
		m.AddRows(priceRow(r, doc.Currency))
		missing = missing || r.MissingCost
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(missing))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y fecha + overhead (der).
func headerRow(doc pricing.PriceListDocument) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(doc.Title, props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New("Generado: "+doc.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New("Overhead por ración: "+costing.FormatAmount(doc.Overhead, doc.Currency), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

// sectionRow: banda con el nombre de la sección.
func sectionRow(category string) core.Row {
	label := category
	if label == "" {
		label = "Sin sección"
	}
	return row.New(7).Add(col.New(12).Add(
		text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 1,
		}),
	))
}

// tableHeaderRow: cabecera de columnas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Color: colorGray, Top: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("Producto", 4, align.Left),
		h("IVA", 1, align.Center),
		h("Margen", 1, align.Center),
		h("Coste", 2, align.Right),
		h("Sin IVA", 2, align.Right),
		h("PVP", 1, align.Right),
		h("", 1, align.Center),
	)
}

// priceRow: una fila por producto. PVP indefinido se muestra vacío.
func priceRow(r costing.PriceBreakdown, currency string) core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Right: 1}))
	}
	flag := col.New(1)
	if r.MissingCost {
		flag = col.New(1).Add(text.New("*", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Center, Color: colorWarn,
		}))
	}
	return row.New(6).Add(
		cell(r.DisplayName, 4, align.Left),
		cell(costing.FormatRate(r.IVA.Value), 1, align.Center),
		cell(costing.FormatRate(r.Margin.Value), 1, align.Center),
		cell(costing.FormatAmount(r.CostTotal, currency), 2, align.Right),
		cell(costing.FormatMoney(r.PriceExclTax, currency), 2, align.Right),
		col.New(1).Add(text.New(costing.FormatMoney(r.PVP, currency), props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1,
		})),
		flag,
	)
}

// footerRow: leyenda de los productos marcados.
func footerRow(missing bool) core.Row {
	msg := "Precios calculados con el último coste de compra ajustado por merma."
	if missing {
		msg += " (*) Faltan costes de algún ingrediente: el PVP está infravalorado."
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	))
}
