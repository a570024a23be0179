package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/ingest"
	"github.com/jhoicas/pvp-api/internal/infrastructure/csvstore"
)

var _ ingest.PurchaseSheetReader = (*PurchaseReader)(nil)

// headerAliases nombres de columna aceptados (cabecera de purchases.csv o en castellano).
var headerAliases = map[string]string{
	"date": "date", "fecha": "date",
	"supplier": "supplier", "proveedor": "supplier",
	"invoice_no": "invoice_no", "factura": "invoice_no", "nº factura": "invoice_no",
	"ingredient": "ingredient", "ingrediente": "ingredient",
	"qty": "qty", "cantidad": "qty",
	"unit": "unit", "unidad": "unit",
	"total_cost_gross": "total_cost_gross", "total": "total_cost_gross", "total con iva": "total_cost_gross",
	"iva_rate": "iva_rate", "iva": "iva_rate",
	"notes": "notes", "notas": "notes",
}

// PurchaseReader lee la primera hoja de un libro de compras.
type PurchaseReader struct{}

// NewPurchaseReader construye el lector.
func NewPurchaseReader() *PurchaseReader { return &PurchaseReader{} }

// ReadPurchases devuelve las filas en el orden de la hoja. La primera fila es la cabecera;
// las filas vacías se saltan y los números mal formados quedan vacíos.
func (r *PurchaseReader) ReadPurchases(data []byte) ([]dto.PurchaseRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx: abrir libro: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx: el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx: leer hoja %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}
	if _, ok := cols["ingredient"]; !ok {
		return nil, fmt.Errorf("xlsx: falta la columna ingredient/ingrediente")
	}

	get := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []dto.PurchaseRow
	for _, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		out = append(out, dto.PurchaseRow{
			Date:           strings.TrimSpace(get(row, "date")),
			Supplier:       strings.TrimSpace(get(row, "supplier")),
			InvoiceNo:      strings.TrimSpace(get(row, "invoice_no")),
			Ingredient:     get(row, "ingredient"),
			Qty:            csvstore.ParseDecimal(get(row, "qty")),
			Unit:           get(row, "unit"),
			TotalCostGross: csvstore.ParseDecimal(get(row, "total_cost_gross")),
			IVARate:        csvstore.ParseDecimal(get(row, "iva_rate")),
			Notes:          get(row, "notes"),
		})
	}
	return out, nil
}
