// Package ingest procesa ficheros subidos por el personal: facturas en PDF
// (sugerencia de IVA) y hojas de compras en xlsx.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/domain"
	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

// TextExtractor extrae el texto de un PDF.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}

// PurchaseSheetReader lee filas de compra de una hoja de cálculo.
type PurchaseSheetReader interface {
	ReadPurchases(data []byte) ([]dto.PurchaseRow, error)
}

// PurchaseAppender destino de las compras importadas (tables.UseCase).
type PurchaseAppender interface {
	AppendPurchases(ctx context.Context, rows []dto.PurchaseRow) (int, error)
}

// Marcadores de IVA buscados en el texto de la factura, por orden de prioridad.
var ivaMarkers = []struct {
	marker string
	rate   decimal.Decimal
}{
	{"21%", decimal.RequireFromString("0.21")},
	{"10%", decimal.RequireFromString("0.10")},
}

// UseCase casos de uso de ingesta.
type UseCase struct {
	pdf      TextExtractor
	sheets   PurchaseSheetReader
	appender PurchaseAppender
	log      *logger.Logger
}

// NewUseCase construye el caso de uso. Cualquier dependencia puede ser nil si no se usa.
func NewUseCase(pdf TextExtractor, sheets PurchaseSheetReader, appender PurchaseAppender, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{pdf: pdf, sheets: sheets, appender: appender, log: log.Component("ingest")}
}

// SuggestIVA propone el IVA de una factura. Sólo se leen PDFs; si el texto contiene
// "21%" se propone 0.21, si no y contiene "10%" 0.10, y en otro caso el 10% por defecto.
// Un PDF ilegible no es error: se registra y se devuelve el valor por defecto.
func (uc *UseCase) SuggestIVA(ctx context.Context, filename string, data []byte) dto.TaxHintResponse {
	resp := dto.TaxHintResponse{SuggestedIVA: entity.DefaultIVARate}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") || uc.pdf == nil {
		return resp
	}

	text, err := uc.pdf.ExtractText(ctx, data)
	if err != nil {
		uc.log.Warn().Err(err).Str("file", filename).Msg("no se pudo leer el PDF: IVA por defecto")
		return resp
	}
	resp.Extracted = true
	for _, m := range ivaMarkers {
		if strings.Contains(text, m.marker) {
			resp.SuggestedIVA = m.rate
			resp.Matched = m.marker
			break
		}
	}
	uc.log.Debug().Str("file", filename).Str("matched", resp.Matched).Msg("IVA sugerido")
	return resp
}

// ImportPurchases lee una hoja de compras y la añade al histórico en el orden de la hoja.
// Las filas sin iva_rate reciben el IVA indicado (si viene).
func (uc *UseCase) ImportPurchases(ctx context.Context, filename string, data []byte, iva decimal.NullDecimal) (int, error) {
	if uc.sheets == nil || uc.appender == nil {
		return 0, fmt.Errorf("importación de hojas no configurada: %w", domain.ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return 0, fmt.Errorf("%s: se espera un .xlsx: %w", filename, domain.ErrInvalidInput)
	}
	rows, err := uc.sheets.ReadPurchases(data)
	if err != nil {
		return 0, fmt.Errorf("leer %s: %w", filename, err)
	}
	for i := range rows {
		if !rows[i].IVARate.Valid {
			rows[i].IVARate = iva
		}
	}
	n, err := uc.appender.AppendPurchases(ctx, rows)
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("file", filename).Int("rows", n).Msg("compras importadas")
	return n, nil
}
