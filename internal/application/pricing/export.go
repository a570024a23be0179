package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/domain/costing"
)

// PriceListDocument datos de una carta de precios exportable.
type PriceListDocument struct {
	Title       string
	Currency    string
	Overhead    decimal.Decimal
	GeneratedAt time.Time
	Rows        []costing.PriceBreakdown // ya ordenadas por sección y nombre
	Costs       []costing.EffectiveCostEntry
}

// PriceListRenderer puerto de salida: genera un fichero (xlsx, pdf) a partir de la carta.
type PriceListRenderer interface {
	Render(doc PriceListDocument) ([]byte, error)
	ContentType() string
	Extension() string
}

// Export fichero generado listo para descargar.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportPriceList calcula la carta y la entrega al renderer.
// Devuelve domain.ErrInsufficientData si no hay compras.
func (uc *UseCase) ExportPriceList(ctx context.Context, overhead decimal.NullDecimal, r PriceListRenderer) (*Export, error) {
	res, err := uc.Compute(ctx, overhead)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	body, err := r.Render(PriceListDocument{
		Title:       "PVP sugerido",
		Currency:    uc.cfg.CurrencySymbol,
		Overhead:    res.Overhead,
		GeneratedAt: now,
		Rows:        res.Rows,
		Costs:       res.Costs.Entries(),
	})
	if err != nil {
		return nil, fmt.Errorf("generar %s: %w", r.Extension(), err)
	}
	uc.log.Info().Str("format", r.Extension()).Int("bytes", len(body)).Msg("carta exportada")

	return &Export{
		Filename:    fmt.Sprintf("pvp_%s.%s", now.Format("20060102"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}
