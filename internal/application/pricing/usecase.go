// Package pricing orquesta el cálculo de costes efectivos y PVP sobre las tablas de entrada.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/domain"
	"github.com/jhoicas/pvp-api/internal/domain/costing"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

// Config parámetros de presentación y límites del overhead.
type Config struct {
	CurrencySymbol  string
	DefaultOverhead decimal.Decimal
	MaxOverhead     decimal.Decimal
}

// UseCase casos de uso de consulta: tabla de costes, tabla de precios y exportaciones.
type UseCase struct {
	store repository.Store
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso. log puede ser nil.
func NewUseCase(store repository.Store, cfg Config, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "€"
	}
	return &UseCase{store: store, cfg: cfg, log: log.Component("pricing"), now: time.Now}
}

// Currency símbolo de moneda configurado.
func (uc *UseCase) Currency() string { return uc.cfg.CurrencySymbol }

// Result precios calculados y ya ordenados por (sección, nombre).
type Result struct {
	Overhead decimal.Decimal
	Rows     []costing.PriceBreakdown
	Costs    *costing.CostTable
}

// ResolveOverhead aplica el overhead por defecto si no viene y comprueba [0, MaxOverhead].
func (uc *UseCase) ResolveOverhead(o decimal.NullDecimal) (decimal.Decimal, error) {
	if !o.Valid {
		return uc.cfg.DefaultOverhead, nil
	}
	if o.Decimal.IsNegative() {
		return decimal.Zero, fmt.Errorf("overhead negativo: %w", domain.ErrInvalidInput)
	}
	if uc.cfg.MaxOverhead.IsPositive() && o.Decimal.GreaterThan(uc.cfg.MaxOverhead) {
		return decimal.Zero, fmt.Errorf("overhead %s supera el máximo %s: %w",
			o.Decimal, uc.cfg.MaxOverhead, domain.ErrInvalidInput)
	}
	return o.Decimal, nil
}

// costs lee compras y mermas y construye la tabla de costes efectivos.
func (uc *UseCase) costs(ctx context.Context) (*costing.CostTable, error) {
	purchases, err := uc.store.Purchases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer compras: %w", err)
	}
	yields, err := uc.store.Yields.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer mermas: %w", err)
	}
	table := costing.BuildCostTable(purchases, yields)
	uc.log.Debug().
		Int("purchases", len(purchases)).
		Int("yields", len(yields)).
		Int("cost_entries", table.Len()).
		Msg("tabla de costes recalculada")
	return table, nil
}

// CostTable devuelve el coste efectivo por (ingrediente, unidad).
// Sin compras responde Status insufficient_data y ninguna entrada.
func (uc *UseCase) CostTable(ctx context.Context) (*dto.CostTableResponse, error) {
	table, err := uc.costs(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.CostTableResponse{Status: dto.StatusOK, Entries: []dto.CostEntryResponse{}}
	if table.Empty() {
		resp.Status = dto.StatusInsufficientData
		resp.Message = domain.ErrInsufficientData.Error()
		return resp, nil
	}
	for _, e := range table.Entries() {
		resp.Entries = append(resp.Entries, dto.CostEntryResponse{
			Ingredient:    e.Key.Ingredient,
			Unit:          e.Key.Unit,
			SourceSeq:     e.SourceSeq,
			UnitCostNet:   e.UnitCostNet,
			UsableYield:   e.UsableYield,
			YieldSource:   string(e.YieldSource),
			EffectiveCost: e.EffectiveCost,
			Issue:         string(e.Issue),
		})
	}
	return resp, nil
}

// Compute calcula los precios de todos los productos con el overhead dado (nulo = por defecto).
// Devuelve domain.ErrInsufficientData si no hay compras registradas.
func (uc *UseCase) Compute(ctx context.Context, overhead decimal.NullDecimal) (*Result, error) {
	oh, err := uc.ResolveOverhead(overhead)
	if err != nil {
		return nil, err
	}
	table, err := uc.costs(ctx)
	if err != nil {
		return nil, err
	}
	if table.Empty() {
		uc.log.Info().Msg("sin compras registradas: no se calcula PVP")
		return nil, domain.ErrInsufficientData
	}

	recipes, err := uc.store.Recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer productos: %w", err)
	}
	lines, err := uc.store.RecipeLines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer escandallos: %w", err)
	}
	margins, err := uc.store.CategoryMargins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer márgenes: %w", err)
	}

	rows, err := costing.PriceRecipes(costing.PricingInput{
		Recipes:         recipes,
		Lines:           lines,
		Costs:           table,
		CategoryMargins: margins,
		Overhead:        oh,
	})
	if err != nil {
		return nil, err
	}
	costing.SortBreakdowns(rows)

	missing, malformed := 0, 0
	for _, r := range rows {
		if r.MissingCost {
			missing++
		}
		if r.Margin.Malformed {
			malformed++
			uc.log.Warn().Str("item_key", r.ItemKey).Msg("target_margin no numérico: se usa el margen de sección o por defecto")
		}
	}
	uc.log.Info().
		Int("recipes", len(rows)).
		Int("missing_cost", missing).
		Int("malformed_margin", malformed).
		Str("overhead", oh.String()).
		Msg("tabla de precios calculada")

	return &Result{Overhead: oh, Rows: rows, Costs: table}, nil
}

// PriceTable tabla de PVP sugerido con importes numéricos y formateados.
func (uc *UseCase) PriceTable(ctx context.Context, overhead decimal.NullDecimal) (*dto.PriceTableResponse, error) {
	res, err := uc.Compute(ctx, overhead)
	if errors.Is(err, domain.ErrInsufficientData) {
		oh, _ := uc.ResolveOverhead(overhead)
		return &dto.PriceTableResponse{
			Status:   dto.StatusInsufficientData,
			Message:  domain.ErrInsufficientData.Error(),
			Currency: uc.cfg.CurrencySymbol,
			Overhead: oh,
			Rows:     []dto.PriceRowResponse{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.PriceTableResponse{
		Status:   dto.StatusOK,
		Currency: uc.cfg.CurrencySymbol,
		Overhead: res.Overhead,
		Rows:     make([]dto.PriceRowResponse, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		resp.Rows = append(resp.Rows, toPriceRow(r, uc.cfg.CurrencySymbol))
	}
	return resp, nil
}

func toPriceRow(r costing.PriceBreakdown, currency string) dto.PriceRowResponse {
	var missing []string
	for _, k := range r.MissingLines {
		missing = append(missing, k.String())
	}
	return dto.PriceRowResponse{
		ItemKey:         r.ItemKey,
		Category:        r.Category,
		DisplayName:     r.DisplayName,
		IVA:             r.IVA.Value,
		IVASource:       string(r.IVA.Source),
		Margin:          r.Margin.Value,
		MarginSource:    string(r.Margin.Source),
		MarginMalformed: r.Margin.Malformed,
		CostIngredients: r.CostIngredients,
		Overhead:        r.Overhead,
		CostTotal:       r.CostTotal,
		PriceExclTax:    r.PriceExclTax,
		PVP:             r.PVP,
		MissingCost:     r.MissingCost,
		MissingLines:    missing,
		Display: dto.PriceRowDisplay{
			IVA:             costing.FormatRate(r.IVA.Value),
			Margin:          costing.FormatRate(r.Margin.Value),
			CostIngredients: costing.FormatAmount(r.CostIngredients, currency),
			Overhead:        costing.FormatAmount(r.Overhead, currency),
			CostTotal:       costing.FormatAmount(r.CostTotal, currency),
			PriceExclTax:    costing.FormatMoney(r.PriceExclTax, currency),
			PVP:             costing.FormatMoney(r.PVP, currency),
			MissingCost:     costing.MissingLabel(r.MissingCost),
		},
	}
}
