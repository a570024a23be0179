// Package tables mantiene las tablas de entrada: histórico de compras (sólo alta)
// y mermas, productos, escandallos y márgenes (sobrescritura completa).
package tables

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

// UseCase casos de uso de edición de tablas.
type UseCase struct {
	store repository.Store
	log   *logger.Logger
}

// NewUseCase construye el caso de uso. log puede ser nil.
func NewUseCase(store repository.Store, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{store: store, log: log.Component("tables")}
}

// ── Compras ──────────────────────────────────────────────────────────────────

// ListPurchases página del histórico en orden de inserción.
func (uc *UseCase) ListPurchases(ctx context.Context, page dto.PageRequest) (*dto.PurchaseListResponse, error) {
	v := &rowErrors{}
	v.check(-1, page)
	if err := v.err(); err != nil {
		return nil, err
	}
	page.DefaultPage()
	all, err := uc.store.Purchases.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.PurchaseListResponse{
		Rows: []dto.PurchaseRow{},
		Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(all)},
	}
	if page.Offset >= len(all) {
		return resp, nil
	}
	end := min(page.Offset+page.Limit, len(all))
	for _, p := range all[page.Offset:end] {
		resp.Rows = append(resp.Rows, toPurchaseRow(p))
	}
	return resp, nil
}

// AppendPurchases valida y añade compras al final del histórico.
func (uc *UseCase) AppendPurchases(ctx context.Context, rows []dto.PurchaseRow) (int, error) {
	if len(rows) == 0 {
		return 0, newValidationError(dto.FieldError{Row: -1, Field: "rows", Message: "al menos una compra"})
	}
	v := &rowErrors{}
	purchases := make([]entity.Purchase, 0, len(rows))
	for i, r := range rows {
		v.check(i, r)
		purchases = append(purchases, entity.Purchase{
			Supplier:       strings.TrimSpace(r.Supplier),
			Date:           strings.TrimSpace(r.Date),
			InvoiceNo:      strings.TrimSpace(r.InvoiceNo),
			Ingredient:     r.Ingredient,
			Qty:            r.Qty,
			Unit:           r.Unit,
			TotalCostGross: r.TotalCostGross,
			IVARate:        r.IVARate,
			Notes:          r.Notes,
		})
	}
	if err := v.err(); err != nil {
		return 0, err
	}
	if err := uc.store.Purchases.Append(ctx, purchases...); err != nil {
		return 0, fmt.Errorf("guardar compras: %w", err)
	}
	uc.log.Info().Int("rows", len(purchases)).Msg("compras añadidas")
	return len(purchases), nil
}

func toPurchaseRow(p entity.Purchase) dto.PurchaseRow {
	row := dto.PurchaseRow{
		Seq:            p.Seq,
		Supplier:       p.Supplier,
		Date:           p.Date,
		InvoiceNo:      p.InvoiceNo,
		Ingredient:     p.Ingredient,
		Qty:            p.Qty,
		Unit:           p.Unit,
		TotalCostGross: p.TotalCostGross,
		IVARate:        p.IVARate,
		Notes:          p.Notes,
	}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt
		row.CreatedAt = &t
	}
	return row
}

// ── Mermas ───────────────────────────────────────────────────────────────────

// ListYields tabla de mermas completa.
func (uc *UseCase) ListYields(ctx context.Context) ([]dto.YieldRow, error) {
	rows, err := uc.store.Yields.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.YieldRow, 0, len(rows))
	for _, y := range rows {
		out = append(out, dto.YieldRow{Ingredient: y.Ingredient, Unit: y.Unit, UsableYield: y.UsableYield})
	}
	return out, nil
}

// ReplaceYields sobrescribe la tabla de mermas. usable_yield vacío = sin merma (1.0).
func (uc *UseCase) ReplaceYields(ctx context.Context, rows []dto.YieldRow) error {
	v := &rowErrors{}
	out := make([]entity.IngredientYield, 0, len(rows))
	for i, r := range rows {
		v.check(i, r)
		out = append(out, entity.IngredientYield{Ingredient: r.Ingredient, Unit: r.Unit, UsableYield: r.UsableYield})
	}
	if err := v.err(); err != nil {
		return err
	}
	if err := uc.store.Yields.ReplaceAll(ctx, out); err != nil {
		return fmt.Errorf("guardar mermas: %w", err)
	}
	uc.log.Info().Int("rows", len(out)).Msg("mermas guardadas")
	return nil
}

// ── Productos ────────────────────────────────────────────────────────────────

// ListRecipes productos de la carta.
func (uc *UseCase) ListRecipes(ctx context.Context) ([]dto.RecipeRow, error) {
	rows, err := uc.store.Recipes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecipeRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.RecipeRow{
			ItemKey: r.ItemKey, Category: r.Category, DisplayName: r.DisplayName,
			IVARate: r.IVARate, TargetMargin: r.TargetMargin,
		})
	}
	return out, nil
}

// ReplaceRecipes sobrescribe los productos. target_margin se guarda tal cual:
// un valor no numérico no es error, el cálculo lo descarta y avisa.
func (uc *UseCase) ReplaceRecipes(ctx context.Context, rows []dto.RecipeRow) error {
	v := &rowErrors{}
	seen := make(map[string]int, len(rows))
	out := make([]entity.Recipe, 0, len(rows))
	for i, r := range rows {
		v.check(i, r)
		key := strings.TrimSpace(r.ItemKey)
		if prev, dup := seen[key]; dup && key != "" {
			v.add(i, "item_key", fmt.Sprintf("duplicado de la fila %d", prev))
		}
		seen[key] = i
		out = append(out, entity.Recipe{
			ItemKey:      key,
			Category:     strings.TrimSpace(r.Category),
			DisplayName:  strings.TrimSpace(r.DisplayName),
			IVARate:      r.IVARate,
			TargetMargin: strings.TrimSpace(r.TargetMargin),
		})
	}
	if err := v.err(); err != nil {
		return err
	}
	if err := uc.store.Recipes.ReplaceAll(ctx, out); err != nil {
		return fmt.Errorf("guardar productos: %w", err)
	}
	uc.log.Info().Int("rows", len(out)).Msg("productos guardados")
	return nil
}

// ListRecipeLines líneas de escandallo.
func (uc *UseCase) ListRecipeLines(ctx context.Context) ([]dto.RecipeLineRow, error) {
	rows, err := uc.store.RecipeLines.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecipeLineRow, 0, len(rows))
	for _, l := range rows {
		out = append(out, dto.RecipeLineRow{
			ItemKey: l.ItemKey, Ingredient: l.Ingredient, Unit: l.Unit, QtyPerPortion: l.QtyPerPortion,
		})
	}
	return out, nil
}

// ReplaceRecipeLines sobrescribe los escandallos.
func (uc *UseCase) ReplaceRecipeLines(ctx context.Context, rows []dto.RecipeLineRow) error {
	v := &rowErrors{}
	out := make([]entity.RecipeLine, 0, len(rows))
	for i, l := range rows {
		v.check(i, l)
		out = append(out, entity.RecipeLine{
			ItemKey:       strings.TrimSpace(l.ItemKey),
			Ingredient:    l.Ingredient,
			Unit:          l.Unit,
			QtyPerPortion: l.QtyPerPortion,
		})
	}
	if err := v.err(); err != nil {
		return err
	}
	if err := uc.store.RecipeLines.ReplaceAll(ctx, out); err != nil {
		return fmt.Errorf("guardar escandallos: %w", err)
	}
	uc.log.Info().Int("rows", len(out)).Msg("escandallos guardados")
	return nil
}

// ── Márgenes por sección ─────────────────────────────────────────────────────

// ListCategoryMargins márgenes por sección.
func (uc *UseCase) ListCategoryMargins(ctx context.Context) ([]dto.CategoryMarginRow, error) {
	rows, err := uc.store.CategoryMargins.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryMarginRow, 0, len(rows))
	for _, m := range rows {
		out = append(out, dto.CategoryMarginRow{Category: m.Category, TargetMargin: m.TargetMargin})
	}
	return out, nil
}

// ReplaceCategoryMargins sobrescribe los márgenes. Un margen vacío deja la sección sin margen propio.
func (uc *UseCase) ReplaceCategoryMargins(ctx context.Context, rows []dto.CategoryMarginRow) error {
	v := &rowErrors{}
	out := make([]entity.CategoryMargin, 0, len(rows))
	for i, m := range rows {
		v.check(i, m)
		out = append(out, entity.CategoryMargin{Category: strings.TrimSpace(m.Category), TargetMargin: m.TargetMargin})
	}
	if err := v.err(); err != nil {
		return err
	}
	if err := uc.store.CategoryMargins.ReplaceAll(ctx, out); err != nil {
		return fmt.Errorf("guardar márgenes: %w", err)
	}
	uc.log.Info().Int("rows", len(out)).Msg("márgenes por sección guardados")
	return nil
}
