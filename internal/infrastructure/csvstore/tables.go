package csvstore

import (
	"context"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
)

var (
	_ repository.PurchaseRepository       = (*PurchaseRepo)(nil)
	_ repository.YieldRepository          = (*YieldRepo)(nil)
	_ repository.RecipeRepository         = (*RecipeRepo)(nil)
	_ repository.RecipeLineRepository     = (*RecipeLineRepo)(nil)
	_ repository.CategoryMarginRepository = (*CategoryMarginRepo)(nil)
)

var (
	purchaseHeader       = []string{"date", "supplier", "ingredient", "qty", "unit", "total_cost_gross", "iva_rate", "invoice_no", "notes"}
	yieldHeader          = []string{"ingredient", "unit", "usable_yield"}
	recipeHeader         = []string{"item_key", "category", "display_name", "iva_rate", "target_margin"}
	recipeLineHeader     = []string{"item_key", "ingredient", "unit", "qty_per_portion"}
	categoryMarginHeader = []string{"category", "target_margin"}
)

// ── Compras ──────────────────────────────────────────────────────────────────

// PurchaseRepo purchases.csv. Seq es la posición de la fila (1..n).
type PurchaseRepo struct{ s *Store }

// List lee todas las compras en el orden del fichero.
func (r *PurchaseRepo) List(_ context.Context) ([]entity.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, err := r.s.readTable(PurchasesFile)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Purchase, 0, len(recs))
	for i, rec := range recs {
		out = append(out, entity.Purchase{
			Seq:            int64(i + 1),
			Supplier:       rec.get("supplier"),
			Date:           rec.get("date"),
			InvoiceNo:      rec.get("invoice_no"),
			Ingredient:     rec["ingredient"],
			Qty:            ParseDecimal(rec["qty"]),
			Unit:           rec["unit"],
			TotalCostGross: ParseDecimal(rec["total_cost_gross"]),
			IVARate:        ParseDecimal(rec["iva_rate"]),
			Notes:          rec.get("notes"),
		})
	}
	return out, nil
}

// Append añade filas al final del fichero. Las filas existentes no se reescriben.
func (r *PurchaseRepo) Append(_ context.Context, rows ...entity.Purchase) error {
	if len(rows) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]record, 0, len(rows))
	for _, p := range rows {
		out = append(out, record{
			"date":             p.Date,
			"supplier":         p.Supplier,
			"ingredient":       p.Ingredient,
			"qty":              FormatDecimal(p.Qty),
			"unit":             p.Unit,
			"total_cost_gross": FormatDecimal(p.TotalCostGross),
			"iva_rate":         FormatDecimal(p.IVARate),
			"invoice_no":       p.InvoiceNo,
			"notes":            p.Notes,
		})
	}
	return r.s.appendTable(PurchasesFile, purchaseHeader, out)
}

// ── Mermas ───────────────────────────────────────────────────────────────────

// YieldRepo ingredient_yields.csv.
type YieldRepo struct{ s *Store }

// List lee la tabla de mermas.
func (r *YieldRepo) List(_ context.Context) ([]entity.IngredientYield, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, err := r.s.readTable(YieldsFile)
	if err != nil {
		return nil, err
	}
	out := make([]entity.IngredientYield, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entity.IngredientYield{
			Ingredient:  rec["ingredient"],
			Unit:        rec["unit"],
			UsableYield: ParseDecimal(rec["usable_yield"]),
		})
	}
	return out, nil
}

// ReplaceAll sobrescribe la tabla de mermas.
func (r *YieldRepo) ReplaceAll(_ context.Context, rows []entity.IngredientYield) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([][]string, 0, len(rows))
	for _, y := range rows {
		out = append(out, []string{y.Ingredient, y.Unit, FormatDecimal(y.UsableYield)})
	}
	return r.s.writeTable(YieldsFile, yieldHeader, out)
}

// ── Productos y escandallos ──────────────────────────────────────────────────

// RecipeRepo recipes.csv.
type RecipeRepo struct{ s *Store }

// List lee los productos. target_margin se conserva como texto.
func (r *RecipeRepo) List(_ context.Context) ([]entity.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, err := r.s.readTable(RecipesFile)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Recipe, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entity.Recipe{
			ItemKey:      rec.get("item_key"),
			Category:     rec.get("category"),
			DisplayName:  rec.get("display_name"),
			IVARate:      ParseDecimal(rec["iva_rate"]),
			TargetMargin: rec.get("target_margin"),
		})
	}
	return out, nil
}

// ReplaceAll sobrescribe los productos.
func (r *RecipeRepo) ReplaceAll(_ context.Context, rows []entity.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([][]string, 0, len(rows))
	for _, rc := range rows {
		out = append(out, []string{rc.ItemKey, rc.Category, rc.DisplayName, FormatDecimal(rc.IVARate), rc.TargetMargin})
	}
	return r.s.writeTable(RecipesFile, recipeHeader, out)
}

// RecipeLineRepo recipe_lines.csv.
type RecipeLineRepo struct{ s *Store }

// List lee las líneas de escandallo.
func (r *RecipeLineRepo) List(_ context.Context) ([]entity.RecipeLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, err := r.s.readTable(RecipeLinesFile)
	if err != nil {
		return nil, err
	}
	out := make([]entity.RecipeLine, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entity.RecipeLine{
			ItemKey:       rec.get("item_key"),
			Ingredient:    rec["ingredient"],
			Unit:          rec["unit"],
			QtyPerPortion: ParseDecimal(rec["qty_per_portion"]),
		})
	}
	return out, nil
}

// ReplaceAll sobrescribe las líneas de escandallo.
func (r *RecipeLineRepo) ReplaceAll(_ context.Context, rows []entity.RecipeLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([][]string, 0, len(rows))
	for _, l := range rows {
		out = append(out, []string{l.ItemKey, l.Ingredient, l.Unit, FormatDecimal(l.QtyPerPortion)})
	}
	return r.s.writeTable(RecipeLinesFile, recipeLineHeader, out)
}

// ── Márgenes por sección ─────────────────────────────────────────────────────

// CategoryMarginRepo category_margins.csv.
type CategoryMarginRepo struct{ s *Store }

// List lee los márgenes por sección.
func (r *CategoryMarginRepo) List(_ context.Context) ([]entity.CategoryMargin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	recs, err := r.s.readTable(CategoryMarginsFile)
	if err != nil {
		return nil, err
	}
	out := make([]entity.CategoryMargin, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entity.CategoryMargin{
			Category:     rec.get("category"),
			TargetMargin: ParseDecimal(rec["target_margin"]),
		})
	}
	return out, nil
}

// ReplaceAll sobrescribe los márgenes.
func (r *CategoryMarginRepo) ReplaceAll(_ context.Context, rows []entity.CategoryMargin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([][]string, 0, len(rows))
	for _, m := range rows {
		out = append(out, []string{m.Category, FormatDecimal(m.TargetMargin)})
	}
	return r.s.writeTable(CategoryMarginsFile, categoryMarginHeader, out)
}
