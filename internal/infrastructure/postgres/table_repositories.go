package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
)

var (
	_ repository.YieldRepository          = (*YieldRepo)(nil)
	_ repository.RecipeRepository         = (*RecipeRepo)(nil)
	_ repository.RecipeLineRepository     = (*RecipeLineRepo)(nil)
	_ repository.CategoryMarginRepository = (*CategoryMarginRepo)(nil)
)

// NewStore agrupa los cinco repos sobre el mismo Querier.
func NewStore(q Querier) repository.Store {
	return repository.Store{
		Purchases:       NewPurchaseRepository(q),
		Yields:          NewYieldRepository(q),
		Recipes:         NewRecipeRepository(q),
		RecipeLines:     NewRecipeLineRepository(q),
		CategoryMargins: NewCategoryMarginRepository(q),
	}
}

// replaceTable borra la tabla y vuelve a cargarla dentro de una transacción.
// La columna position conserva el orden de las filas.
func replaceTable(ctx context.Context, q Querier, table string, cols []string, rows [][]any) error {
	return inTx(ctx, q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
			return wrapErr("clear "+table, err)
		}
		for i := range rows {
			rows[i] = append([]any{i}, rows[i]...)
		}
		return copyRows(ctx, tx, table, append([]string{"position"}, cols...), rows)
	})
}

// ── Mermas ───────────────────────────────────────────────────────────────────

// YieldRepo tabla ingredient_yields.
type YieldRepo struct {
	q Querier
}

// NewYieldRepository construye el adaptador de mermas.
func NewYieldRepository(q Querier) *YieldRepo {
	return &YieldRepo{q: q}
}

// List devuelve las mermas en el orden guardado.
func (r *YieldRepo) List(ctx context.Context) ([]entity.IngredientYield, error) {
	rows, err := r.q.Query(ctx, `SELECT ingredient, unit, usable_yield FROM ingredient_yields ORDER BY position`)
	if err != nil {
		return nil, wrapErr("list yields", err)
	}
	defer rows.Close()

	var list []entity.IngredientYield
	for rows.Next() {
		var y entity.IngredientYield
		if err := rows.Scan(&y.Ingredient, &y.Unit, &y.UsableYield); err != nil {
			return nil, fmt.Errorf("scan yield: %w", err)
		}
		list = append(list, y)
	}
	return list, rows.Err()
}

// ReplaceAll sobrescribe la tabla de mermas.
func (r *YieldRepo) ReplaceAll(ctx context.Context, rows []entity.IngredientYield) error {
	data := make([][]any, 0, len(rows))
	for _, y := range rows {
		data = append(data, []any{y.Ingredient, y.Unit, nullable(y.UsableYield)})
	}
	return replaceTable(ctx, r.q, "ingredient_yields", []string{"ingredient", "unit", "usable_yield"}, data)
}

// ── Productos ────────────────────────────────────────────────────────────────

// RecipeRepo tabla recipes.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador de productos.
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

// List devuelve los productos en el orden guardado.
func (r *RecipeRepo) List(ctx context.Context) ([]entity.Recipe, error) {
	rows, err := r.q.Query(ctx, `
		SELECT item_key, category, display_name, iva_rate, target_margin
		FROM recipes ORDER BY position`)
	if err != nil {
		return nil, wrapErr("list recipes", err)
	}
	defer rows.Close()

	var list []entity.Recipe
	for rows.Next() {
		var rc entity.Recipe
		if err := rows.Scan(&rc.ItemKey, &rc.Category, &rc.DisplayName, &rc.IVARate, &rc.TargetMargin); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		list = append(list, rc)
	}
	return list, rows.Err()
}

// ReplaceAll sobrescribe los productos.
func (r *RecipeRepo) ReplaceAll(ctx context.Context, rows []entity.Recipe) error {
	data := make([][]any, 0, len(rows))
	for _, rc := range rows {
		data = append(data, []any{rc.ItemKey, rc.Category, rc.DisplayName, nullable(rc.IVARate), rc.TargetMargin})
	}
	return replaceTable(ctx, r.q, "recipes",
		[]string{"item_key", "category", "display_name", "iva_rate", "target_margin"}, data)
}

// ── Escandallos ──────────────────────────────────────────────────────────────

// RecipeLineRepo tabla recipe_lines.
type RecipeLineRepo struct {
	q Querier
}

// NewRecipeLineRepository construye el adaptador de escandallos.
func NewRecipeLineRepository(q Querier) *RecipeLineRepo {
	return &RecipeLineRepo{q: q}
}

// List devuelve las líneas en el orden guardado.
func (r *RecipeLineRepo) List(ctx context.Context) ([]entity.RecipeLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT item_key, ingredient, unit, qty_per_portion
		FROM recipe_lines ORDER BY position`)
	if err != nil {
		return nil, wrapErr("list recipe lines", err)
	}
	defer rows.Close()

	var list []entity.RecipeLine
	for rows.Next() {
		var l entity.RecipeLine
		if err := rows.Scan(&l.ItemKey, &l.Ingredient, &l.Unit, &l.QtyPerPortion); err != nil {
			return nil, fmt.Errorf("scan recipe line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// ReplaceAll sobrescribe las líneas de escandallo.
func (r *RecipeLineRepo) ReplaceAll(ctx context.Context, rows []entity.RecipeLine) error {
	data := make([][]any, 0, len(rows))
	for _, l := range rows {
		data = append(data, []any{l.ItemKey, l.Ingredient, l.Unit, nullable(l.QtyPerPortion)})
	}
	return replaceTable(ctx, r.q, "recipe_lines",
		[]string{"item_key", "ingredient", "unit", "qty_per_portion"}, data)
}

// ── Márgenes por sección ─────────────────────────────────────────────────────

// CategoryMarginRepo tabla category_margins.
type CategoryMarginRepo struct {
	q Querier
}

// NewCategoryMarginRepository construye el adaptador de márgenes.
func NewCategoryMarginRepository(q Querier) *CategoryMarginRepo {
	return &CategoryMarginRepo{q: q}
}

// List devuelve los márgenes en el orden guardado.
func (r *CategoryMarginRepo) List(ctx context.Context) ([]entity.CategoryMargin, error) {
	rows, err := r.q.Query(ctx, `SELECT category, target_margin FROM category_margins ORDER BY position`)
	if err != nil {
		return nil, wrapErr("list category margins", err)
	}
	defer rows.Close()

	var list []entity.CategoryMargin
	for rows.Next() {
		var m entity.CategoryMargin
		if err := rows.Scan(&m.Category, &m.TargetMargin); err != nil {
			return nil, fmt.Errorf("scan category margin: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ReplaceAll sobrescribe los márgenes por sección.
func (r *CategoryMarginRepo) ReplaceAll(ctx context.Context, rows []entity.CategoryMargin) error {
	data := make([][]any, 0, len(rows))
	for _, m := range rows {
		data = append(data, []any{m.Category, nullable(m.TargetMargin)})
	}
	return replaceTable(ctx, r.q, "category_margins", []string{"category", "target_margin"}, data)
}
