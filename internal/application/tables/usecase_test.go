package tables_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/tables"
	"github.com/jhoicas/pvp-api/internal/domain"
	"github.com/jhoicas/pvp-api/internal/infrastructure/memory"
)

func num(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func validPurchase(ingredient string) dto.PurchaseRow {
	return dto.PurchaseRow{
		Supplier: " Makro ", Ingredient: ingredient, Unit: "kg",
		Qty: num("10"), TotalCostGross: num("21"), IVARate: num("0.21"),
	}
}

// ── Compras ───────────────────────────────────────────────────────────────────

func TestAppendPurchases_AnadeAlFinal(t *testing.T) {
	ctx := context.Background()
	uc := tables.NewUseCase(memory.NewStore(), nil)

	n, err := uc.AppendPurchases(ctx, []dto.PurchaseRow{validPurchase("Tomate"), validPurchase("Cebolla")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = uc.AppendPurchases(ctx, []dto.PurchaseRow{validPurchase("Ajo")})
	require.NoError(t, err)

	list, err := uc.ListPurchases(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Page.Total)
	require.Len(t, list.Rows, 3)
	assert.Equal(t, "Ajo", list.Rows[2].Ingredient)
	assert.Equal(t, "Makro", list.Rows[0].Supplier)
	assert.Less(t, list.Rows[0].Seq, list.Rows[2].Seq)
}

func TestListPurchases_Paginacion(t *testing.T) {
	ctx := context.Background()
	uc := tables.NewUseCase(memory.NewStore(), nil)
	for _, ing := range []string{"a", "b", "c", "d"} {
		_, err := uc.AppendPurchases(ctx, []dto.PurchaseRow{validPurchase(ing)})
		require.NoError(t, err)
	}

	page, err := uc.ListPurchases(ctx, dto.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "b", page.Rows[0].Ingredient)
	assert.Equal(t, "c", page.Rows[1].Ingredient)

	past, err := uc.ListPurchases(ctx, dto.PageRequest{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Rows)
	assert.Equal(t, 4, past.Page.Total)
}

func TestAppendPurchases_Validacion(t *testing.T) {
	uc := tables.NewUseCase(memory.NewStore(), nil)

	bad := validPurchase("")
	bad.Qty = num("-1")
	bad.IVARate = num("0.31")
	bad.TotalCostGross = decimal.NullDecimal{}

	_, err := uc.AppendPurchases(context.Background(), []dto.PurchaseRow{validPurchase("Tomate"), bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		assert.Equal(t, 1, f.Row)
		fields[f.Field] = true
	}
	assert.True(t, fields["ingredient"])
	assert.True(t, fields["qty"])
	assert.True(t, fields["iva_rate"])
	assert.True(t, fields["total_cost_gross"])

	list, _ := uc.ListPurchases(context.Background(), dto.PageRequest{})
	assert.Empty(t, list.Rows, "una fila inválida no guarda ninguna")
}

func TestAppendPurchases_CantidadCeroSeAcepta(t *testing.T) {
	p := validPurchase("Tomate")
	p.Qty = num("0")
	p.IVARate = decimal.NullDecimal{}
	_, err := tables.NewUseCase(memory.NewStore(), nil).AppendPurchases(context.Background(), []dto.PurchaseRow{p})
	assert.NoError(t, err, "igual que el formulario: qty >= 0 e IVA opcional")
}

func TestAppendPurchases_Vacio(t *testing.T) {
	_, err := tables.NewUseCase(memory.NewStore(), nil).AppendPurchases(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// ── Tablas completas ──────────────────────────────────────────────────────────

func TestReplaceYields_RangoDeMerma(t *testing.T) {
	ctx := context.Background()
	uc := tables.NewUseCase(memory.NewStore(), nil)

	err := uc.ReplaceYields(ctx, []dto.YieldRow{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("1.2")},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	require.NoError(t, uc.ReplaceYields(ctx, []dto.YieldRow{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("0.8")},
		{Ingredient: "pan", Unit: "unit"},
	}))
	rows, err := uc.ListYields(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReplaceRecipes_ItemKeyDuplicado(t *testing.T) {
	err := tables.NewUseCase(memory.NewStore(), nil).ReplaceRecipes(context.Background(), []dto.RecipeRow{
		{ItemKey: "cafe", Category: "Bebidas"},
		{ItemKey: " cafe ", Category: "Bebidas"},
	})
	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "item_key", verr.Fields[0].Field)
	assert.Equal(t, 1, verr.Fields[0].Row)
}

func TestReplaceRecipes_MargenMalFormadoSeGuarda(t *testing.T) {
	ctx := context.Background()
	uc := tables.NewUseCase(memory.NewStore(), nil)
	require.NoError(t, uc.ReplaceRecipes(ctx, []dto.RecipeRow{
		{ItemKey: "tarta", Category: "Postres", DisplayName: "Tarta", TargetMargin: " alto "},
	}))

	rows, err := uc.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alto", rows[0].TargetMargin)
}

func TestReplaceRecipeLines_CantidadNegativa(t *testing.T) {
	err := tables.NewUseCase(memory.NewStore(), nil).ReplaceRecipeLines(context.Background(), []dto.RecipeLineRow{
		{ItemKey: "ensalada", Ingredient: "tomate", Unit: "kg", QtyPerPortion: num("-0.2")},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestReplaceCategoryMargins_MargenUnoRechazado(t *testing.T) {
	ctx := context.Background()
	uc := tables.NewUseCase(memory.NewStore(), nil)

	err := uc.ReplaceCategoryMargins(ctx, []dto.CategoryMarginRow{{Category: "Postres", TargetMargin: num("1")}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	require.NoError(t, uc.ReplaceCategoryMargins(ctx, []dto.CategoryMarginRow{
		{Category: " Entrantes ", TargetMargin: num("0.65")},
		{Category: "Postres"},
	}))
	rows, err := uc.ListCategoryMargins(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Entrantes", rows[0].Category)
	assert.False(t, rows[1].TargetMargin.Valid)
}

// ── Reglas de validación ──────────────────────────────────────────────────────

func TestListPurchases_PaginacionFueraDeRango(t *testing.T) {
	_, err := tables.NewUseCase(memory.NewStore(), nil).ListPurchases(context.Background(), dto.PageRequest{Limit: 100000, Offset: -5})
	require.Error(t, err)

	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, f := range verr.Fields {
		assert.Equal(t, -1, f.Row)
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "limit")
	assert.Contains(t, fields, "offset")
}

func TestListPurchases_LimiteMaximoAceptado(t *testing.T) {
	page, err := tables.NewUseCase(memory.NewStore(), nil).ListPurchases(context.Background(), dto.PageRequest{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 500, page.Page.Limit)
}

func TestAppendPurchases_LimitesDeIVA(t *testing.T) {
	uc := tables.NewUseCase(memory.NewStore(), nil)

	tope := validPurchase("Tomate")
	tope.IVARate = num("0.30")
	cero := validPurchase("Pan")
	cero.IVARate = num("0")
	_, err := uc.AppendPurchases(context.Background(), []dto.PurchaseRow{tope, cero})
	require.NoError(t, err)

	alto := validPurchase("Vino")
	alto.IVARate = num("0.3001")
	_, err = uc.AppendPurchases(context.Background(), []dto.PurchaseRow{alto})
	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "iva_rate", verr.Fields[0].Field)
	assert.Equal(t, 0, verr.Fields[0].Row)
}

func TestAppendPurchases_IngredienteEnBlanco(t *testing.T) {
	_, err := tables.NewUseCase(memory.NewStore(), nil).AppendPurchases(context.Background(), []dto.PurchaseRow{validPurchase("   ")})
	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ingredient", verr.Fields[0].Field)
	assert.Equal(t, "obligatorio", verr.Fields[0].Message)
}

func TestReplaceYields_MermaCeroRechazada(t *testing.T) {
	err := tables.NewUseCase(memory.NewStore(), nil).ReplaceYields(context.Background(), []dto.YieldRow{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("0")},
	})
	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "usable_yield", verr.Fields[0].Field)
}

func TestReplaceCategoryMargins_MargenNegativo(t *testing.T) {
	err := tables.NewUseCase(memory.NewStore(), nil).ReplaceCategoryMargins(context.Background(), []dto.CategoryMarginRow{
		{Category: "Postres", TargetMargin: num("-0.1")},
	})
	var verr *tables.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "target_margin", verr.Fields[0].Field)
	assert.Equal(t, "debe ser mayor o igual que 0", verr.Fields[0].Message)
}
