package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pvp-api/internal/application/auth"
	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/ingest"
	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/application/tables"
	"github.com/jhoicas/pvp-api/internal/domain/entity"
	"github.com/jhoicas/pvp-api/internal/domain/repository"
	"github.com/jhoicas/pvp-api/internal/infrastructure/memory"
	"github.com/jhoicas/pvp-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/pvp-api/internal/interfaces/http"
	"github.com/jhoicas/pvp-api/pkg/logger"
)

// ── helpers ───────────────────────────────────────────────────────────────────

const testPassword = "terraza"

func num(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

type fakeExtractor struct{ text string }

func (f fakeExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	return f.text, nil
}

func seed(t *testing.T, s repository.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Purchases.Append(ctx, entity.Purchase{
		Ingredient: "Tomate", Unit: "kg", Qty: num("10"), TotalCostGross: num("21.0"), IVARate: num("0.21"),
	}))
	require.NoError(t, s.Yields.ReplaceAll(ctx, []entity.IngredientYield{
		{Ingredient: "tomate", Unit: "kg", UsableYield: num("0.8")},
	}))
	require.NoError(t, s.Recipes.ReplaceAll(ctx, []entity.Recipe{
		{ItemKey: "ensalada", Category: "Entrantes", DisplayName: "Ensalada de tomate", IVARate: num("0.10")},
	}))
	require.NoError(t, s.RecipeLines.ReplaceAll(ctx, []entity.RecipeLine{
		{ItemKey: "ensalada", Ingredient: "Tomate", Unit: "kg", QtyPerPortion: num("0.2")},
	}))
	require.NoError(t, s.CategoryMargins.ReplaceAll(ctx, []entity.CategoryMargin{
		{Category: "Entrantes", TargetMargin: num("0.65")},
	}))
}

// newAPI monta la API completa sobre un store en memoria.
func newAPI(t *testing.T, store repository.Store, role string) *fiber.App {
	t.Helper()
	return newAPIWithLogger(t, store, role, logger.Nop())
}

func newAPIWithLogger(t *testing.T, store repository.Store, role string, log *logger.Logger) *fiber.App {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	tablesUC := tables.NewUseCase(store, log)
	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(
			auth.StaffAccount{User: testUserID, PasswordHash: string(hash), Role: role},
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
			log,
		),
		PricingUC: pricing.NewUseCase(store, pricing.Config{
			CurrencySymbol:  "€",
			DefaultOverhead: decimal.RequireFromString("0.10"),
			MaxOverhead:     decimal.NewFromInt(50),
		}, log),
		TablesUC:    tablesUC,
		IngestUC:    ingest.NewUseCase(fakeExtractor{text: "Base imponible IVA 21% Total"}, xlsx.NewPurchaseReader(), tablesUC, log),
		XLSXExport:  xlsx.NewPriceListWriter(),
		MaxUploadMB: 1,
		JWTSecret:   testJWTSecret,
	})
	return app
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{User: testUserID, Password: testPassword})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return "Bearer " + out.Token
}

func call(t *testing.T, app *fiber.App, method, path, authHeader string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func upload(t *testing.T, app *fiber.App, path, authHeader, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authHeader)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func TestLogin_PasswordIncorrecto(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{User: testUserID, Password: "otra"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_CamposVacios(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{User: testUserID})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRutasProtegidas_SinToken(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := call(t, app, http.MethodGet, "/api/pricing", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ── Pricing ───────────────────────────────────────────────────────────────────

func TestPricing_CalculaPVP(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	app := newAPI(t, store, auth.RoleStaff)

	resp := call(t, app, http.MethodGet, "/api/pricing", login(t, app), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderRequestID))

	var out dto.PriceTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, dto.StatusOK, out.Status)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "1.68€", out.Rows[0].Display.PVP)
	assert.Equal(t, "65%", out.Rows[0].Display.Margin)
}

func TestPricing_OverheadPorQuery(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	app := newAPI(t, store, auth.RoleStaff)
	token := login(t, app)

	resp := call(t, app, http.MethodGet, "/api/pricing?overhead=0,5", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.PriceTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "0.50", out.Overhead.StringFixed(2))

	bad := call(t, app, http.MethodGet, "/api/pricing?overhead=mucho", token, nil)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	neg := call(t, app, http.MethodGet, "/api/pricing?overhead=-1", token, nil)
	defer neg.Body.Close()
	assert.Equal(t, http.StatusBadRequest, neg.StatusCode)
}

func TestPricing_SinComprasInsufficientData(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	token := login(t, app)

	resp := call(t, app, http.MethodGet, "/api/pricing", token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.PriceTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, dto.StatusInsufficientData, out.Status)
	assert.Empty(t, out.Rows)

	costs := call(t, app, http.MethodGet, "/api/costs", token, nil)
	defer costs.Body.Close()
	require.Equal(t, http.StatusOK, costs.StatusCode)
	var ct dto.CostTableResponse
	require.NoError(t, json.NewDecoder(costs.Body).Decode(&ct))
	assert.Equal(t, dto.StatusInsufficientData, ct.Status)

	exp := call(t, app, http.MethodGet, "/api/pricing/export.xlsx", token, nil)
	defer exp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, exp.StatusCode)
}

func TestPricing_ExportXLSX(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	app := newAPI(t, store, auth.RoleStaff)

	resp := call(t, app, http.MethodGet, "/api/pricing/export.xlsx", login(t, app), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pvp_")

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "un xlsx es un zip")
}

func TestPricing_ExportPDFDesactivado(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	app := newAPI(t, store, auth.RoleStaff)

	resp := call(t, app, http.MethodGet, "/api/pricing/export.pdf", login(t, app), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

// ── Tablas ────────────────────────────────────────────────────────────────────

func TestPurchases_AltaYListado(t *testing.T) {
	store := memory.NewStore()
	app := newAPI(t, store, auth.RoleStaff)
	token := login(t, app)

	resp := call(t, app, http.MethodPost, "/api/purchases", token, dto.AppendPurchasesRequest{Rows: []dto.PurchaseRow{
		{Supplier: "Makro", Ingredient: "Tomate", Unit: "kg", Qty: num("10"), TotalCostGross: num("21"), IVARate: num("0.21")},
		{Supplier: "Makro", Ingredient: "Cebolla", Unit: "kg", Qty: num("5"), TotalCostGross: num("4.4")},
	}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := call(t, app, http.MethodGet, "/api/purchases?limit=1&offset=1", token, nil)
	defer list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)
	var out dto.PurchaseListResponse
	require.NoError(t, json.NewDecoder(list.Body).Decode(&out))
	assert.Equal(t, 2, out.Page.Total)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Cebolla", out.Rows[0].Ingredient)
	assert.Equal(t, int64(2), out.Rows[0].Seq)
}

func TestPurchases_ValidacionPorCampo(t *testing.T) {
	store := memory.NewStore()
	app := newAPI(t, store, auth.RoleStaff)

	resp := call(t, app, http.MethodPost, "/api/purchases", login(t, app), dto.AppendPurchasesRequest{Rows: []dto.PurchaseRow{
		{Ingredient: "Tomate", Unit: "kg", Qty: num("-1"), TotalCostGross: num("21")},
	}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out dto.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "VALIDATION", out.Code)
	require.NotEmpty(t, out.Fields)
	assert.Equal(t, "qty", out.Fields[0].Field)

	rows, err := store.Purchases.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows, "una fila inválida no guarda nada")
}

func TestPurchases_PaginacionFueraDeRango(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)

	resp := call(t, app, http.MethodGet, "/api/purchases?limit=100000&offset=-5", login(t, app), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out dto.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "VALIDATION", out.Code)
	fields := map[string]bool{}
	for _, f := range out.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["limit"])
	assert.True(t, fields["offset"])
}

type brokenPurchases struct{ err error }

func (b brokenPurchases) List(context.Context) ([]entity.Purchase, error) { return nil, b.err }
func (b brokenPurchases) Append(context.Context, ...entity.Purchase) error { return b.err }

func TestErrorInterno_NoExponeDetalle(t *testing.T) {
	store := memory.NewStore()
	store.Purchases = brokenPurchases{err: errors.New(`ERROR: relation "purchases" does not exist (SQLSTATE 42P01)`)}
	var logs bytes.Buffer
	app := newAPIWithLogger(t, store, auth.RoleStaff, logger.New(logger.Config{Level: "info", Out: &logs}))

	resp := call(t, app, http.MethodGet, "/api/purchases", login(t, app), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "INTERNAL")
	assert.NotContains(t, string(body), "SQLSTATE")
	assert.Contains(t, logs.String(), "SQLSTATE 42P01", "el detalle queda en el log")
}

func TestCategoryMargins_SoloAdmin(t *testing.T) {
	body := dto.TableRequest[dto.CategoryMarginRow]{Rows: []dto.CategoryMarginRow{
		{Category: "Postres", TargetMargin: num("0.72")},
	}}

	staff := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := call(t, staff, http.MethodPut, "/api/category-margins", login(t, staff), body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := newAPI(t, memory.NewStore(), auth.RoleAdmin)
	ok := call(t, admin, http.MethodPut, "/api/category-margins", login(t, admin), body)
	defer ok.Body.Close()
	require.Equal(t, http.StatusOK, ok.StatusCode)
	var out dto.TableResponse[dto.CategoryMarginRow]
	require.NoError(t, json.NewDecoder(ok.Body).Decode(&out))
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "Postres", out.Rows[0].Category)
}

func TestRecipes_ReemplazoYLectura(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	token := login(t, app)

	resp := call(t, app, http.MethodPut, "/api/recipes", token, dto.TableRequest[dto.RecipeRow]{Rows: []dto.RecipeRow{
		{ItemKey: "tarta", Category: "Postres", DisplayName: "Tarta de queso", TargetMargin: "0.75"},
	}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get := call(t, app, http.MethodGet, "/api/recipes", token, nil)
	defer get.Body.Close()
	var out dto.TableResponse[dto.RecipeRow]
	require.NoError(t, json.NewDecoder(get.Body).Decode(&out))
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "0.75", out.Rows[0].TargetMargin)
}

// ── Ingesta ───────────────────────────────────────────────────────────────────

func TestTaxHint_PDFCon21(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := upload(t, app, "/api/purchases/tax-hint", login(t, app), "factura.pdf", []byte("%PDF-1.4"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.TaxHintResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "0.21", out.SuggestedIVA.String())
	assert.Equal(t, "21%", out.Matched)
}

func TestTaxHint_NoPDFDevuelveDefecto(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := upload(t, app, "/api/purchases/tax-hint", login(t, app), "ticket.jpg", []byte("jpeg"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.TaxHintResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "0.1", out.SuggestedIVA.String())
	assert.False(t, out.Extracted)
}

func TestTaxHint_SinFichero(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	req := httptest.NewRequest(http.MethodPost, "/api/purchases/tax-hint", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", login(t, app))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestImport_RechazaExtension(t *testing.T) {
	app := newAPI(t, memory.NewStore(), auth.RoleStaff)
	resp := upload(t, app, "/api/purchases/import", login(t, app), "compras.csv", []byte("a,b"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
