package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pvp-api/internal/application/auth"
	"github.com/jhoicas/pvp-api/internal/application/ingest"
	"github.com/jhoicas/pvp-api/internal/application/pricing"
	"github.com/jhoicas/pvp-api/internal/application/tables"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	PricingUC   *pricing.UseCase
	TablesUC    *tables.UseCase
	IngestUC    *ingest.UseCase
	XLSXExport  pricing.PriceListRenderer
	PDFExport   pricing.PriceListRenderer
	MaxUploadMB int
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireRole(auth.RoleAdmin, auth.RoleStaff))
	adminOnly := RequireRole(auth.RoleAdmin)

	// Costes y PVP
	pricingHandler := NewPricingHandler(deps.PricingUC, deps.XLSXExport, deps.PDFExport)
	protected.Get("/costs", pricingHandler.Costs)
	protected.Get("/pricing", pricingHandler.Prices)
	protected.Get("/pricing/export.xlsx", pricingHandler.ExportXLSX)
	protected.Get("/pricing/export.pdf", pricingHandler.ExportPDF)

	// Compras
	tableHandler := NewTableHandler(deps.TablesUC)
	purchases := protected.Group("/purchases")
	purchases.Get("/", tableHandler.ListPurchases)
	purchases.Post("/", tableHandler.AppendPurchases)
	if deps.IngestUC != nil {
		ingestHandler := NewIngestHandler(deps.IngestUC, deps.MaxUploadMB)
		purchases.Post("/tax-hint", ingestHandler.TaxHint)
		purchases.Post("/import", ingestHandler.Import)
	}

	// Tablas maestras
	protected.Get("/yields", tableHandler.ListYields)
	protected.Put("/yields", tableHandler.ReplaceYields)
	protected.Get("/recipes", tableHandler.ListRecipes)
	protected.Put("/recipes", tableHandler.ReplaceRecipes)
	protected.Get("/recipe-lines", tableHandler.ListRecipeLines)
	protected.Put("/recipe-lines", tableHandler.ReplaceRecipeLines)
	protected.Get("/category-margins", tableHandler.ListCategoryMargins)
	protected.Put("/category-margins", adminOnly, tableHandler.ReplaceCategoryMargins)
}
