package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/tables"
)

// TableHandler lectura y reemplazo de las tablas de entrada.
type TableHandler struct {
	uc *tables.UseCase
}

// NewTableHandler construye el handler.
func NewTableHandler(uc *tables.UseCase) *TableHandler {
	return &TableHandler{uc: uc}
}

// ListPurchases godoc
// @Summary      Histórico de compras
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20, máximo 500)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.PurchaseListResponse
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/purchases [get]
func (h *TableHandler) ListPurchases(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "limit y offset deben ser enteros"})
	}
	out, err := h.uc.ListPurchases(c.UserContext(), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AppendPurchases godoc
// @Summary      Registrar compras
// @Description  Añade las filas al final del histórico. Todas o ninguna.
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendPurchasesRequest  true  "Compras"
// @Success      201  {object}  map[string]int
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/purchases [post]
func (h *TableHandler) AppendPurchases(c *fiber.Ctx) error {
	var in dto.AppendPurchasesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	n, err := h.uc.AppendPurchases(c.UserContext(), in.Rows)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appended": n})
}

// ListYields godoc
// @Summary      Tabla de mermas
// @Tags         tables
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TableResponse[dto.YieldRow]
// @Router       /api/yields [get]
func (h *TableHandler) ListYields(c *fiber.Ctx) error {
	rows, err := h.uc.ListYields(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TableResponse[dto.YieldRow]{Rows: rows})
}

// ReplaceYields godoc
// @Summary      Sobrescribir mermas
// @Tags         tables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TableRequest[dto.YieldRow]  true  "Tabla completa"
// @Success      200  {object}  dto.TableResponse[dto.YieldRow]
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/yields [put]
func (h *TableHandler) ReplaceYields(c *fiber.Ctx) error {
	var in dto.TableRequest[dto.YieldRow]
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.ReplaceYields(c.UserContext(), in.Rows); err != nil {
		return writeError(c, err)
	}
	return h.ListYields(c)
}

// ListRecipes godoc
// @Summary      Productos de la carta
// @Tags         tables
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TableResponse[dto.RecipeRow]
// @Router       /api/recipes [get]
func (h *TableHandler) ListRecipes(c *fiber.Ctx) error {
	rows, err := h.uc.ListRecipes(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TableResponse[dto.RecipeRow]{Rows: rows})
}

// ReplaceRecipes godoc
// @Summary      Sobrescribir productos
// @Tags         tables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TableRequest[dto.RecipeRow]  true  "Tabla completa"
// @Success      200  {object}  dto.TableResponse[dto.RecipeRow]
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/recipes [put]
func (h *TableHandler) ReplaceRecipes(c *fiber.Ctx) error {
	var in dto.TableRequest[dto.RecipeRow]
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.ReplaceRecipes(c.UserContext(), in.Rows); err != nil {
		return writeError(c, err)
	}
	return h.ListRecipes(c)
}

// ListRecipeLines godoc
// @Summary      Líneas de escandallo
// @Tags         tables
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TableResponse[dto.RecipeLineRow]
// @Router       /api/recipe-lines [get]
func (h *TableHandler) ListRecipeLines(c *fiber.Ctx) error {
	rows, err := h.uc.ListRecipeLines(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TableResponse[dto.RecipeLineRow]{Rows: rows})
}

// ReplaceRecipeLines godoc
// @Summary      Sobrescribir escandallos
// @Tags         tables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TableRequest[dto.RecipeLineRow]  true  "Tabla completa"
// @Success      200  {object}  dto.TableResponse[dto.RecipeLineRow]
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/recipe-lines [put]
func (h *TableHandler) ReplaceRecipeLines(c *fiber.Ctx) error {
	var in dto.TableRequest[dto.RecipeLineRow]
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.ReplaceRecipeLines(c.UserContext(), in.Rows); err != nil {
		return writeError(c, err)
	}
	return h.ListRecipeLines(c)
}

// ListCategoryMargins godoc
// @Summary      Márgenes por sección
// @Tags         tables
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TableResponse[dto.CategoryMarginRow]
// @Router       /api/category-margins [get]
func (h *TableHandler) ListCategoryMargins(c *fiber.Ctx) error {
	rows, err := h.uc.ListCategoryMargins(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TableResponse[dto.CategoryMarginRow]{Rows: rows})
}

// ReplaceCategoryMargins godoc
// @Summary      Sobrescribir márgenes por sección (admin)
// @Tags         tables
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TableRequest[dto.CategoryMarginRow]  true  "Tabla completa"
// @Success      200  {object}  dto.TableResponse[dto.CategoryMarginRow]
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/category-margins [put]
func (h *TableHandler) ReplaceCategoryMargins(c *fiber.Ctx) error {
	var in dto.TableRequest[dto.CategoryMarginRow]
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.uc.ReplaceCategoryMargins(c.UserContext(), in.Rows); err != nil {
		return writeError(c, err)
	}
	return h.ListCategoryMargins(c)
}
