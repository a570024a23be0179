package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/pricing"
)

// PricingHandler consulta de costes y precios, y exportación de la carta.
type PricingHandler struct {
	uc   *pricing.UseCase
	xlsx pricing.PriceListRenderer
	pdf  pricing.PriceListRenderer
}

// NewPricingHandler construye el handler. Los renderers nil desactivan su exportación.
func NewPricingHandler(uc *pricing.UseCase, xlsx, pdf pricing.PriceListRenderer) *PricingHandler {
	return &PricingHandler{uc: uc, xlsx: xlsx, pdf: pdf}
}

// overheadParam lee ?overhead=; ausente = overhead configurado. Acepta coma decimal.
func overheadParam(c *fiber.Ctx) (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(c.Query("overhead"))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func invalidOverhead(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_OVERHEAD", Message: "overhead debe ser un número"})
}

// Costs godoc
// @Summary      Tabla de costes efectivos
// @Description  Último coste neto por (ingrediente, unidad) con la merma aplicada.
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CostTableResponse
// @Router       /api/costs [get]
func (h *PricingHandler) Costs(c *fiber.Ctx) error {
	out, err := h.uc.CostTable(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Prices godoc
// @Summary      PVP sugerido por producto
// @Description  Con histórico vacío responde status=insufficient_data y rows vacío.
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Param        overhead  query  number  false  "Coste fijo por ración"
// @Success      200  {object}  dto.PriceTableResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/pricing [get]
func (h *PricingHandler) Prices(c *fiber.Ctx) error {
	overhead, err := overheadParam(c)
	if err != nil {
		return invalidOverhead(c)
	}
	out, err := h.uc.PriceTable(c.UserContext(), overhead)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ExportXLSX godoc
// @Summary      Descargar carta en Excel
// @Tags         pricing
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        overhead  query  number  false  "Coste fijo por ración"
// @Success      200
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/pricing/export.xlsx [get]
func (h *PricingHandler) ExportXLSX(c *fiber.Ctx) error {
	return h.export(c, h.xlsx)
}

// ExportPDF godoc
// @Summary      Descargar carta en PDF
// @Tags         pricing
// @Security     Bearer
// @Produce      application/pdf
// @Param        overhead  query  number  false  "Coste fijo por ración"
// @Success      200
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/pricing/export.pdf [get]
func (h *PricingHandler) ExportPDF(c *fiber.Ctx) error {
	return h.export(c, h.pdf)
}

func (h *PricingHandler) export(c *fiber.Ctx, r pricing.PriceListRenderer) error {
	if r == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "EXPORT_DISABLED", Message: "formato de exportación no disponible"})
	}
	overhead, err := overheadParam(c)
	if err != nil {
		return invalidOverhead(c)
	}
	out, err := h.uc.ExportPriceList(c.UserContext(), overhead, r)
	if err != nil {
		return writeError(c, err)
	}
	c.Attachment(out.Filename)
	c.Set(fiber.HeaderContentType, out.ContentType)
	return c.Send(out.Body)
}
