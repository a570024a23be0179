package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/application/ingest"
)

// IngestHandler subida de facturas (sugerencia de IVA) y hojas de compras.
type IngestHandler struct {
	uc       *ingest.UseCase
	maxBytes int64
}

// NewIngestHandler construye el handler. maxMB <= 0 usa 10 MB.
func NewIngestHandler(uc *ingest.UseCase, maxMB int) *IngestHandler {
	if maxMB <= 0 {
		maxMB = 10
	}
	return &IngestHandler{uc: uc, maxBytes: int64(maxMB) << 20}
}

type uploadError struct {
	status int
	body   dto.ErrorResponse
}

// readUpload lee el campo multipart "file".
func (h *IngestHandler) readUpload(c *fiber.Ctx) (string, []byte, *uploadError) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, &uploadError{fiber.StatusBadRequest, dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo multipart 'file' requerido"}}
	}
	if fh.Size > h.maxBytes {
		return "", nil, &uploadError{fiber.StatusRequestEntityTooLarge, dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: "fichero demasiado grande"}}
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, &uploadError{fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()}}
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes))
	if err != nil {
		return "", nil, &uploadError{fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()}}
	}
	return fh.Filename, data, nil
}

// TaxHint godoc
// @Summary      Sugerir IVA de una factura
// @Description  Busca "21%" o "10%" en el texto del PDF. Otros formatos devuelven el 10% por defecto.
// @Tags         purchases
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Factura"
// @Success      200  {object}  dto.TaxHintResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/purchases/tax-hint [post]
func (h *IngestHandler) TaxHint(c *fiber.Ctx) error {
	name, data, uerr := h.readUpload(c)
	if uerr != nil {
		return c.Status(uerr.status).JSON(uerr.body)
	}
	return c.JSON(h.uc.SuggestIVA(c.UserContext(), name, data))
}

// Import godoc
// @Summary      Importar compras desde Excel
// @Description  Añade al histórico las filas de la primera hoja. iva_rate rellena las filas sin IVA.
// @Tags         purchases
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true   "Hoja .xlsx"
// @Param        iva_rate  formData  number  false  "IVA para filas sin IVA"
// @Success      201  {object}  map[string]int
// @Failure      400  {object}  dto.ValidationErrorResponse
// @Router       /api/purchases/import [post]
func (h *IngestHandler) Import(c *fiber.Ctx) error {
	name, data, uerr := h.readUpload(c)
	if uerr != nil {
		return c.Status(uerr.status).JSON(uerr.body)
	}
	var iva decimal.NullDecimal
	if raw := strings.TrimSpace(c.FormValue("iva_rate")); raw != "" {
		d, perr := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
		if perr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_IVA", Message: "iva_rate debe ser un número"})
		}
		iva = decimal.NewNullDecimal(d)
	}
	n, err := h.uc.ImportPurchases(c.UserContext(), name, data, iva)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"appended": n})
}
