package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jvillacis/tallerpro-api/internal/application/billing"
	"github.com/jvillacis/tallerpro-api/internal/application/dto"
	"github.com/jvillacis/tallerpro-api/internal/domain"
	domainsri "github.com/jvillacis/tallerpro-api/internal/domain/sri"
	"github.com/jvillacis/tallerpro-api/pkg/logger"
)

// BillingHandler expone la emisión y consulta de comprobantes electrónicos.
type BillingHandler struct {
	issueUC *billing.IssueInvoiceUseCase
	log     *logger.Logger
}

func NewBillingHandler(issueUC *billing.IssueInvoiceUseCase, log *logger.Logger) *BillingHandler {
	return &BillingHandler{issueUC: issueUC, log: log}
}

// IssueInvoice emite la factura electrónica de una venta: genera, firma,
// envía al SRI y consulta la autorización. POST /api/sales/:id/invoice
func (h *BillingHandler) IssueInvoice(c *fiber.Ctx) error {
	tallerID := GetTallerID(c)
	if tallerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "taller no identificado"})
	}
	saleID := c.Params("id")
	if saleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAM", Message: "id de venta requerido"})
	}

	inv, err := h.issueUC.Issue(c.Context(), tallerID, saleID)
	if err != nil {
		return h.mapIssueError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewInvoiceResponse(inv))
}

// GetInvoice devuelve el comprobante con su estado actual. GET /api/invoices/:id
func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	tallerID := GetTallerID(c)
	if tallerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "taller no identificado"})
	}
	inv, err := h.issueUC.GetInvoice(c.Context(), tallerID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "comprobante no encontrado"})
		}
		h.log.Error().Err(err).Str("invoice_id", c.Params("id")).Msg("error consultando comprobante")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	return c.JSON(dto.NewInvoiceResponse(inv))
}

// RefreshStatus reconsulta la autorización de un comprobante ENVIADA.
// GET /api/invoices/:id/status
func (h *BillingHandler) RefreshStatus(c *fiber.Ctx) error {
	tallerID := GetTallerID(c)
	if tallerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "taller no identificado"})
	}
	inv, err := h.issueUC.RefreshStatus(c.Context(), tallerID, c.Params("id"))
	if err != nil {
		return h.mapIssueError(c, err)
	}
	return c.JSON(dto.NewInvoiceResponse(inv))
}

// DownloadXML devuelve el XML firmado (o el generado si aún no hay firma).
// GET /api/invoices/:id/xml
func (h *BillingHandler) DownloadXML(c *fiber.Ctx) error {
	tallerID := GetTallerID(c)
	if tallerID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "taller no identificado"})
	}
	inv, err := h.issueUC.GetInvoice(c.Context(), tallerID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "comprobante no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	xml := inv.XMLFirmado
	if xml == "" {
		xml = inv.XMLGenerado
	}
	if xml == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "el comprobante no tiene XML disponible"})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+inv.ClaveAcceso+`.xml"`)
	return c.SendString(xml)
}

func (h *BillingHandler) mapIssueError(c *fiber.Ctx, err error) error {
	var valErr *domainsri.ValidationError
	if errors.As(err, &valErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "VALIDATION",
			"message": "la venta no es válida para facturación electrónica",
			"issues":  valErr.Issues,
		})
	}
	var signErr *domainsri.SigningError
	if errors.As(err, &signErr) {
		h.log.Error().Err(err).Str("stage", signErr.Stage).Msg("fallo de firma")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SIGNING", Message: "no se pudo firmar el comprobante"})
	}
	var subErr *domainsri.SubmissionError
	if errors.As(err, &subErr) {
		h.log.Warn().Err(err).Str("op", subErr.Op).Msg("SRI no disponible")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "SRI_UNAVAILABLE", Message: "el SRI no respondió; reintente más tarde"})
	}
	var allocErr *domainsri.AllocationError
	if errors.As(err, &allocErr) {
		h.log.Error().Err(err).Msg("fallo asignando secuencial")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "SEQUENCE", Message: "no se pudo asignar el secuencial"})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "la venta ya tiene comprobante emitido"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "sin acceso al recurso"})
	}
	h.log.Error().Err(err).Msg("error inesperado en emisión")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
