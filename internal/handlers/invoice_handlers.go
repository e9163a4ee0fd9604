package handlers

import (
	"net/http"
	"strconv"
	"time"

	"factura/internal/common"
	"factura/internal/jobs"
	"factura/internal/services"

	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
	exporter       *jobs.InvoiceExporter
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService, exporter *jobs.InvoiceExporter) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		exporter:       exporter,
	}
}

// GetInvoice handles GET /invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoice(ctx, id)
	if err != nil {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.JSON(http.StatusOK, invoice)
}

// ListInvoices handles GET /invoices. Passing unpaid=true narrows the list
// to invoices that still need collecting.
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var invoices interface{}
	if c.QueryParam("unpaid") == "true" {
		invoices, err = h.invoiceService.GetUnpaidInvoices(ctx, limit, offset)
	} else {
		invoices, err = h.invoiceService.ListInvoices(ctx, limit, offset)
	}
	if err != nil {
		return common.SendServerError(c, "Failed to list invoices")
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetUnpaidInvoices handles GET /invoices/unpaid
func (h *InvoiceHandlers) GetUnpaidInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoices, err := h.invoiceService.GetUnpaidInvoices(ctx, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list unpaid invoices")
	}

	return c.JSON(http.StatusOK, invoices)
}

// UpdateInvoiceStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateInvoiceStatus(req.Status); err != nil {
		return common.SendValidationError(c, "status", err.Error())
	}

	if err := h.invoiceService.UpdateInvoiceStatus(ctx, id, req.Status); err != nil {
		return common.SendValidationError(c, "status", err.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": req.Status})
}

// ExportInvoices handles GET /invoices/export
func (h *InvoiceHandlers) ExportInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	req := jobs.ExportRequest{
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
	}
	if err := common.ValidateDateFormat(req.StartDate, "start_date"); err != nil {
		return common.SendValidationError(c, "start_date", err.Error())
	}
	if err := common.ValidateDateFormat(req.EndDate, "end_date"); err != nil {
		return common.SendValidationError(c, "end_date", err.Error())
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return common.SendValidationError(c, "start_date", "start_date is required")
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return common.SendValidationError(c, "end_date", "end_date is required")
	}
	if err := common.ValidateDateRange(startDate, endDate); err != nil {
		return common.SendValidationError(c, "date_range", err.Error())
	}

	result, err := h.exporter.ExportInvoices(ctx, req)
	if err != nil {
		return common.SendServerError(c, common.SecureErrorMessage("export invoices", err).Error())
	}

	return c.JSON(http.StatusOK, result)
}
