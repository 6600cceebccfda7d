package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/model"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// InvoiceHandler handles HTTP requests for invoices and proformas
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// RegisterRoutes registers the handler's routes. manage guards the routes
// reserved for owners and admins.
func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup, manage gin.HandlerFunc) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/quote", h.QuoteInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/summary", h.GetReceivablesSummary)
		invoices.GET("/:invoiceId", h.GetInvoice)
		invoices.PUT("/:invoiceId", manage, h.UpdateInvoice)
		invoices.PATCH("/:invoiceId", manage, h.UpdateInvoice)
		invoices.POST("/:invoiceId/convert", manage, h.ConvertProformaToInvoice)
		invoices.DELETE("/:invoiceId", manage, h.DeleteInvoice)
	}
}

func toCreateInput(req *model.CreateInvoiceRequest) service.CreateInvoiceInput {
	return service.CreateInvoiceInput{
		DocumentType:    req.Type,
		InvoiceNumber:   req.InvoiceNumber,
		InvoiceDate:     req.InvoiceDate,
		DueDate:         req.DueDate,
		Currency:        req.Currency,
		BillFrom:        req.BillFrom,
		BillTo:          req.BillTo,
		Items:           req.LineItems(),
		Notes:           req.Notes,
		Terms:           req.Terms,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		AmountPaid:      req.AmountPaid,
		Status:          req.Status,
		PaymentNote:     req.PaymentNote,
	}
}

func toUpdateInput(req *model.UpdateInvoiceRequest) service.UpdateInvoiceInput {
	return service.UpdateInvoiceInput{
		InvoiceDate:     req.InvoiceDate,
		DueDate:         req.DueDate,
		Currency:        req.Currency,
		BillFrom:        req.BillFrom,
		BillTo:          req.BillTo,
		Items:           req.LineItems(),
		Notes:           req.Notes,
		Terms:           req.Terms,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		GrandTotal:      req.GrandTotal,
		AmountPaid:      req.AmountPaid,
		Status:          req.Status,
		PaymentNote:     req.PaymentNote,
	}
}

// CreateInvoice handles the POST /invoices endpoint
// @Summary Create an invoice or proforma
// @Description Computes totals from tax-inclusive unit prices (VAT 15%, NHIL 2.5%, GETFund 2.5%), derives the payment status and stores the document. Catalog-linked lines deduct stock after the invoice is stored.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body model.CreateInvoiceRequest true "Invoice data"
// @Success 201 {object} model.InvoiceResponse "Invoice created successfully"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	var req model.CreateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	result, err := h.invoiceService.CreateInvoice(c.Request.Context(), actor, toCreateInput(&req))
	if err != nil {
		respondServiceError(c, "create_invoice_failed", err)
		return
	}

	respondCreated(c, model.InvoiceResponse{Invoice: result.Invoice, Warnings: result.Warnings})
}

// QuoteInvoice handles the POST /invoices/quote endpoint
// @Summary Preview invoice totals
// @Description Runs the same computation as invoice creation without storing anything
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoice body model.CreateInvoiceRequest true "Invoice data"
// @Success 200 {object} model.InvoiceResponse "Computed invoice"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Router /v1/invoices/quote [post]
func (h *InvoiceHandler) QuoteInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	var req model.CreateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	result, err := h.invoiceService.QuoteInvoice(c.Request.Context(), actor, toCreateInput(&req))
	if err != nil {
		respondServiceError(c, "quote_invoice_failed", err)
		return
	}

	respondOK(c, model.InvoiceResponse{Invoice: result.Invoice, Warnings: result.Warnings})
}

// GetInvoice handles the GET /invoices/{invoiceId} endpoint
// @Summary Get an invoice
// @Description Get an invoice or proforma owned by the caller's team
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} domain.Invoice "Invoice"
// @Failure 403 {object} model.ErrorResponse "Invoice belongs to another team"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	invoiceID, err := getPathParam(c, "invoiceId")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), actor, invoiceID)
	if err != nil {
		respondServiceError(c, "get_invoice_failed", err)
		return
	}

	respondOK(c, inv)
}

// ListInvoices handles the GET /invoices endpoint
// @Summary List invoices
// @Description Get a paginated list of the team's invoices with optional filters
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param type query string false "Document type" Enums(invoice, proforma)
// @Param status query string false "Payment status"
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} model.InvoicesListResponse "List of invoices"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Router /v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	page, err := getQueryInt(c, "page", 1)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("page", err.Error()))
		return
	}
	limit, err := getQueryInt(c, "limit", 10)
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("limit", err.Error()))
		return
	}
	if err := validatePagination(page, limit); err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("pagination", err.Error()))
		return
	}

	filter := domain.InvoiceFilter{
		Status: domain.InvoiceStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}

	switch docType := strings.ToLower(c.Query("type")); docType {
	case "":
	case string(domain.DocumentTypeInvoice), string(domain.DocumentTypeProforma):
		filter.DocumentType = domain.DocumentType(docType)
	default:
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("type", "must be invoice or proforma"))
		return
	}

	startDate, err := parseDate(c.Query("startDate"))
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("startDate", err.Error()))
		return
	}
	if !startDate.IsZero() {
		filter.StartDate = &startDate
	}

	endDate, err := parseDate(c.Query("endDate"))
	if err != nil {
		respondBadRequest(c, ErrInvalidQueryParams, newErrorDetail("endDate", err.Error()))
		return
	}
	if !endDate.IsZero() {
		filter.EndDate = &endDate
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), actor, filter)
	if err != nil {
		respondServiceError(c, "list_invoices_failed", err)
		return
	}

	var response model.InvoicesListResponse
	response.FromDomain(result)
	respondOK(c, response)
}

// UpdateInvoice handles the PUT/PATCH /invoices/{invoiceId} endpoint
// @Summary Update an invoice
// @Description Partially update an invoice. Resubmitted items replace the lines and their client-supplied breakdown becomes the totals; otherwise stored totals are kept unless grandTotal is given. Payment status and balance are always re-derived.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param invoice body model.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} domain.Invoice "Updated invoice"
// @Failure 400 {object} model.ErrorResponse "Invalid input"
// @Failure 403 {object} model.ErrorResponse "Forbidden"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	invoiceID, err := getPathParam(c, "invoiceId")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.UpdateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	inv, err := h.invoiceService.UpdateInvoice(c.Request.Context(), actor, invoiceID, toUpdateInput(&req))
	if err != nil {
		respondServiceError(c, "update_invoice_failed", err)
		return
	}

	respondOK(c, inv)
}

// ConvertProformaToInvoice handles the POST /invoices/{invoiceId}/convert endpoint
// @Summary Convert a proforma to an invoice
// @Description Converts a fully paid proforma into a new formal invoice. A proforma can be converted only once.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Proforma ID"
// @Success 201 {object} domain.Invoice "The new invoice"
// @Failure 400 {object} model.ErrorResponse "Not a proforma, not fully paid or already converted"
// @Failure 403 {object} model.ErrorResponse "Forbidden"
// @Failure 404 {object} model.ErrorResponse "Proforma not found"
// @Failure 409 {object} model.ErrorResponse "Converted by a concurrent request"
// @Router /v1/invoices/{invoiceId}/convert [post]
func (h *InvoiceHandler) ConvertProformaToInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	proformaID, err := getPathParam(c, "invoiceId")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	inv, err := h.invoiceService.ConvertProformaToInvoice(c.Request.Context(), actor, proformaID)
	if err != nil {
		respondServiceError(c, "convert_proforma_failed", err)
		return
	}

	respondCreated(c, inv)
}

// DeleteInvoice handles the DELETE /invoices/{invoiceId} endpoint
// @Summary Delete an invoice
// @Tags invoices
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 204 "Invoice deleted"
// @Failure 403 {object} model.ErrorResponse "Forbidden"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	invoiceID, err := getPathParam(c, "invoiceId")
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), actor, invoiceID); err != nil {
		respondServiceError(c, "delete_invoice_failed", err)
		return
	}

	respondNoContent(c)
}

// GetReceivablesSummary handles the GET /invoices/summary endpoint
// @Summary Receivables summary
// @Description Counts and sums of the team's formal invoices per payment status, converted into the requested currency
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param currency query string false "Target currency (ISO 4217)" default(GHS)
// @Success 200 {object} domain.ReceivablesSummary "Summary"
// @Failure 400 {object} model.ErrorResponse "Invalid currency"
// @Failure 502 {object} model.ErrorResponse "Exchange rates unavailable"
// @Router /v1/invoices/summary [get]
func (h *InvoiceHandler) GetReceivablesSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	summary, err := h.invoiceService.GetReceivablesSummary(c.Request.Context(), actor, c.Query("currency"))
	if err != nil {
		var svcErr *service.InvoiceServiceError
		if errors.As(err, &svcErr) && svcErr.Op == "convert_currency" {
			logError(c, "currency_conversion_failed", err, nil)
			respondWithError(c, StatusBadGateway, "Exchange rates are unavailable")
			return
		}
		respondServiceError(c, "receivables_summary_failed", err)
		return
	}

	respondOK(c, summary)
}
