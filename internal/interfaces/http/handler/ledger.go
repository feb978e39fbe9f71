package handler

import (
	allocationapp "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles stock transaction ledger API endpoints. The
// ledger is append-only; these endpoints are read-only except for the
// archive export.
type LedgerHandler struct {
	BaseHandler
	service        *allocationapp.StockOperationsService
	archiveService *allocationapp.LedgerArchiveService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	service *allocationapp.StockOperationsService,
	archiveService *allocationapp.LedgerArchiveService,
) *LedgerHandler {
	return &LedgerHandler{
		service:        service,
		archiveService: archiveService,
	}
}

// List godoc
// @ID           listLedgerEntries
// @Summary      List ledger entries
// @Description  Lists stock transactions newest first with optional product, dealer, type, reference and date range filters
// @Tags         ledger
// @Produce      json
// @Param        product_id query string false "Filter by product"
// @Param        dealer_id query string false "Filter by dealer"
// @Param        transaction_type query string false "Filter by type" Enums(IN, OUT, TRANSFER, ADJUSTMENT)
// @Param        reference_number query string false "Filter by reference number"
// @Param        from_date query string false "Start of date range (RFC3339)"
// @Param        to_date query string false "End of date range (RFC3339)"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]allocationapp.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /ledger [get]
func (h *LedgerHandler) List(c *gin.Context) {
	var filter allocationapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getLedgerEntry
// @Summary      Get a ledger entry by ID
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} APIResponse[allocationapp.TransactionResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /ledger/{id} [get]
func (h *LedgerHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.GetTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByReference godoc
// @ID           getLedgerEntriesByReference
// @Summary      Get ledger entries by reference number
// @Description  Returns all entries sharing a reference number, e.g. both legs of a transfer
// @Tags         ledger
// @Produce      json
// @Param        reference path string true "Reference number"
// @Success      200 {object} APIResponse[[]allocationapp.TransactionResponse]
// @Router       /ledger/reference/{reference} [get]
func (h *LedgerHandler) GetByReference(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		h.BadRequest(c, "Reference number is required")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.GetTransactionsByReference(c.Request.Context(), tenantID, reference)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// SummarizeByDealer godoc
// @ID           summarizeLedgerByDealer
// @Summary      Summarize ledger movement for a dealer
// @Description  Aggregates inbound and outbound quantities and entry counts for one dealer
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Dealer ID"
// @Success      200 {object} APIResponse[allocation.LedgerSummary]
// @Failure      400 {object} ErrorResponse
// @Router       /ledger/summary/dealers/{id} [get]
func (h *LedgerHandler) SummarizeByDealer(c *gin.Context) {
	dealerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid dealer ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.SummarizeLedgerByDealer(c.Request.Context(), tenantID, dealerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// SummarizeByProduct godoc
// @ID           summarizeLedgerByProduct
// @Summary      Summarize ledger movement for a product
// @Description  Aggregates inbound and outbound quantities and entry counts for one product across all dealers
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} APIResponse[allocation.LedgerSummary]
// @Failure      400 {object} ErrorResponse
// @Router       /ledger/summary/products/{id} [get]
func (h *LedgerHandler) SummarizeByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.SummarizeLedgerByProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Archive godoc
// @ID           archiveLedger
// @Summary      Export a ledger slice to object storage
// @Description  Serializes the selected ledger slice to CSV, uploads it and returns a time-limited download URL
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.ArchiveRequest true "Slice selection"
// @Success      200 {object} APIResponse[allocationapp.ArchiveResult]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /ledger/archive [post]
func (h *LedgerHandler) Archive(c *gin.Context) {
	var req allocationapp.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.archiveService.Archive(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
