package handler

import (
	allocationapp "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-chosen key that makes stock
// mutations safe to retry
const IdempotencyKeyHeader = "X-Idempotency-Key"

// StockOperationsHandler handles stock movement API endpoints
type StockOperationsHandler struct {
	BaseHandler
	service *allocationapp.StockOperationsService
}

// NewStockOperationsHandler creates a new StockOperationsHandler
func NewStockOperationsHandler(service *allocationapp.StockOperationsService) *StockOperationsHandler {
	return &StockOperationsHandler{service: service}
}

// actorID resolves the acting user from JWT claims, nil for anonymous
// development requests
func actorID(c *gin.Context) *uuid.UUID {
	id, err := getUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

// Transfer godoc
// @ID           transferStock
// @Summary      Transfer stock between dealers
// @Description  Moves a quantity of a product from one dealer's allocation to another, recording a paired ledger entry
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string false "Idempotency key for safe retries"
// @Param        request body allocationapp.TransferRequest true "Transfer request"
// @Success      200 {object} APIResponse[allocationapp.TransferResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/transfers [post]
func (h *StockOperationsHandler) Transfer(c *gin.Context) {
	var req allocationapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	result, err := h.service.Transfer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Adjust godoc
// @ID           adjustStock
// @Summary      Adjust stock manually
// @Description  Applies a signed manual correction to a dealer's allocation with a mandatory reason
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string false "Idempotency key for safe retries"
// @Param        request body allocationapp.AdjustRequest true "Adjustment request"
// @Success      200 {object} APIResponse[allocationapp.AdjustResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/adjustments [post]
func (h *StockOperationsHandler) Adjust(c *gin.Context) {
	var req allocationapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	result, err := h.service.Adjust(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Reserve godoc
// @ID           reserveStock
// @Summary      Reserve stock
// @Description  Earmarks available stock within a dealer's allocation for a pending order
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.ReserveRequest true "Reservation request"
// @Success      200 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/reservations [post]
func (h *StockOperationsHandler) Reserve(c *gin.Context) {
	var req allocationapp.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)

	result, err := h.service.Reserve(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Release godoc
// @ID           releaseStock
// @Summary      Release reserved stock
// @Description  Returns earmarked stock to the available pool, e.g. on order cancellation
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.ReleaseRequest true "Release request"
// @Success      200 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/reservations/release [post]
func (h *StockOperationsHandler) Release(c *gin.Context) {
	var req allocationapp.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)

	result, err := h.service.Release(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Deliver godoc
// @ID           deliverStock
// @Summary      Record a customer delivery
// @Description  Consumes one unit from the dealer's allocation when an order line is fulfilled. Succeeds with applied=false when no allocation exists.
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.DeliverRequest true "Delivery request"
// @Success      200 {object} APIResponse[allocationapp.DeliverResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/deliveries [post]
func (h *StockOperationsHandler) Deliver(c *gin.Context) {
	var req allocationapp.DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)

	result, err := h.service.DeliverToCustomer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Receive godoc
// @ID           receiveStock
// @Summary      Receive stock from a purchase order
// @Description  Books delivered purchase order quantities into the dealer's allocation, creating it if absent
// @Tags         stock-operations
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.ReceiveRequest true "Receipt request"
// @Success      200 {object} APIResponse[allocationapp.ReceiveResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/receipts [post]
func (h *StockOperationsHandler) Receive(c *gin.Context) {
	var req allocationapp.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	req.ActorID = actorID(c)

	result, err := h.service.ReceiveFromPurchaseOrder(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
