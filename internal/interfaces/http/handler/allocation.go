package handler

import (
	allocationapp "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AllocationHandler handles allocation management API endpoints
type AllocationHandler struct {
	BaseHandler
	service *allocationapp.StockOperationsService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(service *allocationapp.StockOperationsService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// Create godoc
// @ID           createAllocation
// @Summary      Create an allocation
// @Description  Creates an allocation for a product-dealer pair with optional thresholds and an initial quantity
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Param        request body allocationapp.CreateAllocationRequest true "Allocation to create"
// @Success      201 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /allocations [post]
func (h *AllocationHandler) Create(c *gin.Context) {
	var req allocationapp.CreateAllocationRequest
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

	result, err := h.service.CreateAllocation(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// Update godoc
// @ID           updateAllocation
// @Summary      Update an allocation
// @Description  Updates thresholds, priority and metadata. Quantities are only mutable through stock operations.
// @Tags         allocations
// @Accept       json
// @Produce      json
// @Param        id path string true "Allocation ID"
// @Param        request body allocationapp.UpdateAllocationRequest true "Fields to update"
// @Success      200 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /allocations/{id} [put]
func (h *AllocationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID")
		return
	}

	var req allocationapp.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.UpdateAllocation(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Delete godoc
// @ID           deleteAllocation
// @Summary      Deactivate an allocation
// @Description  Soft-deletes an allocation. The ledger history is retained.
// @Tags         allocations
// @Produce      json
// @Param        id path string true "Allocation ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /allocations/{id} [delete]
func (h *AllocationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	if err := h.service.DeleteAllocation(c.Request.Context(), tenantID, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Get godoc
// @ID           getAllocation
// @Summary      Get an allocation by ID
// @Tags         allocations
// @Produce      json
// @Param        id path string true "Allocation ID"
// @Success      200 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /allocations/{id} [get]
func (h *AllocationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.GetAllocation(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByKey godoc
// @ID           getAllocationByKey
// @Summary      Get an allocation by product and dealer
// @Tags         allocations
// @Produce      json
// @Param        product_id query string true "Product ID"
// @Param        dealer_id query string true "Dealer ID"
// @Success      200 {object} APIResponse[allocationapp.AllocationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /allocations/by-key [get]
func (h *AllocationHandler) GetByKey(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	dealerID, err := uuid.Parse(c.Query("dealer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid dealer ID")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.GetAllocationByKey(c.Request.Context(), tenantID, productID, dealerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @ID           listAllocations
// @Summary      List allocations
// @Description  Lists allocations with optional product, dealer and status filters
// @Tags         allocations
// @Produce      json
// @Param        product_id query string false "Filter by product"
// @Param        dealer_id query string false "Filter by dealer"
// @Param        status query string false "Filter by status" Enums(ACTIVE, SUSPENDED, OUT_OF_STOCK)
// @Param        include_inactive query bool false "Include deactivated allocations"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]allocationapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /allocations [get]
func (h *AllocationHandler) List(c *gin.Context) {
	var filter allocationapp.AllocationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.service.ListAllocations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
