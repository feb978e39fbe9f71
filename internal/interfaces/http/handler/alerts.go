package handler

import (
	allocationapp "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/gin-gonic/gin"
)

// AlertHandler handles stock alert reporting API endpoints
type AlertHandler struct {
	BaseHandler
	alertService *allocationapp.StockAlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService *allocationapp.StockAlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// LowStock godoc
// @ID           listLowStockAllocations
// @Summary      List allocations at or below their minimum stock
// @Tags         alerts
// @Produce      json
// @Success      200 {object} APIResponse[[]allocationapp.AllocationResponse]
// @Router       /alerts/low-stock [get]
func (h *AlertHandler) LowStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.alertService.LowStock(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// CriticalStock godoc
// @ID           listCriticalStockAllocations
// @Summary      List allocations at or below half their minimum stock
// @Tags         alerts
// @Produce      json
// @Success      200 {object} APIResponse[[]allocationapp.AllocationResponse]
// @Router       /alerts/critical-stock [get]
func (h *AlertHandler) CriticalStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.alertService.CriticalStock(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// OutOfStock godoc
// @ID           listOutOfStockAllocations
// @Summary      List allocations with no available stock
// @Tags         alerts
// @Produce      json
// @Success      200 {object} APIResponse[[]allocationapp.AllocationResponse]
// @Router       /alerts/out-of-stock [get]
func (h *AlertHandler) OutOfStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.alertService.OutOfStock(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Summary godoc
// @ID           getStockSummary
// @Summary      Get aggregate stock health counts
// @Description  Returns allocation counts by stock health bucket plus total allocated and reserved quantities
// @Tags         alerts
// @Produce      json
// @Success      200 {object} APIResponse[allocation.StockSummary]
// @Router       /alerts/summary [get]
func (h *AlertHandler) Summary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.alertService.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
