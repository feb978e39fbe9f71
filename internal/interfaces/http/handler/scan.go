package handler

import (
	"errors"
	"net/http"

	"github.com/dealerhub/inventory/internal/infrastructure/scheduler"
	"github.com/dealerhub/inventory/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ScanHandler exposes the background stock scan scheduler for manual
// triggering and inspection
type ScanHandler struct {
	BaseHandler
	trigger *scheduler.StockScanTrigger
	enabled bool
}

// NewScanHandler creates a new ScanHandler. The trigger may be nil when
// the scheduler is disabled by configuration.
func NewScanHandler(trigger *scheduler.StockScanTrigger) *ScanHandler {
	return &ScanHandler{
		trigger: trigger,
		enabled: trigger != nil,
	}
}

// TriggerScanRequest selects the scan to run
type TriggerScanRequest struct {
	ScanType string `json:"scan_type" binding:"required,oneof=STOCK_LEVELS LEDGER_ARCHIVE"`
}

// Status godoc
// @ID           getScanStatus
// @Summary      Get scan scheduler status
// @Tags         scans
// @Produce      json
// @Success      200 {object} APIResponse[SchedulerStatusData]
// @Router       /admin/scans [get]
func (h *ScanHandler) Status(c *gin.Context) {
	types := make([]string, 0, len(scheduler.AllScanTypes()))
	for _, st := range scheduler.AllScanTypes() {
		types = append(types, string(st))
	}
	h.Success(c, SchedulerStatusData{
		Enabled:        h.enabled,
		AvailableTypes: types,
	})
}

// Trigger godoc
// @ID           triggerScan
// @Summary      Trigger a scan manually
// @Description  Queues a stock level scan or ledger archive for the caller's tenant without waiting for the schedule
// @Tags         scans
// @Accept       json
// @Produce      json
// @Param        request body TriggerScanRequest true "Scan to run"
// @Success      202 {object} SuccessResponse
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /admin/scans [post]
func (h *ScanHandler) Trigger(c *gin.Context) {
	var req TriggerScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if !h.enabled {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInvalidState, "Scan scheduler is disabled")
		return
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	if err := h.trigger.TriggerManualScan(tenantID, scheduler.ScanType(req.ScanType)); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidScanType):
			h.BadRequest(c, "Unknown scan type")
		case errors.Is(err, scheduler.ErrJobQueueFull):
			h.TooManyRequests(c, "Scan queue is full, try again later")
		default:
			h.InternalError(c, "Failed to queue scan")
		}
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(nil))
}
