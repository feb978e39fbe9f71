package allocation

import (
	"context"
	"fmt"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowMinimumHandler reacts to StockBelowMinimum and
// AllocationOutOfStock events and forwards them as alerts
type StockBelowMinimumHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// StockAlertNotifier is the interface for delivering stock alerts.
// Implementations can support different channels (in-app, email, SMS, etc.)
type StockAlertNotifier interface {
	// SendAlert delivers a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	TenantID          string `json:"tenant_id"`
	AllocationID      string `json:"allocation_id"`
	ProductID         string `json:"product_id"`
	DealerID          string `json:"dealer_id"`
	AvailableQuantity string `json:"available_quantity"`
	MinimumStock      string `json:"minimum_stock"`
	AlertType         string `json:"alert_type"` // "low_stock", "critical_stock", "out_of_stock"
}

// NewStockBelowMinimumHandler creates a new handler for stock level events
func NewStockBelowMinimumHandler(logger *zap.Logger) *StockBelowMinimumHandler {
	return &StockBelowMinimumHandler{logger: logger}
}

// WithNotifier sets the notifier for delivering alerts
func (h *StockBelowMinimumHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowMinimumHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowMinimumHandler) EventTypes() []string {
	return []string{
		allocation.EventTypeStockBelowMinimum,
		allocation.EventTypeAllocationOutOfStock,
	}
}

// Handle processes a stock level event
func (h *StockBelowMinimumHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var alert StockAlert

	switch e := event.(type) {
	case *allocation.StockBelowMinimumEvent:
		alertType := "low_stock"
		if e.Critical {
			alertType = "critical_stock"
		}
		alert = StockAlert{
			TenantID:          event.TenantID().String(),
			AllocationID:      e.AllocationID.String(),
			ProductID:         e.ProductID.String(),
			DealerID:          e.DealerID.String(),
			AvailableQuantity: e.AvailableQuantity.String(),
			MinimumStock:      e.MinimumStock.String(),
			AlertType:         alertType,
		}
	case *allocation.AllocationOutOfStockEvent:
		alert = StockAlert{
			TenantID:     event.TenantID().String(),
			AllocationID: e.AllocationID.String(),
			ProductID:    e.ProductID.String(),
			DealerID:     e.DealerID.String(),
			AlertType:    "out_of_stock",
		}
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	h.logger.Warn("stock level alert",
		zap.String("alert_type", alert.AlertType),
		zap.String("allocation_id", alert.AllocationID),
		zap.String("product_id", alert.ProductID),
		zap.String("dealer_id", alert.DealerID),
		zap.String("available", alert.AvailableQuantity),
		zap.String("minimum", alert.MinimumStock),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// Notification failure must not fail the event handling
			h.logger.Error("failed to send stock alert notification",
				zap.String("allocation_id", alert.AllocationID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Ensure StockBelowMinimumHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockBelowMinimumHandler)(nil)

// LoggingStockAlertNotifier logs alerts; the default notifier for
// development and testing
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("dealer_id", alert.DealerID),
		zap.String("available", alert.AvailableQuantity),
		zap.String("minimum", alert.MinimumStock),
	)
	return nil
}

// Ensure LoggingStockAlertNotifier implements StockAlertNotifier
var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
