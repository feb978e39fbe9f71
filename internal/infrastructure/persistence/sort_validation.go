package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// AllocationSortFields contains allowed sort fields for allocations
var AllocationSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"product_id":         true,
	"dealer_id":          true,
	"allocated_quantity": true,
	"reserved_quantity":  true,
	"available_quantity": true,
	"minimum_stock":      true,
	"maximum_stock":      true,
	"status":             true,
	"priority":           true,
	"last_restock_date":  true,
	"next_restock_date":  true,
}

// StockTransactionSortFields contains allowed sort fields for ledger entries
var StockTransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"transaction_date": true,
	"transaction_type": true,
	"reason":           true,
	"product_id":       true,
	"dealer_id":        true,
	"quantity":         true,
	"reference_number": true,
}
