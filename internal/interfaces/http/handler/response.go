package handler

import "github.com/dealerhub/inventory/internal/interfaces/http/dto"

// The types below exist only so the swagger generator can emit typed
// schemas; handlers respond through the dto package.

// APIResponse is the documented shape of a successful response.
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the documented shape of a failed response.
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SuccessResponse is the documented shape of a bodyless acknowledgement.
// @Description Simple success response without data
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// SchedulerStatusData is the documented payload of the scan status
// endpoint.
// @Description Stock scan scheduler status
type SchedulerStatusData struct {
	Enabled        bool     `json:"enabled"`
	AvailableTypes []string `json:"available_types"`
}
