// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"crmapi/internal/core/id"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// DataResponse wraps a payload the way list-style endpoints return it.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// NewDataResponse creates a successful DataResponse.
func NewDataResponse(data any) DataResponse {
	return DataResponse{Success: true, Data: data}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HistoryQuery bounds an audit history listing.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Defaults sets the default limit.
func (q *HistoryQuery) Defaults() {
	if q.Limit == 0 {
		q.Limit = 50
	}
}
