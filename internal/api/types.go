package api

import (
	"github.com/pulseboard/pulseboard-backend/internal/analytics"
	"github.com/pulseboard/pulseboard-backend/internal/db/entities"
	"github.com/pulseboard/pulseboard-backend/internal/filter"
)

// ErrorResponse is the failure envelope. Message is generic; internal detail goes to the log only.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type PostsDTO struct {
	Posts      []entities.Post      `json:"posts"`
	TotalCount int64                `json:"totalCount"`
	Filters    filter.Filter        `json:"filters"`
	Pagination analytics.Pagination `json:"pagination"`
}

type PostsResponse struct {
	Success bool     `json:"success"`
	Data    PostsDTO `json:"data"`
}

type AnalyticsDTO struct {
	analytics.Report
	Filters filter.Filter `json:"filters"`
}

type AnalyticsResponse struct {
	Success bool         `json:"success"`
	Data    AnalyticsDTO `json:"data"`
}

type DashboardDTO struct {
	analytics.DashboardMetrics
	Filters filter.Filter `json:"filters"`
}

type DashboardResponse struct {
	Success   bool         `json:"success"`
	Data      DashboardDTO `json:"data"`
	Timestamp string       `json:"timestamp"`
}

// AggregateResponse carries a single aggregate (platforms, brands, ...)
type AggregateResponse struct {
	Success bool          `json:"success"`
	Data    any           `json:"data"`
	Filters filter.Filter `json:"filters"`
}

type HealthDTO struct {
	Status  string   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
}
