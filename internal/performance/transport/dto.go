package transport

import "agency_portal_backend/internal/performance/service"

// DashboardResponse wraps the per-client evaluations for the overview page.
type DashboardResponse struct {
	Clients []service.Performance `json:"clients"`
	Total   int                   `json:"total"`
}
