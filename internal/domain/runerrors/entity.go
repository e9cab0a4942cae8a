package runerrors

import "time"

// RunError represents a persisted pipeline warning or failure entry
type RunError struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage,omitempty"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
