package narrative

import "time"

// NarrativeID identifier type
type NarrativeID string

// Narrative represents an AI-written root cause summary stored for auditing and retrieval
type Narrative struct {
	ID        NarrativeID `json:"id"`
	TenantID  string      `json:"tenant_id"`
	RunID     string      `json:"run_id,omitempty"`
	Model     string      `json:"model,omitempty"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}
