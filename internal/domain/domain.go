package domain

import "twinline/internal/twin"

// Snapshot is a persisted twin state.
type Snapshot struct {
	ID        string         `json:"id"`
	OrgID     string         `json:"org_id"`
	Label     string         `json:"label,omitempty"`
	StateTS   string         `json:"state_ts" format:"date-time"`
	CreatedBy string         `json:"created_by"`
	CreatedAt string         `json:"created_at" format:"date-time"`
	State     twin.TwinState `json:"state"`
}

// SimulationRecord is one stored simulation run. SnapshotID is empty when the run started
// from an unsaved state.
type SimulationRecord struct {
	ID            string                  `json:"id"`
	OrgID         string                  `json:"org_id"`
	SnapshotID    string                  `json:"snapshot_id,omitempty"`
	HorizonMonths int                     `json:"horizon_months"`
	CreatedBy     string                  `json:"created_by"`
	CreatedAt     string                  `json:"created_at" format:"date-time"`
	Result        twin.SimulatedTwinState `json:"result"`
}

type PlanRecord struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  string    `json:"created_at" format:"date-time"`
	Plan       twin.Plan `json:"plan"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	OrgID      string `json:"org_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
