package server

import (
	"encoding/json"
	"time"

	"twinline/internal/domain"
	"twinline/internal/twin"
)

type BuildStateRequest struct {
	Context   twin.Context `json:"context,omitempty"`
	Label     string       `json:"label,omitempty" example:"q3-baseline"`
	Timestamp *time.Time   `json:"timestamp,omitempty" doc:"Snapshot time; defaults to now"`
	Save      bool         `json:"save,omitempty" doc:"Persist the state as a snapshot"`
}

type SimulateRequest struct {
	SnapshotID    string              `json:"snapshot_id,omitempty" doc:"Start from a saved snapshot instead of the current state"`
	Context       *twin.Context       `json:"context,omitempty" doc:"Start from an ad-hoc context instead of the current state"`
	HorizonMonths int                 `json:"horizon_months,omitempty" example:"12" doc:"Clamped to [1,60]; 0 uses the configured default"`
	Interventions []twin.Intervention `json:"interventions,omitempty"`
}

type OptimizeRequest struct {
	SnapshotID string        `json:"snapshot_id,omitempty"`
	Context    *twin.Context `json:"context,omitempty"`
	Goal       twin.Goal     `json:"goal"`
}

// SnapshotSummary is the list view of a snapshot; the full state is served by id.
type SnapshotSummary struct {
	ID                string  `json:"id"`
	Label             string  `json:"label,omitempty"`
	StateTS           string  `json:"state_ts" format:"date-time"`
	CreatedBy         string  `json:"created_by"`
	CreatedAt         string  `json:"created_at" format:"date-time"`
	DataMaturityIndex float64 `json:"data_maturity_index"`
	AIMaturityScore   float64 `json:"ai_maturity_score"`
	RiskScore         float64 `json:"risk_score"`
	Revenue           float64 `json:"revenue"`
}

type snapshotList struct {
	Items []SnapshotSummary `json:"items"`
}

type simulationList struct {
	Items []domain.SimulationRecord `json:"items"`
}

type planList struct {
	Items []domain.PlanRecord `json:"items"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	OrgID      string         `json:"org_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func snapshotSummary(s domain.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		ID:                s.ID,
		Label:             s.Label,
		StateTS:           s.StateTS,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt,
		DataMaturityIndex: s.State.Maturity.DataMaturityIndex,
		AIMaturityScore:   s.State.Maturity.AIMaturityScore,
		RiskScore:         s.State.Risk.Score,
		Revenue:           s.State.Financial.Revenue,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		OrgID:      e.OrgID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}
