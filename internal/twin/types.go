package twin

import "time"

// StateVersion is stamped on every snapshot.
const StateVersion = 1

type NodeType string

const (
	NodeMaturity   NodeType = "maturity"
	NodeFinancial  NodeType = "financial"
	NodeRisk       NodeType = "risk"
	NodeCapability NodeType = "capability"
	NodeRoadmap    NodeType = "roadmap"
	NodeProcess    NodeType = "process"
)

type InterventionType string

const (
	InterventionInvestment InterventionType = "investment"
	InterventionGovernance InterventionType = "governance"
	InterventionTechnology InterventionType = "technology"
	InterventionCapability InterventionType = "capability"
	InterventionProcess    InterventionType = "process"
)

// TwinState is one snapshot of an organisation at an instant. Nodes and Edges are
// derived from Maturity, Financial and Risk and are rebuilt with the state.
type TwinState struct {
	Timestamp    time.Time    `json:"timestamp" format:"date-time"`
	Version      int          `json:"version"`
	Maturity     Maturity     `json:"maturity"`
	Financial    Financial    `json:"financial"`
	Risk         Risk         `json:"risk"`
	Capabilities Capabilities `json:"capabilities"`
	Roadmap      Roadmap      `json:"roadmap"`
	Nodes        []Node       `json:"nodes"`
	Edges        []Edge       `json:"edges"`
	Label        string       `json:"label,omitempty"`
}

type Maturity struct {
	DataMaturityIndex float64            `json:"data_maturity_index"`
	DataMaturityStage int                `json:"data_maturity_stage"`
	AIMaturityScore   float64            `json:"ai_maturity_score"`
	AIMaturityStage   int                `json:"ai_maturity_stage"`
	Dimensions        map[string]float64 `json:"dimensions,omitempty"`
}

type Financial struct {
	Revenue       float64  `json:"revenue"`
	Profit        float64  `json:"profit"`
	MarginPct     float64  `json:"margin_pct"`
	Valuation     float64  `json:"valuation"`
	RevenueUpside *float64 `json:"revenue_upside,omitempty"`
	CostReduction *float64 `json:"cost_reduction,omitempty"`
}

type Risk struct {
	Score     float64            `json:"score"`
	Level     string             `json:"level" enum:"low,medium,high,critical"`
	SubScores map[string]float64 `json:"sub_scores,omitempty"`
}

type CapabilityGap struct {
	Description string `json:"description,omitempty"`
	Area        string `json:"area,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type Capabilities struct {
	OpenGaps         int             `json:"open_gaps"`
	HighPriorityGaps int             `json:"high_priority_gaps"`
	FocusAreas       []string        `json:"focus_areas"`
	TopGaps          []CapabilityGap `json:"top_gaps"`
}

type Roadmap struct {
	TotalInitiatives   int      `json:"total_initiatives"`
	Completed          int      `json:"completed"`
	InProgress         int      `json:"in_progress"`
	TargetDataMaturity *float64 `json:"target_data_maturity,omitempty"`
	TargetAIMaturity   *float64 `json:"target_ai_maturity,omitempty"`
	ProgressPct        float64  `json:"progress_pct"`
}

// Node is a read view of one state variable.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     NodeType       `json:"type"`
	Value    float64        `json:"value"`
	Unit     string         `json:"unit,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Edge is a directed causal link. Positive strength reinforces, negative inhibits.
type Edge struct {
	SourceID string  `json:"source_id"`
	TargetID string  `json:"target_id"`
	Strength float64 `json:"strength"`
	Label    string  `json:"label"`
}

type Intervention struct {
	ID             string           `json:"id,omitempty"`
	Type           InterventionType `json:"type"`
	Target         string           `json:"target,omitempty"`
	Intensity      float64          `json:"intensity,omitempty"`
	DurationMonths int              `json:"duration_months,omitempty"`
	Description    string           `json:"description,omitempty"`
}

type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type SimulatedTwinState struct {
	State                TwinState          `json:"state"`
	FutureTimestamp      time.Time          `json:"future_timestamp" format:"date-time"`
	MonthsAhead          int                `json:"months_ahead"`
	InterventionsApplied []Intervention     `json:"interventions_applied"`
	ConfidenceInterval   ConfidenceInterval `json:"confidence_interval"`
}

type OptimizedAction struct {
	Intervention Intervention `json:"intervention"`
	StartMonth   int          `json:"start_month"`
	EndMonth     int          `json:"end_month"`
	Rationale    string       `json:"rationale,omitempty"`
}

// ProjectedState is the partial state reported as a plan's outcome.
type ProjectedState struct {
	Maturity  Maturity  `json:"maturity"`
	Financial Financial `json:"financial"`
	Risk      Risk      `json:"risk"`
}

// Plan is an optimized transformation plan.
type Plan struct {
	Goal                Goal              `json:"goal"`
	Actions             []OptimizedAction `json:"actions"`
	ProjectedFinalState ProjectedState    `json:"projected_final_state"`
	TotalDurationMonths int               `json:"total_duration_months"`
	ConfidenceScore     float64           `json:"confidence_score"`
	TradeOffs           []string          `json:"trade_offs"`
	Risks               []string          `json:"risks"`
}

// Clone returns a deep copy; the result shares no slices or maps with s.
func (s TwinState) Clone() TwinState {
	out := s
	out.Maturity = s.Maturity.clone()
	out.Financial = s.Financial.clone()
	out.Risk = s.Risk.clone()
	out.Capabilities = s.Capabilities.clone()
	out.Roadmap = s.Roadmap.clone()
	if s.Nodes != nil {
		out.Nodes = make([]Node, len(s.Nodes))
		for i, n := range s.Nodes {
			out.Nodes[i] = n
			out.Nodes[i].Metadata = cloneAnyMap(n.Metadata)
		}
	}
	if s.Edges != nil {
		out.Edges = append(make([]Edge, 0, len(s.Edges)), s.Edges...)
	}
	return out
}

func (p ProjectedState) Clone() ProjectedState {
	return ProjectedState{
		Maturity:  p.Maturity.clone(),
		Financial: p.Financial.clone(),
		Risk:      p.Risk.clone(),
	}
}

func (m Maturity) clone() Maturity {
	m.Dimensions = cloneFloatMap(m.Dimensions)
	return m
}

func (f Financial) clone() Financial {
	f.RevenueUpside = cloneFloatPtr(f.RevenueUpside)
	f.CostReduction = cloneFloatPtr(f.CostReduction)
	return f
}

func (r Risk) clone() Risk {
	r.SubScores = cloneFloatMap(r.SubScores)
	return r
}

func (c Capabilities) clone() Capabilities {
	if c.FocusAreas != nil {
		c.FocusAreas = append(make([]string, 0, len(c.FocusAreas)), c.FocusAreas...)
	}
	if c.TopGaps != nil {
		c.TopGaps = append(make([]CapabilityGap, 0, len(c.TopGaps)), c.TopGaps...)
	}
	return c
}

func (r Roadmap) clone() Roadmap {
	r.TargetDataMaturity = cloneFloatPtr(r.TargetDataMaturity)
	r.TargetAIMaturity = cloneFloatPtr(r.TargetAIMaturity)
	return r
}

func cloneFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
