package twin_test

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"twinline/internal/twin"
)

var fixedTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func baseContext() twin.Context {
	return twin.Context{
		Maturity:  twin.MaturityInput{DataMaturityIndex: f64(50), AIMaturityScore: f64(50)},
		Financial: twin.FinancialInput{Revenue: f64(5_000_000), MarginPct: f64(10)},
		Risk:      twin.RiskInput{Score: f64(50)},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	p := twin.Normalize(twin.Context{})
	if p.Maturity.DataMaturityIndex != 50 || p.Maturity.AIMaturityScore != 50 {
		t.Fatalf("maturity defaults: %+v", p.Maturity)
	}
	if p.Maturity.DataMaturityStage != 3 || p.Maturity.AIMaturityStage != 4 {
		t.Fatalf("derived stages: data=%d ai=%d", p.Maturity.DataMaturityStage, p.Maturity.AIMaturityStage)
	}
	if p.Financial.Revenue != 5_000_000 {
		t.Fatalf("revenue default %f", p.Financial.Revenue)
	}
	if p.Financial.Valuation != 12_500_000 {
		t.Fatalf("valuation should default to 2.5x revenue, got %f", p.Financial.Valuation)
	}
	if p.Financial.Profit != 500_000 {
		t.Fatalf("profit = revenue x margin, got %f", p.Financial.Profit)
	}
	if p.Risk.Level != "medium" || p.Risk.Score != 50 {
		t.Fatalf("risk defaults: %+v", p.Risk)
	}
	if p.Capabilities.FocusAreas == nil || p.Capabilities.TopGaps == nil {
		t.Fatalf("slices must be non-nil")
	}
	if p.Roadmap.ProgressPct != 0 {
		t.Fatalf("progress with no initiatives: %f", p.Roadmap.ProgressPct)
	}
}

func TestNormalizeClamps(t *testing.T) {
	p := twin.Normalize(twin.Context{
		Maturity: twin.MaturityInput{
			DataMaturityIndex: f64(140),
			DataMaturityStage: intp(9),
			AIMaturityScore:   f64(-3),
			AIMaturityStage:   intp(0),
			Dimensions:        map[string]float64{"Governance": 120, "unknown": 40},
		},
		Financial: twin.FinancialInput{Revenue: f64(-10), MarginPct: f64(250), Valuation: f64(-1)},
		Risk:      twin.RiskInput{Score: f64(101), Level: "EXTREME", SubScores: map[string]float64{"operational": -5}},
		Capabilities: twin.CapabilityInput{
			OpenGaps:         intp(3),
			HighPriorityGaps: intp(7),
			TopGaps:          []twin.CapabilityGap{{Description: " gap ", Area: "data", Priority: "urgent"}},
		},
		Roadmap: twin.RoadmapInput{TotalInitiatives: intp(4), Completed: intp(6), InProgress: intp(2)},
	})
	if p.Maturity.DataMaturityIndex != 100 || p.Maturity.AIMaturityScore != 0 {
		t.Fatalf("maturity not clamped: %+v", p.Maturity)
	}
	if p.Maturity.DataMaturityStage != 6 || p.Maturity.AIMaturityStage != 1 {
		t.Fatalf("stages not clamped: %+v", p.Maturity)
	}
	if len(p.Maturity.Dimensions) != 1 || p.Maturity.Dimensions["governance"] != 100 {
		t.Fatalf("dimensions: %+v", p.Maturity.Dimensions)
	}
	if p.Financial.Revenue != 0 || p.Financial.MarginPct != 100 || p.Financial.Valuation != 0 {
		t.Fatalf("financial not clamped: %+v", p.Financial)
	}
	if p.Risk.Score != 100 || p.Risk.Level != "critical" {
		t.Fatalf("risk: %+v", p.Risk)
	}
	if p.Risk.SubScores["operational"] != 0 {
		t.Fatalf("sub score not clamped: %+v", p.Risk.SubScores)
	}
	if p.Capabilities.HighPriorityGaps != 3 {
		t.Fatalf("high priority gaps must not exceed open gaps: %d", p.Capabilities.HighPriorityGaps)
	}
	if g := p.Capabilities.TopGaps[0]; g.Priority != "medium" || g.Description != "gap" {
		t.Fatalf("gap normalisation: %+v", g)
	}
	if p.Roadmap.Completed != 4 || p.Roadmap.InProgress != 0 || p.Roadmap.ProgressPct != 100 {
		t.Fatalf("roadmap: %+v", p.Roadmap)
	}
}

func TestNormalizeNonFiniteFinancial(t *testing.T) {
	finite := func(f twin.Financial) bool {
		for _, v := range []float64{f.Revenue, f.Profit, f.Valuation} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return false
			}
		}
		return true
	}
	cases := []struct {
		name string
		in   twin.FinancialInput
		want func(twin.Financial) bool
	}{
		{"huge revenue", twin.FinancialInput{Revenue: f64(1e308)}, func(f twin.Financial) bool {
			return f.Revenue == 1e308 && f.Valuation == math.MaxFloat64
		}},
		{"infinite revenue", twin.FinancialInput{Revenue: f64(math.Inf(1))}, func(f twin.Financial) bool {
			return f.Revenue == math.MaxFloat64
		}},
		{"nan valuation", twin.FinancialInput{Revenue: f64(1000), Valuation: f64(math.NaN())}, func(f twin.Financial) bool {
			return f.Valuation == 2500
		}},
		{"negative infinite valuation", twin.FinancialInput{Valuation: f64(math.Inf(-1))}, func(f twin.Financial) bool {
			return f.Valuation == 0
		}},
		{"non-finite upside", twin.FinancialInput{RevenueUpside: f64(math.NaN()), CostReduction: f64(math.Inf(1))}, func(f twin.Financial) bool {
			return f.RevenueUpside == nil && f.CostReduction != nil && *f.CostReduction == math.MaxFloat64
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := twin.BuildState(twin.Context{Financial: tc.in}, twin.BuildOptions{Timestamp: fixedTime})
			if !finite(s.Financial) || !tc.want(s.Financial) {
				t.Fatalf("financial: %+v", s.Financial)
			}
			if _, err := json.Marshal(s); err != nil {
				t.Fatalf("state must encode: %v", err)
			}
		})
	}
}

func TestBuildStateGraph(t *testing.T) {
	s := twin.BuildState(baseContext(), twin.BuildOptions{Timestamp: fixedTime, Label: "current"})
	if s.Version != twin.StateVersion || s.Label != "current" || !s.Timestamp.Equal(fixedTime) {
		t.Fatalf("header: %+v", s)
	}
	if len(s.Nodes) != 6 || len(s.Edges) != 5 {
		t.Fatalf("graph size nodes=%d edges=%d", len(s.Nodes), len(s.Edges))
	}
	ids := map[string]bool{}
	for _, n := range s.Nodes {
		ids[n.ID] = true
	}
	for _, e := range s.Edges {
		if !ids[e.SourceID] || !ids[e.TargetID] {
			t.Fatalf("edge references unknown node: %+v", e)
		}
		if e.SourceID == "data_maturity" && e.TargetID == "risk" && e.Strength >= 0 {
			t.Fatalf("data maturity should inhibit risk: %+v", e)
		}
	}
	if s.Nodes[0].ID != "data_maturity" || s.Nodes[0].Value != 50 {
		t.Fatalf("first node: %+v", s.Nodes[0])
	}
}

func TestBuildStateDeterministic(t *testing.T) {
	ctx := baseContext()
	ctx.Risk.SubScores = map[string]float64{"strategic": 40, "operational": 60}
	a := twin.BuildState(ctx, twin.BuildOptions{Timestamp: fixedTime, Label: "L"})
	b := twin.BuildState(ctx, twin.BuildOptions{Timestamp: fixedTime, Label: "L"})
	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("non-deterministic output:\n%s\n%s", ja, jb)
	}
}

func TestBuildStateIndependentOfInput(t *testing.T) {
	ctx := baseContext()
	ctx.Capabilities.FocusAreas = []string{"analytics"}
	ctx.Maturity.Dimensions = map[string]float64{"storage": 30}
	s := twin.BuildState(ctx, twin.BuildOptions{Timestamp: fixedTime})
	ctx.Capabilities.FocusAreas[0] = "mutated"
	ctx.Maturity.Dimensions["storage"] = 99
	*ctx.Maturity.DataMaturityIndex = 1
	if s.Capabilities.FocusAreas[0] != "analytics" || s.Maturity.Dimensions["storage"] != 30 || s.Maturity.DataMaturityIndex != 50 {
		t.Fatalf("state aliased its input: %+v", s)
	}
}

func TestContextFromStateRoundTrip(t *testing.T) {
	ctx := baseContext()
	ctx.Maturity.DataMaturityStage = intp(5)
	ctx.Risk.Level = "low"
	s := twin.BuildState(ctx, twin.BuildOptions{Timestamp: fixedTime})
	again := twin.BuildState(twin.ContextFromState(s), twin.BuildOptions{Timestamp: fixedTime})
	ja, _ := json.Marshal(s)
	jb, _ := json.Marshal(again)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("round trip changed state:\n%s\n%s", ja, jb)
	}
}

func TestStageHelpers(t *testing.T) {
	cases := []struct {
		score     float64
		dataStage int
		aiStage   int
		level     string
	}{
		{0, 1, 1, "low"},
		{24.9, 2, 2, "low"},
		{49, 3, 3, "medium"},
		{74, 4, 5, "high"},
		{100, 6, 7, "critical"},
	}
	for _, tc := range cases {
		if got := twin.DataStageForIndex(tc.score); got != tc.dataStage {
			t.Errorf("DataStageForIndex(%v)=%d want %d", tc.score, got, tc.dataStage)
		}
		if got := twin.AIStageForScore(tc.score); got != tc.aiStage {
			t.Errorf("AIStageForScore(%v)=%d want %d", tc.score, got, tc.aiStage)
		}
		if got := twin.RiskLevelForScore(tc.score); got != tc.level {
			t.Errorf("RiskLevelForScore(%v)=%s want %s", tc.score, got, tc.level)
		}
	}
}
