package twin

import (
	"math"
	"strings"
)

const (
	DefaultDataMaturityIndex = 50.0
	DefaultAIMaturityScore   = 50.0
	DefaultRevenue           = 5_000_000.0
	DefaultMarginPct         = 10.0
	DefaultRiskScore         = 50.0
	DefaultRiskLevel         = "medium"

	// defaultValuationMultiple applies when no valuation is supplied.
	defaultValuationMultiple = 2.5
)

var (
	maturityDimensions = map[string]bool{
		"collection": true, "storage": true, "integration": true, "governance": true,
		"accessibility": true, "automation": true, "ai_usage": true, "deployment": true,
	}
	riskSubScores = map[string]bool{
		"ai_misalignment": true, "infrastructure": true, "operational": true, "strategic": true,
	}
	riskLevels  = map[string]bool{"low": true, "medium": true, "high": true, "critical": true}
	gapPriority = map[string]bool{"low": true, "medium": true, "high": true}
)

// Context bundles the partial metrics supplied by upstream scorers. Nil fields are absent.
type Context struct {
	Maturity     MaturityInput   `json:"maturity,omitempty" yaml:"maturity"`
	Financial    FinancialInput  `json:"financial,omitempty" yaml:"financial"`
	Risk         RiskInput       `json:"risk,omitempty" yaml:"risk"`
	Capabilities CapabilityInput `json:"capabilities,omitempty" yaml:"capabilities"`
	Roadmap      RoadmapInput    `json:"roadmap,omitempty" yaml:"roadmap"`
}

type MaturityInput struct {
	DataMaturityIndex *float64           `json:"data_maturity_index,omitempty" yaml:"data_maturity_index"`
	DataMaturityStage *int               `json:"data_maturity_stage,omitempty" yaml:"data_maturity_stage"`
	AIMaturityScore   *float64           `json:"ai_maturity_score,omitempty" yaml:"ai_maturity_score"`
	AIMaturityStage   *int               `json:"ai_maturity_stage,omitempty" yaml:"ai_maturity_stage"`
	Dimensions        map[string]float64 `json:"dimensions,omitempty" yaml:"dimensions"`
}

type FinancialInput struct {
	Revenue       *float64 `json:"revenue,omitempty" yaml:"revenue"`
	MarginPct     *float64 `json:"margin_pct,omitempty" yaml:"margin_pct"`
	Valuation     *float64 `json:"valuation,omitempty" yaml:"valuation"`
	RevenueUpside *float64 `json:"revenue_upside,omitempty" yaml:"revenue_upside"`
	CostReduction *float64 `json:"cost_reduction,omitempty" yaml:"cost_reduction"`
}

type RiskInput struct {
	Score     *float64           `json:"score,omitempty" yaml:"score"`
	Level     string             `json:"level,omitempty" yaml:"level"`
	SubScores map[string]float64 `json:"sub_scores,omitempty" yaml:"sub_scores"`
}

type CapabilityInput struct {
	OpenGaps         *int            `json:"open_gaps,omitempty" yaml:"open_gaps"`
	HighPriorityGaps *int            `json:"high_priority_gaps,omitempty" yaml:"high_priority_gaps"`
	FocusAreas       []string        `json:"focus_areas,omitempty" yaml:"focus_areas"`
	TopGaps          []CapabilityGap `json:"top_gaps,omitempty" yaml:"top_gaps"`
}

type RoadmapInput struct {
	TotalInitiatives   *int     `json:"total_initiatives,omitempty" yaml:"total_initiatives"`
	Completed          *int     `json:"completed,omitempty" yaml:"completed"`
	InProgress         *int     `json:"in_progress,omitempty" yaml:"in_progress"`
	TargetDataMaturity *float64 `json:"target_data_maturity,omitempty" yaml:"target_data_maturity"`
	TargetAIMaturity   *float64 `json:"target_ai_maturity,omitempty" yaml:"target_ai_maturity"`
	ProgressPct        *float64 `json:"progress_pct,omitempty" yaml:"progress_pct"`
}

// Populated is a fully defaulted and clamped context.
type Populated struct {
	Maturity     Maturity
	Financial    Financial
	Risk         Risk
	Capabilities Capabilities
	Roadmap      Roadmap
}

// Normalize fills every absent field with its default and clamps every bounded field.
// The result shares no maps or slices with c.
func Normalize(c Context) Populated {
	return Populated{
		Maturity:     normalizeMaturity(c.Maturity),
		Financial:    normalizeFinancial(c.Financial),
		Risk:         normalizeRisk(c.Risk),
		Capabilities: normalizeCapabilities(c.Capabilities),
		Roadmap:      normalizeRoadmap(c.Roadmap),
	}
}

func normalizeMaturity(in MaturityInput) Maturity {
	m := Maturity{
		DataMaturityIndex: clampPct(floatOr(in.DataMaturityIndex, DefaultDataMaturityIndex)),
		AIMaturityScore:   clampPct(floatOr(in.AIMaturityScore, DefaultAIMaturityScore)),
	}
	if in.DataMaturityStage != nil {
		m.DataMaturityStage = clampInt(*in.DataMaturityStage, 1, 6)
	} else {
		m.DataMaturityStage = DataStageForIndex(m.DataMaturityIndex)
	}
	if in.AIMaturityStage != nil {
		m.AIMaturityStage = clampInt(*in.AIMaturityStage, 1, 7)
	} else {
		m.AIMaturityStage = AIStageForScore(m.AIMaturityScore)
	}
	m.Dimensions = filterScores(in.Dimensions, maturityDimensions)
	return m
}

func normalizeFinancial(in FinancialInput) Financial {
	revenue := amount(floatOr(in.Revenue, DefaultRevenue))
	margin := clampPct(floatOr(in.MarginPct, DefaultMarginPct))
	valuation := amount(floatOr(in.Valuation, revenue*defaultValuationMultiple))
	return Financial{
		Revenue:       revenue,
		Profit:        amount(revenue * (margin / 100)),
		MarginPct:     margin,
		Valuation:     valuation,
		RevenueUpside: nonNegative(in.RevenueUpside),
		CostReduction: nonNegative(in.CostReduction),
	}
}

func normalizeRisk(in RiskInput) Risk {
	r := Risk{Score: clampPct(floatOr(in.Score, DefaultRiskScore))}
	level := strings.ToLower(strings.TrimSpace(in.Level))
	switch {
	case riskLevels[level]:
		r.Level = level
	case level == "":
		r.Level = DefaultRiskLevel
	default:
		r.Level = RiskLevelForScore(r.Score)
	}
	r.SubScores = filterScores(in.SubScores, riskSubScores)
	return r
}

func normalizeCapabilities(in CapabilityInput) Capabilities {
	open := max(0, intOr(in.OpenGaps, 0))
	c := Capabilities{
		OpenGaps:         open,
		HighPriorityGaps: clampInt(intOr(in.HighPriorityGaps, 0), 0, open),
		FocusAreas:       []string{},
		TopGaps:          []CapabilityGap{},
	}
	for _, area := range in.FocusAreas {
		if a := strings.TrimSpace(area); a != "" {
			c.FocusAreas = append(c.FocusAreas, a)
		}
	}
	for _, g := range in.TopGaps {
		p := strings.ToLower(strings.TrimSpace(g.Priority))
		if !gapPriority[p] {
			p = "medium"
		}
		c.TopGaps = append(c.TopGaps, CapabilityGap{
			Description: strings.TrimSpace(g.Description),
			Area:        strings.TrimSpace(g.Area),
			Priority:    p,
		})
	}
	return c
}

func normalizeRoadmap(in RoadmapInput) Roadmap {
	total := max(0, intOr(in.TotalInitiatives, 0))
	completed := clampInt(intOr(in.Completed, 0), 0, total)
	r := Roadmap{
		TotalInitiatives: total,
		Completed:        completed,
		InProgress:       clampInt(intOr(in.InProgress, 0), 0, total-completed),
	}
	if in.TargetDataMaturity != nil {
		v := clampPct(*in.TargetDataMaturity)
		r.TargetDataMaturity = &v
	}
	if in.TargetAIMaturity != nil {
		v := clampPct(*in.TargetAIMaturity)
		r.TargetAIMaturity = &v
	}
	switch {
	case in.ProgressPct != nil:
		r.ProgressPct = clampPct(*in.ProgressPct)
	case total > 0:
		r.ProgressPct = float64(completed) / float64(total) * 100
	}
	return r
}

// ContextFromState turns a snapshot back into a fully specified context, so that a
// stored state can be rebuilt or re-simulated.
func ContextFromState(s TwinState) Context {
	m, f, r, c, rm := s.Maturity.clone(), s.Financial.clone(), s.Risk.clone(), s.Capabilities.clone(), s.Roadmap.clone()
	return Context{
		Maturity: MaturityInput{
			DataMaturityIndex: &m.DataMaturityIndex,
			DataMaturityStage: &m.DataMaturityStage,
			AIMaturityScore:   &m.AIMaturityScore,
			AIMaturityStage:   &m.AIMaturityStage,
			Dimensions:        m.Dimensions,
		},
		Financial: FinancialInput{
			Revenue:       &f.Revenue,
			MarginPct:     &f.MarginPct,
			Valuation:     &f.Valuation,
			RevenueUpside: f.RevenueUpside,
			CostReduction: f.CostReduction,
		},
		Risk: RiskInput{Score: &r.Score, Level: r.Level, SubScores: r.SubScores},
		Capabilities: CapabilityInput{
			OpenGaps:         &c.OpenGaps,
			HighPriorityGaps: &c.HighPriorityGaps,
			FocusAreas:       c.FocusAreas,
			TopGaps:          c.TopGaps,
		},
		Roadmap: RoadmapInput{
			TotalInitiatives:   &rm.TotalInitiatives,
			Completed:          &rm.Completed,
			InProgress:         &rm.InProgress,
			TargetDataMaturity: rm.TargetDataMaturity,
			TargetAIMaturity:   rm.TargetAIMaturity,
			ProgressPct:        &rm.ProgressPct,
		},
	}
}

// DataStageForIndex maps a 0-100 data maturity index onto stages 1-6.
func DataStageForIndex(index float64) int {
	return clampInt(1+int(math.Floor(clampPct(index)*5/100)), 1, 6)
}

// AIStageForScore maps a 0-100 AI maturity score onto stages 1-7.
func AIStageForScore(score float64) int {
	return clampInt(1+int(math.Floor(clampPct(score)*6/100)), 1, 7)
}

func RiskLevelForScore(score float64) string {
	switch {
	case score < 25:
		return "low"
	case score < 50:
		return "medium"
	case score < 75:
		return "high"
	default:
		return "critical"
	}
}

func filterScores(in map[string]float64, allowed map[string]bool) map[string]float64 {
	var out map[string]float64
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		if !allowed[key] {
			continue
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[key] = clampPct(v)
	}
	return out
}

func nonNegative(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	c := amount(*v)
	return &c
}

// amount bounds a currency value to [0, MaxFloat64] so it always encodes as JSON.
// NaN becomes 0 and +Inf the largest finite value.
func amount(v float64) float64 {
	return clamp(v, 0, math.MaxFloat64)
}

func floatOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func clampPct(v float64) float64 {
	return clamp(v, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(hi, max(lo, v))
}
