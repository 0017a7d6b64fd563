package twin

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	MinHorizonMonths = 1
	MaxHorizonMonths = 60

	// DefaultInterventionMonths is used when an intervention has no duration.
	DefaultInterventionMonths = 12

	// Placeholder band reported with every simulation. Not derived from input variance.
	ConfidenceLow  = 0.75
	ConfidenceHigh = 0.95

	baseGrowthRate     = 0.02
	maturityGrowthRate = 0.06
	maturityMarginLift = 4.0
	baseValuationMult  = 2.0
	maturityValuation  = 1.2
)

// effect is a delta in points at intensity 1 over twelve months.
type effect struct {
	data float64
	ai   float64
	risk float64
}

// effectRule picks effects from the intervention target text. onData and onAI both apply
// when both keywords match; neither applies when none does; always applies regardless.
type effectRule struct {
	onData  effect
	onAI    effect
	neither effect
	always  effect
}

var effectTable = map[InterventionType]effectRule{
	InterventionInvestment: {onData: effect{data: 15}, onAI: effect{ai: 15}, neither: effect{data: 5, ai: 5}},
	InterventionTechnology: {onData: effect{data: 10}, onAI: effect{ai: 12}, neither: effect{data: 4, ai: 6}},
	InterventionCapability: {onData: effect{data: 8}, onAI: effect{ai: 10}, neither: effect{data: 4, ai: 4}},
	InterventionGovernance: {always: effect{data: 5, risk: -10}},
	InterventionProcess:    {always: effect{data: 3, risk: -5}},
}

// ClampHorizon bounds a simulation horizon to [1,60] months.
func ClampHorizon(months int) int {
	return clampInt(months, MinHorizonMonths, MaxHorizonMonths)
}

// NormalizeIntervention lower-cases the type, clamps intensity to [0,1] and fills the
// default duration. An empty id becomes "intervention-<n>" with n = index+1.
func NormalizeIntervention(iv Intervention, index int) Intervention {
	iv.Type = InterventionType(strings.ToLower(strings.TrimSpace(string(iv.Type))))
	iv.Target = strings.TrimSpace(iv.Target)
	iv.Intensity = clamp(iv.Intensity, 0, 1)
	if iv.DurationMonths <= 0 {
		iv.DurationMonths = DefaultInterventionMonths
	}
	if strings.TrimSpace(iv.ID) == "" {
		iv.ID = fmt.Sprintf("intervention-%d", index+1)
	}
	return iv
}

type levers struct {
	data float64
	ai   float64
	risk float64
}

func (l *levers) apply(e effect, scale float64) {
	l.data = clampPct(l.data + e.data*scale)
	l.ai = clampPct(l.ai + e.ai*scale)
	l.risk = clampPct(l.risk + e.risk*scale)
}

func (l *levers) applyIntervention(iv Intervention, horizon int) {
	rule, ok := effectTable[iv.Type]
	if !ok {
		return
	}
	scale := iv.Intensity * float64(min(iv.DurationMonths, horizon)) / 12
	target := strings.ToLower(iv.Target)
	hasData := strings.Contains(target, "data")
	hasAI := strings.Contains(target, "ai") || strings.Contains(target, "ml")
	if hasData {
		l.apply(rule.onData, scale)
	}
	if hasAI {
		l.apply(rule.onAI, scale)
	}
	if !hasData && !hasAI {
		l.apply(rule.neither, scale)
	}
	l.apply(rule.always, scale)
}

// MaturityFactor is the mean of data and AI maturity normalised to [0,1].
func MaturityFactor(dataIndex, aiScore float64) float64 {
	return (clampPct(dataIndex) + clampPct(aiScore)) / 200
}

// Simulate projects current forward by horizonMonths under interventions. now anchors the
// future timestamp and defaults to the current time when zero. current is not modified.
func Simulate(current TwinState, horizonMonths int, interventions []Intervention, now time.Time) SimulatedTwinState {
	if now.IsZero() {
		now = time.Now()
	}
	horizon := ClampHorizon(horizonMonths)
	applied := make([]Intervention, 0, len(interventions))
	for i, iv := range interventions {
		applied = append(applied, NormalizeIntervention(iv, i))
	}

	l := levers{
		data: current.Maturity.DataMaturityIndex,
		ai:   current.Maturity.AIMaturityScore,
		risk: current.Risk.Score,
	}
	for _, iv := range applied {
		l.applyIntervention(iv, horizon)
	}

	ctx := ContextFromState(current)
	ctx.Maturity.DataMaturityIndex = &l.data
	ctx.Maturity.AIMaturityScore = &l.ai
	if l.data != current.Maturity.DataMaturityIndex {
		ctx.Maturity.DataMaturityStage = nil
	}
	if l.ai != current.Maturity.AIMaturityScore {
		ctx.Maturity.AIMaturityStage = nil
	}
	ctx.Risk.Score = &l.risk
	if l.risk != current.Risk.Score {
		ctx.Risk.Level = RiskLevelForScore(l.risk)
	}

	mf := MaturityFactor(l.data, l.ai)
	years := float64(horizon) / 12
	revenue := amount(current.Financial.Revenue * math.Pow(1+baseGrowthRate+mf*maturityGrowthRate, years))
	margin := clampPct(current.Financial.MarginPct + mf*maturityMarginLift)
	valuation := amount(revenue * (baseValuationMult + mf*maturityValuation))
	ctx.Financial.Revenue = &revenue
	ctx.Financial.MarginPct = &margin
	ctx.Financial.Valuation = &valuation

	future := now.UTC().AddDate(0, horizon, 0)
	return SimulatedTwinState{
		State:                BuildState(ctx, BuildOptions{Timestamp: future, Label: "simulated"}),
		FutureTimestamp:      future,
		MonthsAhead:          horizon,
		InterventionsApplied: applied,
		ConfidenceInterval:   ConfidenceInterval{Low: ConfidenceLow, High: ConfidenceHigh},
	}
}
