package twin

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type GoalType string

const (
	GoalAIMaturityStage   GoalType = "ai_maturity_stage"
	GoalDataMaturityStage GoalType = "data_maturity_stage"
	GoalRevenueGrowth     GoalType = "revenue_growth"
	GoalRiskReduction     GoalType = "risk_reduction"
	GoalMarginImprovement GoalType = "margin_improvement"
)

// GoalTypes lists every recognised goal type.
var GoalTypes = []GoalType{
	GoalAIMaturityStage,
	GoalDataMaturityStage,
	GoalRevenueGrowth,
	GoalRiskReduction,
	GoalMarginImprovement,
}

const (
	MinGoalHorizonMonths = 6
	MaxGoalHorizonMonths = 48
	// DefaultGoalHorizonMonths is what callers offer when the user names no horizon.
	DefaultGoalHorizonMonths = 12

	// PlanConfidence is reported on every plan. It is a fixed placeholder, not a
	// measure of simulation variance.
	PlanConfidence = 0.78

	// stageGapThreshold is the minimum score gap (in points) that warrants actions.
	stageGapThreshold = 5.0
)

// ErrInvalidGoalType is returned for a goal type outside GoalTypes.
var ErrInvalidGoalType = errors.New("invalid goal type")

type Goal struct {
	Type          GoalType `json:"type"`
	TargetValue   float64  `json:"target_value,omitempty"`
	HorizonMonths int      `json:"horizon_months,omitempty"`
	MinimizeRisk  bool     `json:"minimize_risk,omitempty"`
}

// ParseGoalType validates s against GoalTypes.
func ParseGoalType(s string) (GoalType, error) {
	t := GoalType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range GoalTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGoalType, s)
}

var planTradeOffs = []string{
	"Upfront investment reduces short-term cash flow before benefits materialise",
	"Sequential execution delays later actions until earlier ones complete",
}

var planRisks = []string{
	"Projected outcomes are illustrative and not statistically derived",
	"Adoption may lag behind investment and slow maturity gains",
	"Data quality issues can delay dependent AI initiatives",
}

const (
	riskMinimizedNote = "Risk minimisation favours governance-first pacing and may extend the timeline"
	riskAcceptedNote  = "Pace is prioritised over risk; delivery and compliance exposure stay elevated"
)

// candidates returns the hand-authored interventions for a goal. ok is false for an
// unknown goal type. A nil slice with ok true means the goal is already met.
func candidates(s TwinState, g Goal) (ivs []Intervention, rationale string, ok bool) {
	switch g.Type {
	case GoalAIMaturityStage:
		target := clampPct(g.TargetValue / 7 * 100)
		gap := target - s.Maturity.AIMaturityScore
		if gap <= stageGapThreshold {
			return nil, "", true
		}
		return []Intervention{
			{ID: "opt-ai-investment", Type: InterventionInvestment, Target: "AI/ML capabilities", Intensity: 0.8, DurationMonths: 12,
				Description: "Invest in AI/ML capability building"},
			{ID: "opt-data-investment", Type: InterventionInvestment, Target: "data infrastructure", Intensity: 0.7, DurationMonths: 9,
				Description: "Invest in the data infrastructure that AI work depends on"},
		}, fmt.Sprintf("close AI maturity gap of %.1f points", gap), true
	case GoalDataMaturityStage:
		target := clampPct(g.TargetValue / 6 * 100)
		gap := target - s.Maturity.DataMaturityIndex
		if gap <= stageGapThreshold {
			return nil, "", true
		}
		return []Intervention{
			{ID: "opt-data-platform", Type: InterventionInvestment, Target: "data platform and integration", Intensity: 0.8, DurationMonths: 12,
				Description: "Consolidate data platform and integration"},
			{ID: "opt-data-governance", Type: InterventionGovernance, Target: "data governance", Intensity: 0.6, DurationMonths: 6,
				Description: "Establish data ownership and quality governance"},
		}, fmt.Sprintf("close data maturity gap of %.1f points", gap), true
	case GoalRevenueGrowth:
		return []Intervention{
			{ID: "opt-revenue-automation", Type: InterventionTechnology, Target: "AI-driven revenue automation", Intensity: 0.7, DurationMonths: 12,
				Description: "Deploy AI-driven pricing and revenue automation"},
			{ID: "opt-sales-analytics", Type: InterventionCapability, Target: "ML sales analytics", Intensity: 0.6, DurationMonths: 9,
				Description: "Build ML analytics capability for sales"},
		}, "raise maturity factor to accelerate revenue growth", true
	case GoalRiskReduction:
		return []Intervention{
			{ID: "opt-risk-governance", Type: InterventionGovernance, Target: "risk and compliance governance", Intensity: 0.8, DurationMonths: 9,
				Description: "Formalise risk and compliance governance"},
			{ID: "opt-process-hardening", Type: InterventionProcess, Target: "operational process hardening", Intensity: 0.6, DurationMonths: 6,
				Description: "Harden operational processes and controls"},
		}, "lower overall risk score", true
	case GoalMarginImprovement:
		return []Intervention{
			{ID: "opt-process-automation", Type: InterventionProcess, Target: "process automation", Intensity: 0.7, DurationMonths: 9,
				Description: "Automate manual back-office processes"},
		}, "lift margin through process efficiency", true
	default:
		return nil, "", false
	}
}

// ClampGoalHorizon bounds a goal horizon to [6,48] months.
func ClampGoalHorizon(months int) int {
	return clampInt(months, MinGoalHorizonMonths, MaxGoalHorizonMonths)
}

// Optimize selects candidate interventions for g, sequences them back to back within the
// horizon and projects the outcome with a single simulation. now anchors that simulation.
func Optimize(current TwinState, g Goal, now time.Time) (Plan, error) {
	g.Type = GoalType(strings.ToLower(strings.TrimSpace(string(g.Type))))
	g.HorizonMonths = ClampGoalHorizon(g.HorizonMonths)
	ivs, rationale, ok := candidates(current, g)
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrInvalidGoalType, g.Type)
	}

	plan := Plan{
		Goal:            g,
		Actions:         []OptimizedAction{},
		ConfidenceScore: PlanConfidence,
		TradeOffs:       append([]string(nil), planTradeOffs...),
		Risks:           append([]string(nil), planRisks...),
	}
	if g.MinimizeRisk {
		plan.Risks = append(plan.Risks, riskMinimizedNote)
	} else {
		plan.Risks = append(plan.Risks, riskAcceptedNote)
	}
	if len(ivs) == 0 {
		plan.ProjectedFinalState = ProjectedState{
			Maturity:  current.Maturity,
			Financial: current.Financial,
			Risk:      current.Risk,
		}.Clone()
		return plan, nil
	}

	plan.Actions = sequence(ivs, g.HorizonMonths, rationale)
	scheduled := make([]Intervention, len(plan.Actions))
	for i, a := range plan.Actions {
		scheduled[i] = a.Intervention
	}
	sim := Simulate(current, g.HorizonMonths, scheduled, now)
	plan.ProjectedFinalState = ProjectedState{
		Maturity:  sim.State.Maturity,
		Financial: sim.State.Financial,
		Risk:      sim.State.Risk,
	}
	plan.TotalDurationMonths = plan.Actions[len(plan.Actions)-1].EndMonth
	return plan, nil
}

// sequence lays interventions end to end. Durations are capped to the horizon and, when
// their sum overruns it, compressed proportionally (floor, minimum one month).
func sequence(ivs []Intervention, horizon int, rationale string) []OptimizedAction {
	durations := make([]int, len(ivs))
	total := 0
	for i, iv := range ivs {
		durations[i] = min(iv.DurationMonths, horizon)
		total += durations[i]
	}
	if total > horizon {
		for i := range durations {
			durations[i] = max(1, durations[i]*horizon/total)
		}
	}
	actions := make([]OptimizedAction, 0, len(ivs))
	start := 0
	for i, iv := range ivs {
		end := min(start+durations[i], horizon)
		iv.DurationMonths = end - start
		if iv.DurationMonths == 0 {
			// Out of horizon; the simulator would otherwise substitute the default.
			continue
		}
		actions = append(actions, OptimizedAction{
			Intervention: iv,
			StartMonth:   start,
			EndMonth:     end,
			Rationale:    rationale,
		})
		start = end
	}
	return actions
}
