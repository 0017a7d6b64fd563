package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"twinline/internal/config"
	"twinline/internal/domain"
	"twinline/internal/events"
	"twinline/internal/logging"
	"twinline/internal/repo"
	"twinline/internal/twin"
)

// ErrNoState is returned when an operation needs a current state and none was built or saved.
var ErrNoState = errors.New("no current state; build one with twin state build")

const defaultActor = "local-user"

// Engine persists twin states, simulations and plans for one organisation and records an
// event for each of them.
type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Now       func() time.Time
	Twin      *twin.Engine
	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
		Twin:   twin.NewEngine(),
		Logger: logging.Discard(),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Discard()
}

// OrgID is the organisation every record is scoped to.
func (e Engine) OrgID() string {
	if e.Config == nil || e.Config.Organisation.ID == "" {
		return "default-org"
	}
	return e.Config.Organisation.ID
}

func actorOr(id string) string {
	if strings.TrimSpace(id) == "" {
		return defaultActor
	}
	return id
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type BuildOptions struct {
	Context   twin.Context
	Label     string
	Timestamp time.Time
	Save      bool
	ActorID   string
}

// BuildResult carries the new current state and, when saved, its snapshot.
type BuildResult struct {
	State    twin.TwinState   `json:"state"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

// BuildState builds a state from opts.Context, makes it current and optionally saves it.
func (e Engine) BuildState(ctx context.Context, opts BuildOptions) (BuildResult, error) {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = e.now()
	}
	label := opts.Label
	if label == "" {
		label = "current"
	}
	state := twin.BuildState(opts.Context, twin.BuildOptions{Timestamp: ts, Label: label})
	actor := actorOr(opts.ActorID)
	res := BuildResult{State: state}

	err := e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Events.Append(ctx, tx, events.StateBuilt, e.OrgID(), "state", "", actor, events.EventPayload{
			"label":               label,
			"data_maturity_index": state.Maturity.DataMaturityIndex,
			"ai_maturity_score":   state.Maturity.AIMaturityScore,
			"risk_score":          state.Risk.Score,
		}); err != nil {
			return err
		}
		if !opts.Save {
			return nil
		}
		snap, err := e.insertSnapshot(ctx, tx, state, actor)
		if err != nil {
			return err
		}
		res.Snapshot = &snap
		return nil
	})
	if err != nil {
		return BuildResult{}, err
	}
	e.Twin.SetCurrent(state)
	e.logger().Debug("state built", "org", e.OrgID(), "label", label, "saved", opts.Save,
		"data_index", state.Maturity.DataMaturityIndex, "ai_score", state.Maturity.AIMaturityScore)
	e.logger().Log(ctx, logging.LevelTrace, "state payload", "state", state)
	return res, nil
}

func (e Engine) insertSnapshot(ctx context.Context, tx *sql.Tx, state twin.TwinState, actor string) (domain.Snapshot, error) {
	snap := domain.Snapshot{
		ID:        uuid.NewString(),
		OrgID:     e.OrgID(),
		Label:     state.Label,
		StateTS:   state.Timestamp.UTC().Format(time.RFC3339),
		CreatedBy: actor,
		CreatedAt: e.timestamp(),
		State:     state,
	}
	if err := e.Repo.InsertSnapshotTx(ctx, tx, snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.SnapshotSaved, snap.OrgID, "snapshot", snap.ID, actor, events.EventPayload{
		"label":    snap.Label,
		"state_ts": snap.StateTS,
	}); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot persists the current state.
func (e Engine) SaveSnapshot(ctx context.Context, actorID string) (domain.Snapshot, error) {
	state, ok := e.Twin.Current()
	if !ok {
		return domain.Snapshot{}, ErrNoState
	}
	var snap domain.Snapshot
	err := e.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = e.insertSnapshot(ctx, tx, state, actorOr(actorID))
		return err
	})
	return snap, err
}

// Current returns the in-memory current state, loading the latest saved snapshot when the
// engine has not built one yet.
func (e Engine) Current(ctx context.Context) (twin.TwinState, error) {
	if s, ok := e.Twin.Current(); ok {
		return s, nil
	}
	snap, err := e.Repo.LatestSnapshot(ctx, e.OrgID())
	if errors.Is(err, repo.ErrNotFound) {
		return twin.TwinState{}, ErrNoState
	}
	if err != nil {
		return twin.TwinState{}, err
	}
	e.Twin.SetCurrent(snap.State)
	return snap.State, nil
}

// Source selects the state an operation starts from, in order of precedence: a saved
// snapshot, an explicit state, an ad-hoc context, the current state.
type Source struct {
	SnapshotID string
	State      *twin.TwinState
	Context    *twin.Context
}

func (e Engine) resolve(ctx context.Context, src Source) (twin.TwinState, string, error) {
	if src.SnapshotID != "" {
		snap, err := e.Repo.GetSnapshot(ctx, e.OrgID(), src.SnapshotID)
		if err != nil {
			return twin.TwinState{}, "", fmt.Errorf("snapshot %s: %w", src.SnapshotID, err)
		}
		return snap.State, snap.ID, nil
	}
	if src.State != nil {
		return src.State.Clone(), "", nil
	}
	if src.Context != nil {
		return twin.BuildState(*src.Context, twin.BuildOptions{Timestamp: e.now(), Label: "adhoc"}), "", nil
	}
	s, err := e.Current(ctx)
	return s, "", err
}

type SimulateOptions struct {
	Source
	HorizonMonths int
	Interventions []twin.Intervention
	ActorID       string
}

// Simulate projects the source state forward and stores the run. A zero horizon uses the
// configured default.
func (e Engine) Simulate(ctx context.Context, opts SimulateOptions) (domain.SimulationRecord, error) {
	state, snapshotID, err := e.resolve(ctx, opts.Source)
	if err != nil {
		return domain.SimulationRecord{}, err
	}
	horizon := opts.HorizonMonths
	if horizon == 0 {
		horizon = e.Config.HorizonMonths()
	}
	result := twin.Simulate(state, horizon, opts.Interventions, e.now())
	rec := domain.SimulationRecord{
		ID:            uuid.NewString(),
		OrgID:         e.OrgID(),
		SnapshotID:    snapshotID,
		HorizonMonths: result.MonthsAhead,
		CreatedBy:     actorOr(opts.ActorID),
		CreatedAt:     e.timestamp(),
		Result:        result,
	}
	err = e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertSimulationTx(ctx, tx, rec); err != nil {
			return fmt.Errorf("insert simulation: %w", err)
		}
		return e.Events.Append(ctx, tx, events.SimulationRun, rec.OrgID, "simulation", rec.ID, rec.CreatedBy, events.EventPayload{
			"months_ahead":      rec.HorizonMonths,
			"interventions":     len(result.InterventionsApplied),
			"snapshot_id":       snapshotID,
			"ai_maturity_score": result.State.Maturity.AIMaturityScore,
			"revenue":           result.State.Financial.Revenue,
		})
	})
	if err != nil {
		return domain.SimulationRecord{}, err
	}
	e.logger().Debug("simulation run", "id", rec.ID, "months", rec.HorizonMonths,
		"interventions", len(result.InterventionsApplied), "revenue", result.State.Financial.Revenue)
	e.Decisions.Log("simulate", map[string]any{
		"simulation_id": rec.ID,
		"months_ahead":  rec.HorizonMonths,
		"interventions": result.InterventionsApplied,
		"before":        map[string]float64{"data": state.Maturity.DataMaturityIndex, "ai": state.Maturity.AIMaturityScore, "risk": state.Risk.Score},
		"after":         map[string]float64{"data": result.State.Maturity.DataMaturityIndex, "ai": result.State.Maturity.AIMaturityScore, "risk": result.State.Risk.Score},
	})
	return rec, nil
}

type OptimizeOptions struct {
	Source
	Goal    twin.Goal
	ActorID string
}

// Optimize builds a plan for the goal and stores it. Unknown goal types fail with
// twin.ErrInvalidGoalType before anything is written.
func (e Engine) Optimize(ctx context.Context, opts OptimizeOptions) (domain.PlanRecord, error) {
	state, snapshotID, err := e.resolve(ctx, opts.Source)
	if err != nil {
		return domain.PlanRecord{}, err
	}
	plan, err := twin.Optimize(state, opts.Goal, e.now())
	if err != nil {
		return domain.PlanRecord{}, err
	}
	rec := domain.PlanRecord{
		ID:         uuid.NewString(),
		OrgID:      e.OrgID(),
		SnapshotID: snapshotID,
		CreatedBy:  actorOr(opts.ActorID),
		CreatedAt:  e.timestamp(),
		Plan:       plan,
	}
	err = e.withTx(ctx, func(tx *sql.Tx) error {
		if err := e.Repo.InsertPlanTx(ctx, tx, rec); err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		return e.Events.Append(ctx, tx, events.PlanCreated, rec.OrgID, "plan", rec.ID, rec.CreatedBy, events.EventPayload{
			"goal_type":             string(plan.Goal.Type),
			"target_value":          plan.Goal.TargetValue,
			"horizon_months":        plan.Goal.HorizonMonths,
			"actions":               len(plan.Actions),
			"total_duration_months": plan.TotalDurationMonths,
		})
	})
	if err != nil {
		return domain.PlanRecord{}, err
	}
	e.logger().Debug("plan created", "id", rec.ID, "goal", plan.Goal.Type, "actions", len(plan.Actions),
		"duration", plan.TotalDurationMonths)
	e.Decisions.Log("optimize", map[string]any{
		"plan_id": rec.ID,
		"goal":    plan.Goal,
		"actions": plan.Actions,
	})
	return rec, nil
}

func (e Engine) Snapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return e.Repo.ListSnapshots(ctx, e.OrgID(), limit)
}

func (e Engine) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	return e.Repo.GetSnapshot(ctx, e.OrgID(), id)
}

func (e Engine) Simulations(ctx context.Context, limit int) ([]domain.SimulationRecord, error) {
	return e.Repo.ListSimulations(ctx, e.OrgID(), limit)
}

func (e Engine) Simulation(ctx context.Context, id string) (domain.SimulationRecord, error) {
	return e.Repo.GetSimulation(ctx, e.OrgID(), id)
}

func (e Engine) Plans(ctx context.Context, goalType string, limit int) ([]domain.PlanRecord, error) {
	return e.Repo.ListPlans(ctx, e.OrgID(), goalType, limit)
}

func (e Engine) Plan(ctx context.Context, id string) (domain.PlanRecord, error) {
	return e.Repo.GetPlan(ctx, e.OrgID(), id)
}

func (e Engine) EventLog(ctx context.Context, limit int, cursor int64, f repo.EventFilter) ([]domain.Event, error) {
	f.OrgID = e.OrgID()
	return e.Repo.LatestEvents(ctx, limit, cursor, f)
}
