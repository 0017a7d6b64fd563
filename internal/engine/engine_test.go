package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twinline/internal/config"
	"twinline/internal/db"
	"twinline/internal/engine"
	"twinline/internal/events"
	"twinline/internal/logging"
	"twinline/internal/migrate"
	"twinline/internal/repo"
	"twinline/internal/twin"
)

var pinned = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	Dir    string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default("org-1"))
	eng.Now = func() time.Time { return pinned }
	return testEnv{Engine: eng, Ctx: context.Background(), Dir: dir}
}

func f64(v float64) *float64 { return &v }

func sampleContext() twin.Context {
	return twin.Context{
		Maturity:  twin.MaturityInput{DataMaturityIndex: f64(40), AIMaturityScore: f64(30)},
		Financial: twin.FinancialInput{Revenue: f64(8_000_000), MarginPct: f64(12)},
		Risk:      twin.RiskInput{Score: f64(60)},
	}
}

func eventTypes(t *testing.T, env testEnv) []string {
	t.Helper()
	evts, err := env.Engine.EventLog(env.Ctx, 0, 0, repo.EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	for i := len(evts) - 1; i >= 0; i-- {
		types = append(types, evts[i].Type)
	}
	return types
}

func TestBuildStateSaveAndReload(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{Context: sampleContext(), Save: true, ActorID: "analyst"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Snapshot == nil || res.Snapshot.CreatedBy != "analyst" || res.Snapshot.OrgID != "org-1" {
		t.Fatalf("snapshot: %+v", res.Snapshot)
	}
	if !res.State.Timestamp.Equal(pinned) || res.State.Label != "current" {
		t.Fatalf("state header: %v %s", res.State.Timestamp, res.State.Label)
	}
	if got := strings.Join(eventTypes(t, env), ","); got != "state.built,snapshot.saved" {
		t.Fatalf("events: %s", got)
	}

	// a fresh engine on the same database falls back to the latest snapshot
	fresh := engine.New(env.Engine.DB, env.Engine.Config)
	cur, err := fresh.Current(env.Ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.Maturity.DataMaturityIndex != 40 || cur.Financial.Revenue != 8_000_000 {
		t.Fatalf("reloaded state: %+v", cur.Maturity)
	}
	got, err := env.Engine.Snapshot(env.Ctx, res.Snapshot.ID)
	if err != nil || got.State.Risk.Level != "medium" {
		t.Fatalf("get snapshot: %+v %v", got, err)
	}
	if _, err := env.Engine.Snapshot(env.Ctx, "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoStateErrors(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.Current(env.Ctx); !errors.Is(err, engine.ErrNoState) {
		t.Fatalf("current: %v", err)
	}
	if _, err := env.Engine.SaveSnapshot(env.Ctx, ""); !errors.Is(err, engine.ErrNoState) {
		t.Fatalf("save: %v", err)
	}
	if _, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{HorizonMonths: 6}); !errors.Is(err, engine.ErrNoState) {
		t.Fatalf("simulate: %v", err)
	}
}

func TestSimulatePersists(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{Context: sampleContext()}); err != nil {
		t.Fatal(err)
	}
	rec, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{
		Interventions: []twin.Intervention{{Type: "investment", Target: "data platform", Intensity: 1}},
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if rec.HorizonMonths != 12 {
		t.Fatalf("configured default horizon not applied: %d", rec.HorizonMonths)
	}
	if rec.Result.State.Maturity.DataMaturityIndex != 55 {
		t.Fatalf("data index %f", rec.Result.State.Maturity.DataMaturityIndex)
	}
	if !rec.Result.FutureTimestamp.Equal(pinned.AddDate(0, 12, 0)) {
		t.Fatalf("future timestamp %v", rec.Result.FutureTimestamp)
	}
	stored, err := env.Engine.Simulation(env.Ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Result.State.Maturity.DataMaturityIndex != 55 || stored.SnapshotID != "" {
		t.Fatalf("stored simulation: %+v", stored)
	}
	list, err := env.Engine.Simulations(env.Ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("list simulations: %d %v", len(list), err)
	}
	types := eventTypes(t, env)
	if types[len(types)-1] != events.SimulationRun {
		t.Fatalf("events: %v", types)
	}
}

func TestSimulateFromSnapshot(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{Context: sampleContext(), Save: true})
	if err != nil {
		t.Fatal(err)
	}
	// replace the current state so the snapshot is the only source of the original numbers
	if _, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{}); err != nil {
		t.Fatal(err)
	}
	rec, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{Source: engine.Source{SnapshotID: res.Snapshot.ID}, HorizonMonths: 6})
	if err != nil {
		t.Fatal(err)
	}
	if rec.SnapshotID != res.Snapshot.ID || rec.Result.State.Maturity.DataMaturityIndex != 40 {
		t.Fatalf("simulation did not start from snapshot: %+v", rec.Result.State.Maturity)
	}
	if _, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{Source: engine.Source{SnapshotID: "nope"}}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOptimizePersistsPlan(t *testing.T) {
	env := newTestEnv(t)
	state := twin.BuildState(sampleContext(), twin.BuildOptions{Timestamp: pinned})
	rec, err := env.Engine.Optimize(env.Ctx, engine.OptimizeOptions{
		Source: engine.Source{State: &state},
		Goal:   twin.Goal{Type: twin.GoalAIMaturityStage, TargetValue: 5, HorizonMonths: 18},
	})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(rec.Plan.Actions) != 2 || rec.Plan.TotalDurationMonths > 18 {
		t.Fatalf("plan: %+v", rec.Plan)
	}
	plans, err := env.Engine.Plans(env.Ctx, string(twin.GoalAIMaturityStage), 0)
	if err != nil || len(plans) != 1 || plans[0].ID != rec.ID {
		t.Fatalf("list plans: %+v %v", plans, err)
	}
	if other, _ := env.Engine.Plans(env.Ctx, string(twin.GoalRevenueGrowth), 0); len(other) != 0 {
		t.Fatalf("goal filter ignored: %d", len(other))
	}
	stored, err := env.Engine.Plan(env.Ctx, rec.ID)
	if err != nil || stored.Plan.ConfidenceScore != twin.PlanConfidence {
		t.Fatalf("stored plan: %+v %v", stored, err)
	}
}

func TestRecordsScopedToOrganisation(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{Context: sampleContext(), Save: true})
	if err != nil {
		t.Fatal(err)
	}
	sim, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{HorizonMonths: 6})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := env.Engine.Optimize(env.Ctx, engine.OptimizeOptions{Goal: twin.Goal{Type: twin.GoalRiskReduction}})
	if err != nil {
		t.Fatal(err)
	}

	other := engine.New(env.Engine.DB, config.Default("org-2"))
	if _, err := other.Snapshot(env.Ctx, res.Snapshot.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("snapshot: expected ErrNotFound, got %v", err)
	}
	if _, err := other.Simulation(env.Ctx, sim.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("simulation: expected ErrNotFound, got %v", err)
	}
	if _, err := other.Plan(env.Ctx, plan.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("plan: expected ErrNotFound, got %v", err)
	}
	if _, err := other.Simulate(env.Ctx, engine.SimulateOptions{Source: engine.Source{SnapshotID: res.Snapshot.ID}}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("simulate from foreign snapshot: expected ErrNotFound, got %v", err)
	}

	if _, err := env.Engine.Snapshot(env.Ctx, res.Snapshot.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := env.Engine.Simulation(env.Ctx, sim.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := env.Engine.Plan(env.Ctx, plan.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
}

func TestOptimizeInvalidGoalWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	state := twin.BuildState(sampleContext(), twin.BuildOptions{Timestamp: pinned})
	_, err := env.Engine.Optimize(env.Ctx, engine.OptimizeOptions{
		Source: engine.Source{State: &state},
		Goal:   twin.Goal{Type: "moonshot", HorizonMonths: 12},
	})
	if !errors.Is(err, twin.ErrInvalidGoalType) {
		t.Fatalf("expected ErrInvalidGoalType, got %v", err)
	}
	if plans, _ := env.Engine.Plans(env.Ctx, "", 0); len(plans) != 0 {
		t.Fatalf("plan stored for invalid goal")
	}
	if types := eventTypes(t, env); len(types) != 0 {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestDecisionLog(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Decisions = logging.NewDecisionLogger(db.Dir(env.Dir), "debug")
	defer env.Engine.Decisions.Close()
	if _, err := env.Engine.BuildState(env.Ctx, engine.BuildOptions{Context: sampleContext()}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Simulate(env.Ctx, engine.SimulateOptions{HorizonMonths: 3}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(db.Dir(env.Dir), logging.DecisionFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"decision":"simulate"`) {
		t.Fatalf("decision log: %s", data)
	}
}
