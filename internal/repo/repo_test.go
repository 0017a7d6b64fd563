package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"twinline/internal/db"
	"twinline/internal/domain"
	"twinline/internal/events"
	"twinline/internal/migrate"
	"twinline/internal/repo"
	"twinline/internal/twin"
)

func openRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	return repo.Repo{DB: conn}
}

func inTx(t *testing.T, r repo.Repo, fn func(*sql.Tx) error) {
	t.Helper()
	tx, err := r.DB.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotsNewestFirstPerOrg(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	state := twin.BuildState(twin.Context{}, twin.BuildOptions{Label: "base"})
	inTx(t, r, func(tx *sql.Tx) error {
		for _, s := range []domain.Snapshot{
			{ID: "a", OrgID: "acme", StateTS: "2024-01-01T00:00:00Z", CreatedBy: "u", CreatedAt: "2024-01-01T00:00:00Z", State: state},
			{ID: "b", OrgID: "acme", StateTS: "2024-02-01T00:00:00Z", CreatedBy: "u", CreatedAt: "2024-02-01T00:00:00Z", State: state},
			{ID: "c", OrgID: "other", StateTS: "2024-03-01T00:00:00Z", CreatedBy: "u", CreatedAt: "2024-03-01T00:00:00Z", State: state},
		} {
			if err := r.InsertSnapshotTx(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	})

	latest, err := r.LatestSnapshot(ctx, "acme")
	if err != nil || latest.ID != "b" {
		t.Fatalf("latest: %v %v", latest.ID, err)
	}
	if latest.State.Maturity.AIMaturityScore != twin.DefaultAIMaturityScore || len(latest.State.Nodes) != len(state.Nodes) {
		t.Fatalf("state did not survive storage: %+v", latest.State.Maturity)
	}
	list, err := r.ListSnapshots(ctx, "acme", 0)
	if err != nil || len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("list: %v %v", list, err)
	}
	if _, err := r.LatestSnapshot(ctx, "nobody"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.GetSnapshot(ctx, "acme", "zzz"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got, err := r.GetSnapshot(ctx, "acme", "a"); err != nil || got.ID != "a" {
		t.Fatalf("get: %v %v", got.ID, err)
	}
	if _, err := r.GetSnapshot(ctx, "acme", "c"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("snapshot of another org must not be found, got %v", err)
	}
}

func TestEventQueries(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	w := events.Writer{DB: r.DB}
	inTx(t, r, func(tx *sql.Tx) error {
		for i, typ := range []string{events.StateBuilt, events.SimulationRun, events.SimulationRun, events.PlanCreated} {
			org := "acme"
			if i == 3 {
				org = "other"
			}
			if err := w.Append(ctx, tx, typ, org, "simulation", "", "tester", events.EventPayload{"n": i}); err != nil {
				return err
			}
		}
		return nil
	})

	all, err := r.LatestEvents(ctx, 0, 0, repo.EventFilter{OrgID: "acme"})
	if err != nil || len(all) != 3 || all[0].ID <= all[2].ID {
		t.Fatalf("latest: %+v %v", all, err)
	}
	runs, err := r.LatestEvents(ctx, 10, 0, repo.EventFilter{OrgID: "acme", Type: events.SimulationRun})
	if err != nil || len(runs) != 2 {
		t.Fatalf("filtered: %+v %v", runs, err)
	}
	older, err := r.LatestEvents(ctx, 10, runs[0].ID, repo.EventFilter{OrgID: "acme"})
	if err != nil || len(older) != 2 || older[0].ID != runs[1].ID {
		t.Fatalf("cursor: %+v %v", older, err)
	}
	if older[0].Payload != `{"n":2}` && older[0].Payload != `{"n":1}` {
		t.Fatalf("payload: %q", older[0].Payload)
	}

	after, err := r.EventsAfter(ctx, 0, all[2].ID, "acme")
	if err != nil || len(after) != 2 || after[0].ID >= after[1].ID {
		t.Fatalf("after: %+v %v", after, err)
	}
	maxID, err := r.LatestEventID(ctx, "acme")
	if err != nil || maxID != all[0].ID {
		t.Fatalf("latest id %d want %d (%v)", maxID, all[0].ID, err)
	}
}
