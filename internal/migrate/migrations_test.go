package migrate_test

import (
	"context"
	"testing"

	"twinline/internal/db"
	"twinline/internal/migrate"
)

func TestApplyIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	latest, err := migrate.Latest()
	if err != nil || latest < 1 {
		t.Fatalf("latest=%d err=%v", latest, err)
	}
	for i := 0; i < 2; i++ {
		v, err := migrate.Apply(context.Background(), conn)
		if err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
		if v != latest {
			t.Fatalf("version %d want %d", v, latest)
		}
	}
	for _, table := range []string{"snapshots", "simulations", "plans", "events"} {
		var n int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n); err != nil || n != 1 {
			t.Fatalf("table %s missing (n=%d err=%v)", table, n, err)
		}
	}
}
