package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"twinline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// DefaultLimit caps list queries when the caller passes a non-positive limit.
const DefaultLimit = 50

type rowScanner interface {
	Scan(dest ...any) error
}

const snapshotColumns = `id,org_id,label,state_ts,state_json,created_by,created_at`

func scanSnapshot(row rowScanner) (domain.Snapshot, error) {
	var s domain.Snapshot
	var stateJSON string
	err := row.Scan(&s.ID, &s.OrgID, &s.Label, &s.StateTS, &stateJSON, &s.CreatedBy, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(stateJSON), &s.State); err != nil {
		return s, fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	return s, nil
}

func (r Repo) InsertSnapshotTx(ctx context.Context, tx *sql.Tx, s domain.Snapshot) error {
	data, err := json.Marshal(s.State)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO snapshots(`+snapshotColumns+`) VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.OrgID, s.Label, s.StateTS, string(data), s.CreatedBy, s.CreatedAt)
	return err
}

func (r Repo) GetSnapshot(ctx context.Context, orgID, id string) (domain.Snapshot, error) {
	return scanSnapshot(r.DB.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id=? AND org_id=?`, id, orgID))
}

// LatestSnapshot returns the most recently saved snapshot of an organisation.
func (r Repo) LatestSnapshot(ctx context.Context, orgID string) (domain.Snapshot, error) {
	return scanSnapshot(r.DB.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE org_id=? ORDER BY created_at DESC, rowid DESC LIMIT 1`, orgID))
}

// ListSnapshots returns snapshots newest first.
func (r Repo) ListSnapshots(ctx context.Context, orgID string, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE org_id=? ORDER BY created_at DESC, rowid DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
