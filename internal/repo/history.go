package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"twinline/internal/domain"
)

const simulationColumns = `id,org_id,COALESCE(snapshot_id,''),horizon_months,result_json,created_by,created_at`

func scanSimulation(row rowScanner) (domain.SimulationRecord, error) {
	var s domain.SimulationRecord
	var result string
	err := row.Scan(&s.ID, &s.OrgID, &s.SnapshotID, &s.HorizonMonths, &result, &s.CreatedBy, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(result), &s.Result); err != nil {
		return s, fmt.Errorf("decode simulation %s: %w", s.ID, err)
	}
	return s, nil
}

func (r Repo) InsertSimulationTx(ctx context.Context, tx *sql.Tx, s domain.SimulationRecord) error {
	data, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Errorf("encode simulation: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO simulations(id,org_id,snapshot_id,horizon_months,result_json,created_by,created_at) VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.OrgID, nullable(s.SnapshotID), s.HorizonMonths, string(data), s.CreatedBy, s.CreatedAt)
	return err
}

func (r Repo) GetSimulation(ctx context.Context, orgID, id string) (domain.SimulationRecord, error) {
	return scanSimulation(r.DB.QueryRowContext(ctx, `SELECT `+simulationColumns+` FROM simulations WHERE id=? AND org_id=?`, id, orgID))
}

func (r Repo) ListSimulations(ctx context.Context, orgID string, limit int) ([]domain.SimulationRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE org_id=? ORDER BY created_at DESC, rowid DESC LIMIT ?`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SimulationRecord
	for rows.Next() {
		s, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

const planColumns = `id,org_id,COALESCE(snapshot_id,''),plan_json,created_by,created_at`

func scanPlan(row rowScanner) (domain.PlanRecord, error) {
	var p domain.PlanRecord
	var plan string
	err := row.Scan(&p.ID, &p.OrgID, &p.SnapshotID, &plan, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(plan), &p.Plan); err != nil {
		return p, fmt.Errorf("decode plan %s: %w", p.ID, err)
	}
	return p, nil
}

func (r Repo) InsertPlanTx(ctx context.Context, tx *sql.Tx, p domain.PlanRecord) error {
	data, err := json.Marshal(p.Plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO plans(id,org_id,snapshot_id,goal_type,target_value,horizon_months,plan_json,created_by,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OrgID, nullable(p.SnapshotID), string(p.Plan.Goal.Type), p.Plan.Goal.TargetValue, p.Plan.Goal.HorizonMonths,
		string(data), p.CreatedBy, p.CreatedAt)
	return err
}

func (r Repo) GetPlan(ctx context.Context, orgID, id string) (domain.PlanRecord, error) {
	return scanPlan(r.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id=? AND org_id=?`, id, orgID))
}

// ListPlans returns plans newest first, optionally restricted to one goal type.
func (r Repo) ListPlans(ctx context.Context, orgID, goalType string, limit int) ([]domain.PlanRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := `SELECT ` + planColumns + ` FROM plans WHERE org_id=?`
	args := []any{orgID}
	if goalType != "" {
		query += ` AND goal_type=?`
		args = append(args, goalType)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PlanRecord
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
