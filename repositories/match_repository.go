package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/scoring"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchTeamInvalid = errors.New("match team does not exist")
	ErrMatchStaleUpdate = errors.New("match was completed by another update")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByArena(ctx context.Context, arenaID int, status *scoring.Status) ([]models.Match, error)
	// UpdateScore stores score, status, winner and active set. It refuses
	// to touch a match that is already completed in the database.
	UpdateScore(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, arenaID, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, arena_id, team_a_id, team_b_id,
	target_points, win_margin, golden_point_cap, best_of,
	score, status, winner_team_id, active_set, court, umpire_name,
	start_time, created_at, updated_at`

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	score, err := json.Marshal(match.Score)
	if err != nil {
		return fmt.Errorf("failed to encode match score: %w", err)
	}
	query := `
		INSERT INTO matches (
			arena_id, team_a_id, team_b_id,
			target_points, win_margin, golden_point_cap, best_of,
			score, status, active_set, court, umpire_name, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		match.ArenaID, match.TeamAID, match.TeamBID,
		match.Rules.TargetPoints, match.Rules.WinMargin, match.Rules.GoldenPointCap, match.Rules.BestOf,
		score, match.Status, match.ActiveSet, match.Court, match.UmpireName, match.StartTime,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrMatchTeamInvalid
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByArena(ctx context.Context, arenaID int, status *scoring.Status) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE arena_id = $1`
	args := []interface{}{arenaID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := getExecutor(r.db, exec)
	score, err := json.Marshal(match.Score)
	if err != nil {
		return fmt.Errorf("failed to encode match score: %w", err)
	}
	query := `
		UPDATE matches SET
			score = $1,
			status = $2,
			winner_team_id = $3,
			active_set = $4,
			updated_at = now()
		WHERE id = $5 AND status <> 'completed'
		RETURNING updated_at`
	err = executor.QueryRowContext(ctx, query,
		score, match.Status, match.WinnerTeamID, match.ActiveSet, match.ID,
	).Scan(&match.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchStaleUpdate
		}
		return fmt.Errorf("failed to update score of match %d: %w", match.ID, err)
	}
	return nil
}

func (r *postgresMatchRepository) Delete(ctx context.Context, arenaID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1 AND arena_id = $2`, id, arenaID)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var score []byte
	err := row.Scan(
		&m.ID, &m.ArenaID, &m.TeamAID, &m.TeamBID,
		&m.Rules.TargetPoints, &m.Rules.WinMargin, &m.Rules.GoldenPointCap, &m.Rules.BestOf,
		&score, &m.Status, &m.WinnerTeamID, &m.ActiveSet, &m.Court, &m.UmpireName,
		&m.StartTime, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	if len(score) > 0 {
		if err := json.Unmarshal(score, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to decode score of match %d: %w", m.ID, err)
		}
	}
	return &m, nil
}
