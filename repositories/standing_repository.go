package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dosada05/smash-arena/models"
)

// StandingRepository stores the last published standings snapshot of an
// arena. Live standings are always recomputed from matches.
type StandingRepository interface {
	ReplaceForArena(ctx context.Context, arenaID int, rows []models.StandingRow) error
	ListByArena(ctx context.Context, arenaID int) ([]models.StandingRow, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) ReplaceForArena(ctx context.Context, arenaID int, rows []models.StandingRow) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin standings transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM arena_standings WHERE arena_id = $1`, arenaID); err != nil {
		return fmt.Errorf("failed to clear standings of arena %d: %w", arenaID, err)
	}
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO arena_standings
			(arena_id, rank, team_id, team_name, played, won, lost, sets_won, sets_lost,
			 points_scored, points_conceded, points_difference, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("failed to prepare standings insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			arenaID, row.Rank, row.TeamID, row.TeamName, row.Played, row.Won, row.Lost,
			row.SetsWon, row.SetsLost, row.PointsScored, row.PointsConceded, row.PointsDifference, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert standing of team %d: %w", row.TeamID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) ListByArena(ctx context.Context, arenaID int) ([]models.StandingRow, error) {
	query := `
		SELECT arena_id, rank, team_id, team_name, played, won, lost, sets_won, sets_lost,
		       points_scored, points_conceded, points_difference, updated_at
		FROM arena_standings
		WHERE arena_id = $1
		ORDER BY rank ASC`
	rows, err := r.db.QueryContext(ctx, query, arenaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	standings := make([]models.StandingRow, 0)
	for rows.Next() {
		var s models.StandingRow
		if err := rows.Scan(
			&s.ArenaID, &s.Rank, &s.TeamID, &s.TeamName, &s.Played, &s.Won, &s.Lost, &s.SetsWon, &s.SetsLost,
			&s.PointsScored, &s.PointsConceded, &s.PointsDifference, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
