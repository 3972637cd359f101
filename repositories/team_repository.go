package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already used in this arena")
	ErrTeamInUse        = errors.New("team has scheduled matches")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByArena(ctx context.Context, arenaID int) ([]models.Team, error)
	Delete(ctx context.Context, arenaID, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (arena_id, name, player_names)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, team.ArenaID, team.Name, pq.Array(team.PlayerNames)).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "teams_arena_id_name_key":
				return ErrTeamNameConflict
			case code == pqForeignKeyViolation:
				return ErrArenaNotFound
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, arena_id, name, player_names, created_at FROM teams WHERE id = $1`
	return scanTeam(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListByArena(ctx context.Context, arenaID int) ([]models.Team, error) {
	query := `
		SELECT id, arena_id, name, player_names, created_at
		FROM teams
		WHERE arena_id = $1
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, arenaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Delete(ctx context.Context, arenaID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1 AND arena_id = $2`, id, arenaID)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrTeamInUse
		}
		return fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	var players pq.StringArray
	if err := row.Scan(&t.ID, &t.ArenaID, &t.Name, &players, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	t.PlayerNames = []string(players)
	return &t, nil
}
