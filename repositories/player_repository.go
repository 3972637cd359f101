package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
)

var (
	ErrPoolPlayerNotFound = errors.New("pool player not found")
	ErrPoolPlayerConflict = errors.New("player is already in the pool")
)

type PoolPlayerRepository interface {
	Create(ctx context.Context, player *models.PoolPlayer) error
	ListByArena(ctx context.Context, arenaID int) ([]models.PoolPlayer, error)
	Delete(ctx context.Context, arenaID, id int) error
}

type postgresPoolPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPoolPlayerRepository(db *sql.DB) PoolPlayerRepository {
	return &postgresPoolPlayerRepository{db: db}
}

func (r *postgresPoolPlayerRepository) Create(ctx context.Context, player *models.PoolPlayer) error {
	query := `
		INSERT INTO pool_players (arena_id, name, username, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, player.ArenaID, player.Name, player.Username, player.UserID).
		Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				return ErrPoolPlayerConflict
			case pqForeignKeyViolation:
				return ErrArenaNotFound
			}
		}
		return fmt.Errorf("failed to add pool player: %w", err)
	}
	return nil
}

func (r *postgresPoolPlayerRepository) ListByArena(ctx context.Context, arenaID int) ([]models.PoolPlayer, error) {
	query := `
		SELECT id, arena_id, name, username, user_id, created_at
		FROM pool_players
		WHERE arena_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, arenaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	players := make([]models.PoolPlayer, 0)
	for rows.Next() {
		var p models.PoolPlayer
		if err := rows.Scan(&p.ID, &p.ArenaID, &p.Name, &p.Username, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pool player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPoolPlayerRepository) Delete(ctx context.Context, arenaID, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pool_players WHERE id = $1 AND arena_id = $2`, id, arenaID)
	if err != nil {
		return fmt.Errorf("failed to delete pool player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPoolPlayerNotFound)
}
