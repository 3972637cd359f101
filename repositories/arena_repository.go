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
	ErrArenaNotFound         = errors.New("arena not found")
	ErrArenaUniqueIDConflict = errors.New("arena join code already exists")
	ErrArenaOrganizerInvalid = errors.New("arena organizer does not exist")
)

type ListArenasFilter struct {
	OrganizerID *int
	Locked      *bool
	Limit       int
	Offset      int
}

type ArenaRepository interface {
	Create(ctx context.Context, arena *models.Arena) error
	GetByID(ctx context.Context, id int) (*models.Arena, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*models.Arena, error)
	List(ctx context.Context, filter ListArenasFilter) ([]models.Arena, error)
	Delete(ctx context.Context, id int) error
	SetLocked(ctx context.Context, id int, locked bool) error
	UpdateSettings(ctx context.Context, id int, scorerPIN string, rankingCriteria []string) error
	AddMember(ctx context.Context, arenaID, userID int) error
	ListMemberIDs(ctx context.Context, arenaID int) ([]int, error)
}

type postgresArenaRepository struct {
	db *sql.DB
}

func NewPostgresArenaRepository(db *sql.DB) ArenaRepository {
	return &postgresArenaRepository{db: db}
}

const arenaColumns = `id, unique_id, name, description, organizer_id, is_public, is_locked, scorer_pin, ranking_criteria, created_at`

func (r *postgresArenaRepository) Create(ctx context.Context, arena *models.Arena) error {
	query := `
		INSERT INTO arenas (unique_id, name, description, organizer_id, is_public, is_locked, scorer_pin, ranking_criteria)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		arena.UniqueID,
		arena.Name,
		arena.Description,
		arena.OrganizerID,
		arena.IsPublic,
		arena.IsLocked,
		arena.ScorerPIN,
		pq.Array(arena.RankingCriteria),
	).Scan(&arena.ID, &arena.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "arenas_unique_id_key":
				return ErrArenaUniqueIDConflict
			case code == pqForeignKeyViolation && constraint == "arenas_organizer_id_fkey":
				return ErrArenaOrganizerInvalid
			}
		}
		return fmt.Errorf("failed to create arena: %w", err)
	}
	return nil
}

func (r *postgresArenaRepository) GetByID(ctx context.Context, id int) (*models.Arena, error) {
	query := `SELECT ` + arenaColumns + ` FROM arenas WHERE id = $1`
	arena, err := r.scanArena(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if arena.MemberIDs, err = r.ListMemberIDs(ctx, arena.ID); err != nil {
		return nil, err
	}
	return arena, nil
}

func (r *postgresArenaRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*models.Arena, error) {
	query := `SELECT ` + arenaColumns + ` FROM arenas WHERE unique_id = $1`
	arena, err := r.scanArena(r.db.QueryRowContext(ctx, query, uniqueID))
	if err != nil {
		return nil, err
	}
	if arena.MemberIDs, err = r.ListMemberIDs(ctx, arena.ID); err != nil {
		return nil, err
	}
	return arena, nil
}

func (r *postgresArenaRepository) List(ctx context.Context, filter ListArenasFilter) ([]models.Arena, error) {
	query := `SELECT ` + arenaColumns + ` FROM arenas WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Locked != nil {
		query += fmt.Sprintf(" AND is_locked = $%d", argID)
		args = append(args, *filter.Locked)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list arenas: %w", err)
	}
	defer rows.Close()

	arenas := make([]models.Arena, 0)
	for rows.Next() {
		arena, err := r.scanArena(rows)
		if err != nil {
			return nil, err
		}
		arenas = append(arenas, *arena)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate arenas: %w", err)
	}
	return arenas, nil
}

func (r *postgresArenaRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM arenas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete arena %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrArenaNotFound)
}

func (r *postgresArenaRepository) SetLocked(ctx context.Context, id int, locked bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE arenas SET is_locked = $1 WHERE id = $2`, locked, id)
	if err != nil {
		return fmt.Errorf("failed to update lock of arena %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrArenaNotFound)
}

func (r *postgresArenaRepository) UpdateSettings(ctx context.Context, id int, scorerPIN string, rankingCriteria []string) error {
	query := `UPDATE arenas SET scorer_pin = $1, ranking_criteria = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, scorerPIN, pq.Array(rankingCriteria), id)
	if err != nil {
		return fmt.Errorf("failed to update settings of arena %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrArenaNotFound)
}

func (r *postgresArenaRepository) AddMember(ctx context.Context, arenaID, userID int) error {
	query := `
		INSERT INTO arena_members (arena_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (arena_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, arenaID, userID); err != nil {
		if code, _, ok := pqConstraint(err); ok && code == pqForeignKeyViolation {
			return ErrArenaNotFound
		}
		return fmt.Errorf("failed to add member %d to arena %d: %w", userID, arenaID, err)
	}
	return nil
}

func (r *postgresArenaRepository) ListMemberIDs(ctx context.Context, arenaID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM arena_members WHERE arena_id = $1 ORDER BY joined_at`, arenaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresArenaRepository) scanArena(row rowScanner) (*models.Arena, error) {
	var a models.Arena
	var criteria pq.StringArray
	err := row.Scan(
		&a.ID,
		&a.UniqueID,
		&a.Name,
		&a.Description,
		&a.OrganizerID,
		&a.IsPublic,
		&a.IsLocked,
		&a.ScorerPIN,
		&criteria,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArenaNotFound
		}
		return nil, fmt.Errorf("failed to scan arena: %w", err)
	}
	a.RankingCriteria = []string(criteria)
	return &a, nil
}
