package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
)

var (
	ErrJoinRequestNotFound = errors.New("join request not found")
	ErrJoinRequestConflict = errors.New("a pending join request already exists")
)

type JoinRequestRepository interface {
	Create(ctx context.Context, req *models.JoinRequest) error
	GetByID(ctx context.Context, id int) (*models.JoinRequest, error)
	ListByArena(ctx context.Context, arenaID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error)
	UpdateStatus(ctx context.Context, id int, status models.JoinRequestStatus) error
}

type postgresJoinRequestRepository struct {
	db *sql.DB
}

func NewPostgresJoinRequestRepository(db *sql.DB) JoinRequestRepository {
	return &postgresJoinRequestRepository{db: db}
}

func (r *postgresJoinRequestRepository) Create(ctx context.Context, req *models.JoinRequest) error {
	query := `
		INSERT INTO join_requests (arena_id, user_id, username, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, req.ArenaID, req.UserID, req.Username, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch {
			case code == pqUniqueViolation && constraint == "join_requests_pending_key":
				return ErrJoinRequestConflict
			case code == pqForeignKeyViolation && constraint == "join_requests_arena_id_fkey":
				return ErrArenaNotFound
			}
		}
		return fmt.Errorf("failed to create join request: %w", err)
	}
	return nil
}

func (r *postgresJoinRequestRepository) GetByID(ctx context.Context, id int) (*models.JoinRequest, error) {
	query := `
		SELECT id, arena_id, user_id, username, status, created_at, resolved_at
		FROM join_requests
		WHERE id = $1`
	req, err := scanJoinRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *postgresJoinRequestRepository) ListByArena(ctx context.Context, arenaID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error) {
	query := `
		SELECT id, arena_id, user_id, username, status, created_at, resolved_at
		FROM join_requests
		WHERE arena_id = $1`
	args := []interface{}{arenaID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests of arena %d: %w", arenaID, err)
	}
	defer rows.Close()

	requests := make([]models.JoinRequest, 0)
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *postgresJoinRequestRepository) UpdateStatus(ctx context.Context, id int, status models.JoinRequestStatus) error {
	query := `
		UPDATE join_requests SET status = $1, resolved_at = now()
		WHERE id = $2 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update join request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrJoinRequestNotFound)
}

func scanJoinRequest(row rowScanner) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := row.Scan(&req.ID, &req.ArenaID, &req.UserID, &req.Username, &req.Status, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan join request: %w", err)
	}
	return &req, nil
}
