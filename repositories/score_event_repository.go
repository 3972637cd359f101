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
	ErrScoreEventNotFound = errors.New("score event not found")
	ErrScoreEventConflict = errors.New("score event with this sequence number already exists")
)

// ScoreEventRepository is the append-only log of point changes. Events of a
// match are ordered by Seq, which is unique per match.
type ScoreEventRepository interface {
	Append(ctx context.Context, event *models.ScoreEvent) error
	ListByMatch(ctx context.Context, matchID int) ([]models.ScoreEvent, error)
	Last(ctx context.Context, matchID int) (*models.ScoreEvent, error)
	Delete(ctx context.Context, id string) error
}

type postgresScoreEventRepository struct {
	db *sql.DB
}

func NewPostgresScoreEventRepository(db *sql.DB) ScoreEventRepository {
	return &postgresScoreEventRepository{db: db}
}

func (r *postgresScoreEventRepository) Append(ctx context.Context, event *models.ScoreEvent) error {
	scoreAfter, err := json.Marshal(event.ScoreAfter)
	if err != nil {
		return fmt.Errorf("failed to encode score: %w", err)
	}
	query := `
		INSERT INTO score_events (id, seq, match_id, arena_id, set_index, side, delta, actor_id, via_pin, score_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Seq, event.MatchID, event.ArenaID, event.SetIndex, int(event.Side),
		event.Delta, event.ActorID, event.ViaPIN, scoreAfter, event.CreatedAt,
	)
	if err != nil {
		if code, _, ok := pqConstraint(err); ok {
			switch code {
			case pqForeignKeyViolation:
				return ErrMatchNotFound
			case pqUniqueViolation:
				return ErrScoreEventConflict
			}
		}
		return fmt.Errorf("failed to append score event: %w", err)
	}
	return nil
}

const scoreEventColumns = `id, seq, match_id, arena_id, set_index, side, delta, actor_id, via_pin, score_after, created_at`

func (r *postgresScoreEventRepository) ListByMatch(ctx context.Context, matchID int) ([]models.ScoreEvent, error) {
	query := `SELECT ` + scoreEventColumns + ` FROM score_events WHERE match_id = $1 ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list score events of match %d: %w", matchID, err)
	}
	defer rows.Close()

	events := make([]models.ScoreEvent, 0)
	for rows.Next() {
		ev, err := scanScoreEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (r *postgresScoreEventRepository) Last(ctx context.Context, matchID int) (*models.ScoreEvent, error) {
	query := `SELECT ` + scoreEventColumns + ` FROM score_events WHERE match_id = $1 ORDER BY seq DESC LIMIT 1`
	return scanScoreEvent(r.db.QueryRowContext(ctx, query, matchID))
}

func (r *postgresScoreEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM score_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete score event %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrScoreEventNotFound)
}

func scanScoreEvent(row rowScanner) (*models.ScoreEvent, error) {
	var ev models.ScoreEvent
	var side int
	var scoreAfter []byte
	err := row.Scan(
		&ev.ID, &ev.Seq, &ev.MatchID, &ev.ArenaID, &ev.SetIndex, &side,
		&ev.Delta, &ev.ActorID, &ev.ViaPIN, &scoreAfter, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoreEventNotFound
		}
		return nil, fmt.Errorf("failed to scan score event: %w", err)
	}
	ev.Side = scoring.Side(side)
	if err := json.Unmarshal(scoreAfter, &ev.ScoreAfter); err != nil {
		return nil, fmt.Errorf("failed to decode score of event %s: %w", ev.ID, err)
	}
	return &ev, nil
}
