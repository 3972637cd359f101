package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID   int
	Username string
	Role     models.UserRole
}

func (a Actor) IsSuperAdmin() bool {
	return a.Role == models.RoleSuperAdmin
}

// canManage reports whether actor may change the arena's setup.
func canManage(actor Actor, arena *models.Arena) bool {
	return actor.IsSuperAdmin() || (actor.UserID != 0 && actor.UserID == arena.OrganizerID)
}

// loadManagedArena loads the arena and checks that actor may change it.
func loadManagedArena(ctx context.Context, repo repositories.ArenaRepository, actor Actor, arenaID int) (*models.Arena, error) {
	arena, err := repo.GetByID(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	if !canManage(actor, arena) {
		return nil, ErrForbiddenOperation
	}
	return arena, nil
}

// loadUnlockedArena is loadManagedArena for changes that are frozen once the
// arena is locked: the pool and the teams.
func loadUnlockedArena(ctx context.Context, repo repositories.ArenaRepository, actor Actor, arenaID int) (*models.Arena, error) {
	arena, err := loadManagedArena(ctx, repo, actor, arenaID)
	if err != nil {
		return nil, err
	}
	if arena.IsLocked {
		return nil, ErrArenaLocked
	}
	return arena, nil
}

// Broadcaster delivers live updates to the subscribers of an arena.
type Broadcaster interface {
	BroadcastToArena(arenaID int, messageType string, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToArena(int, string, interface{}) {}

// repoErrors maps repository sentinels onto the errors handlers understand.
var repoErrors = map[error]error{
	repositories.ErrUserNotFound:         ErrUserNotFound,
	repositories.ErrUserUsernameConflict: ErrUsernameTaken,
	repositories.ErrArenaNotFound:        ErrArenaNotFound,
	repositories.ErrTeamNotFound:         ErrTeamNotFound,
	repositories.ErrTeamNameConflict:     ErrTeamNameConflict,
	repositories.ErrTeamInUse:            ErrTeamInUse,
	repositories.ErrMatchNotFound:        ErrMatchNotFound,
	repositories.ErrMatchTeamInvalid:     ErrTeamNotFound,
	repositories.ErrMatchStaleUpdate:     ErrScoreConflict,
	repositories.ErrScoreEventConflict:   ErrScoreConflict,
	repositories.ErrPoolPlayerNotFound:   ErrPoolPlayerNotFound,
	repositories.ErrPoolPlayerConflict:   ErrPlayerInPool,
	repositories.ErrJoinRequestNotFound:  ErrJoinRequestNotFound,
	repositories.ErrJoinRequestConflict:  ErrJoinRequestExists,
}

// handleRepositoryError translates known repository errors and wraps the
// rest with op for context.
func handleRepositoryError(err error, op string) error {
	if err == nil {
		return nil
	}
	for repoErr, svcErr := range repoErrors {
		if errors.Is(err, repoErr) {
			return svcErr
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
