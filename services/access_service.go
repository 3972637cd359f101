package services

import (
	"context"
	"crypto/subtle"

	"github.com/Dosada05/smash-arena/repositories"
)

// ScoreGrant is the permission to write scores in one arena. Only
// AccessService can mint a valid grant; the zero value permits nothing.
type ScoreGrant struct {
	arenaID int
	actorID int
	viaPIN  bool
}

func (g ScoreGrant) ArenaID() int { return g.arenaID }
func (g ScoreGrant) ActorID() int { return g.actorID }

// ViaPIN reports whether the grant was obtained with the scorer PIN rather
// than by owning the arena.
func (g ScoreGrant) ViaPIN() bool { return g.viaPIN }

func (g ScoreGrant) allows(arenaID int) bool {
	return g.arenaID != 0 && g.arenaID == arenaID
}

type AccessService interface {
	// GrantScoring checks that actor may score matches of the arena: the
	// organizer and superadmins always may, everyone else needs the PIN.
	GrantScoring(ctx context.Context, actor Actor, arenaID int, pin string) (ScoreGrant, error)
}

type accessService struct {
	arenaRepo repositories.ArenaRepository
}

func NewAccessService(arenaRepo repositories.ArenaRepository) AccessService {
	return &accessService{arenaRepo: arenaRepo}
}

func (s *accessService) GrantScoring(ctx context.Context, actor Actor, arenaID int, pin string) (ScoreGrant, error) {
	if actor.UserID == 0 {
		return ScoreGrant{}, ErrAuthenticationFailed
	}
	arena, err := s.arenaRepo.GetByID(ctx, arenaID)
	if err != nil {
		return ScoreGrant{}, handleRepositoryError(err, "failed to load arena for scoring")
	}
	if canManage(actor, arena) {
		return ScoreGrant{arenaID: arena.ID, actorID: actor.UserID}, nil
	}
	if pin == "" || subtle.ConstantTimeCompare([]byte(pin), []byte(arena.ScorerPIN)) != 1 {
		return ScoreGrant{}, ErrScoringNotAllowed
	}
	return ScoreGrant{arenaID: arena.ID, actorID: actor.UserID, viaPIN: true}, nil
}
