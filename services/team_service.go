package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, actor Actor, arenaID int, input CreateTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, arenaID int) ([]models.Team, error)
	DeleteTeam(ctx context.Context, actor Actor, arenaID, teamID int) error
}

type CreateTeamInput struct {
	Name        string   `json:"name"`
	PlayerNames []string `json:"player_names"`
}

type teamService struct {
	teamRepo  repositories.TeamRepository
	arenaRepo repositories.ArenaRepository
	poolRepo  repositories.PoolPlayerRepository
	logger    *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	arenaRepo repositories.ArenaRepository,
	poolRepo repositories.PoolPlayerRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:  teamRepo,
		arenaRepo: arenaRepo,
		poolRepo:  poolRepo,
		logger:    logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, actor Actor, arenaID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if _, err := loadUnlockedArena(ctx, s.arenaRepo, actor, arenaID); err != nil {
		return nil, err
	}

	pool, err := s.poolRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list pool")
	}
	players, err := selectPoolPlayers(pool, input.PlayerNames)
	if err != nil {
		return nil, err
	}

	team := &models.Team{ArenaID: arenaID, Name: name, PlayerNames: players}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, handleRepositoryError(err, "failed to create team")
	}
	s.logger.Info("team created", slog.Int("arena_id", arenaID), slog.Int("team_id", team.ID))
	return team, nil
}

// selectPoolPlayers resolves the requested names against the pool, keeping
// the pool's spelling and dropping duplicates.
func selectPoolPlayers(pool []models.PoolPlayer, names []string) ([]string, error) {
	selected := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		var match *models.PoolPlayer
		for i := range pool {
			if strings.EqualFold(pool[i].Name, name) {
				match = &pool[i]
				break
			}
		}
		if match == nil {
			return nil, fmt.Errorf("%w: %q is not in the player pool", ErrValidationFailed, name)
		}
		key := strings.ToLower(match.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, match.Name)
	}
	return selected, nil
}

func (s *teamService) ListTeams(ctx context.Context, arenaID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list teams")
	}
	return teams, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, actor Actor, arenaID, teamID int) error {
	if _, err := loadUnlockedArena(ctx, s.arenaRepo, actor, arenaID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, arenaID, teamID); err != nil {
		return handleRepositoryError(err, "failed to delete team")
	}
	return nil
}
