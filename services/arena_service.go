package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
	"github.com/Dosada05/smash-arena/standings"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultScorerPIN   = "0000"
	joinCodeLength     = 8
	joinCodeMaxRetries = 3
)

type ArenaService interface {
	CreateArena(ctx context.Context, actor Actor, input CreateArenaInput) (*models.Arena, error)
	GetArena(ctx context.Context, id int) (*models.Arena, error)
	GetArenaByJoinCode(ctx context.Context, code string) (*models.Arena, error)
	ListArenas(ctx context.Context, filter repositories.ListArenasFilter) ([]models.Arena, error)
	DeleteArena(ctx context.Context, actor Actor, id int) error
	GetArenaDetails(ctx context.Context, id int) (*ArenaDetails, error)

	JoinArena(ctx context.Context, actor Actor, arenaID int) (*JoinResult, error)
	ListJoinRequests(ctx context.Context, actor Actor, arenaID int) ([]models.JoinRequest, error)
	ResolveJoinRequest(ctx context.Context, actor Actor, arenaID, requestID int, approve bool) (*models.JoinRequest, error)

	LockArena(ctx context.Context, actor Actor, arenaID int) (*models.Arena, error)
	UpdateScorerPIN(ctx context.Context, actor Actor, arenaID int, pin string) error
	UpdateRankingCriteria(ctx context.Context, actor Actor, arenaID int, criteria []string) (*models.Arena, error)
	MoveRankingCriterion(ctx context.Context, actor Actor, arenaID, index int, direction string) (*models.Arena, error)

	AddPoolPlayer(ctx context.Context, actor Actor, arenaID int, entry string) (*models.PoolPlayer, error)
	ImportPoolPlayers(ctx context.Context, actor Actor, arenaID int, text string) (*ImportResult, error)
	ListPoolPlayers(ctx context.Context, arenaID int) ([]models.PoolPlayer, error)
	RemovePoolPlayer(ctx context.Context, actor Actor, arenaID, playerID int) error
}

type CreateArenaInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

type JoinResult struct {
	Joined  bool                `json:"joined"`
	Request *models.JoinRequest `json:"request,omitempty"`
}

type ImportResult struct {
	Added   []models.PoolPlayer `json:"added"`
	Skipped []string            `json:"skipped"`
}

type ArenaDetails struct {
	Arena     *models.Arena       `json:"arena"`
	Teams     []models.Team       `json:"teams"`
	Matches   []models.Match      `json:"matches"`
	Pool      []models.PoolPlayer `json:"pool"`
	Standings *models.Standings   `json:"standings"`
}

type arenaService struct {
	arenaRepo       repositories.ArenaRepository
	joinRepo        repositories.JoinRequestRepository
	poolRepo        repositories.PoolPlayerRepository
	userRepo        repositories.UserRepository
	teamRepo        repositories.TeamRepository
	matchRepo       repositories.MatchRepository
	standingService StandingsService
	logger          *slog.Logger
}

func NewArenaService(
	arenaRepo repositories.ArenaRepository,
	joinRepo repositories.JoinRequestRepository,
	poolRepo repositories.PoolPlayerRepository,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standingService StandingsService,
	logger *slog.Logger,
) ArenaService {
	return &arenaService{
		arenaRepo:       arenaRepo,
		joinRepo:        joinRepo,
		poolRepo:        poolRepo,
		userRepo:        userRepo,
		teamRepo:        teamRepo,
		matchRepo:       matchRepo,
		standingService: standingService,
		logger:          logger,
	}
}

func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:joinCodeLength])
}

func (s *arenaService) CreateArena(ctx context.Context, actor Actor, input CreateArenaInput) (*models.Arena, error) {
	if actor.Role != models.RoleOrganizer && !actor.IsSuperAdmin() {
		return nil, ErrForbiddenOperation
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: arena name is required", ErrValidationFailed)
	}

	arena := &models.Arena{
		Name:            name,
		Description:     input.Description,
		OrganizerID:     actor.UserID,
		IsPublic:        input.IsPublic == nil || *input.IsPublic,
		ScorerPIN:       DefaultScorerPIN,
		RankingCriteria: standings.Strings(standings.DefaultOrder()),
	}

	var err error
	for attempt := 0; attempt < joinCodeMaxRetries; attempt++ {
		arena.UniqueID = newJoinCode()
		err = s.arenaRepo.Create(ctx, arena)
		if !errors.Is(err, repositories.ErrArenaUniqueIDConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repositories.ErrArenaOrganizerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, handleRepositoryError(err, "failed to create arena")
	}

	s.logger.Info("arena created", slog.Int("arena_id", arena.ID), slog.Int("organizer_id", actor.UserID))
	return arena, nil
}

func (s *arenaService) GetArena(ctx context.Context, id int) (*models.Arena, error) {
	arena, err := s.arenaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	return arena, nil
}

func (s *arenaService) GetArenaByJoinCode(ctx context.Context, code string) (*models.Arena, error) {
	arena, err := s.arenaRepo.GetByUniqueID(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena by join code")
	}
	return arena, nil
}

func (s *arenaService) ListArenas(ctx context.Context, filter repositories.ListArenasFilter) ([]models.Arena, error) {
	arenas, err := s.arenaRepo.List(ctx, filter)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list arenas")
	}
	return arenas, nil
}

func (s *arenaService) managedArena(ctx context.Context, actor Actor, arenaID int) (*models.Arena, error) {
	return loadManagedArena(ctx, s.arenaRepo, actor, arenaID)
}

func (s *arenaService) DeleteArena(ctx context.Context, actor Actor, id int) error {
	if _, err := s.managedArena(ctx, actor, id); err != nil {
		return err
	}
	if err := s.arenaRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError(err, "failed to delete arena")
	}
	s.logger.Info("arena deleted", slog.Int("arena_id", id), slog.Int("actor_id", actor.UserID))
	return nil
}

func (s *arenaService) GetArenaDetails(ctx context.Context, id int) (*ArenaDetails, error) {
	details := &ArenaDetails{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		arena, err := s.arenaRepo.GetByID(gctx, id)
		if err != nil {
			return handleRepositoryError(err, "failed to get arena")
		}
		details.Arena = arena
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByArena(gctx, id)
		if err != nil {
			return handleRepositoryError(err, "failed to list teams")
		}
		details.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByArena(gctx, id, nil)
		if err != nil {
			return handleRepositoryError(err, "failed to list matches")
		}
		details.Matches = matches
		return nil
	})
	g.Go(func() error {
		pool, err := s.poolRepo.ListByArena(gctx, id)
		if err != nil {
			return handleRepositoryError(err, "failed to list pool")
		}
		details.Pool = pool
		return nil
	})
	g.Go(func() error {
		table, err := s.standingService.GetStandings(gctx, id)
		if err != nil {
			return err
		}
		details.Standings = table
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	attachTeams(details.Matches, details.Teams)
	return details, nil
}

func attachTeams(matches []models.Match, teams []models.Team) {
	byID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		byID[teams[i].ID] = &teams[i]
	}
	for i := range matches {
		matches[i].TeamA = byID[matches[i].TeamAID]
		matches[i].TeamB = byID[matches[i].TeamBID]
	}
}

func (s *arenaService) JoinArena(ctx context.Context, actor Actor, arenaID int) (*JoinResult, error) {
	if actor.UserID == 0 {
		return nil, ErrAuthenticationFailed
	}
	arena, err := s.arenaRepo.GetByID(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	if arena.HasMember(actor.UserID) {
		return nil, ErrAlreadyMember
	}

	if arena.IsPublic {
		if err := s.arenaRepo.AddMember(ctx, arenaID, actor.UserID); err != nil {
			return nil, handleRepositoryError(err, "failed to join arena")
		}
		return &JoinResult{Joined: true}, nil
	}

	req := &models.JoinRequest{
		ArenaID:  arenaID,
		UserID:   actor.UserID,
		Username: actor.Username,
		Status:   models.JoinRequestPending,
	}
	if err := s.joinRepo.Create(ctx, req); err != nil {
		return nil, handleRepositoryError(err, "failed to create join request")
	}
	return &JoinResult{Request: req}, nil
}

func (s *arenaService) ListJoinRequests(ctx context.Context, actor Actor, arenaID int) ([]models.JoinRequest, error) {
	if _, err := s.managedArena(ctx, actor, arenaID); err != nil {
		return nil, err
	}
	pending := models.JoinRequestPending
	requests, err := s.joinRepo.ListByArena(ctx, arenaID, &pending)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list join requests")
	}
	return requests, nil
}

func (s *arenaService) ResolveJoinRequest(ctx context.Context, actor Actor, arenaID, requestID int, approve bool) (*models.JoinRequest, error) {
	if _, err := s.managedArena(ctx, actor, arenaID); err != nil {
		return nil, err
	}
	req, err := s.joinRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get join request")
	}
	if req.ArenaID != arenaID {
		return nil, ErrJoinRequestNotFound
	}
	if req.Status != models.JoinRequestPending {
		return nil, ErrRequestResolved
	}

	status := models.JoinRequestRejected
	if approve {
		status = models.JoinRequestApproved
	}
	if err := s.joinRepo.UpdateStatus(ctx, requestID, status); err != nil {
		if errors.Is(err, repositories.ErrJoinRequestNotFound) {
			return nil, ErrRequestResolved
		}
		return nil, handleRepositoryError(err, "failed to resolve join request")
	}
	if approve {
		if err := s.arenaRepo.AddMember(ctx, arenaID, req.UserID); err != nil {
			return nil, handleRepositoryError(err, "failed to add member")
		}
	}
	req.Status = status
	return req, nil
}

func (s *arenaService) LockArena(ctx context.Context, actor Actor, arenaID int) (*models.Arena, error) {
	arena, err := s.managedArena(ctx, actor, arenaID)
	if err != nil {
		return nil, err
	}
	if arena.IsLocked {
		return arena, nil
	}
	if err := s.arenaRepo.SetLocked(ctx, arenaID, true); err != nil {
		return nil, handleRepositoryError(err, "failed to lock arena")
	}
	arena.IsLocked = true
	s.logger.Info("arena locked", slog.Int("arena_id", arenaID))
	return arena, nil
}

func validScorerPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *arenaService) UpdateScorerPIN(ctx context.Context, actor Actor, arenaID int, pin string) error {
	if !validScorerPIN(pin) {
		return ErrInvalidScorerPIN
	}
	arena, err := s.managedArena(ctx, actor, arenaID)
	if err != nil {
		return err
	}
	if err := s.arenaRepo.UpdateSettings(ctx, arenaID, pin, arena.RankingCriteria); err != nil {
		return handleRepositoryError(err, "failed to update scorer PIN")
	}
	return nil
}

func (s *arenaService) UpdateRankingCriteria(ctx context.Context, actor Actor, arenaID int, criteria []string) (*models.Arena, error) {
	order, err := standings.ParseOrder(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	arena, err := s.managedArena(ctx, actor, arenaID)
	if err != nil {
		return nil, err
	}
	return s.saveCriteria(ctx, arena, order)
}

func (s *arenaService) MoveRankingCriterion(ctx context.Context, actor Actor, arenaID, index int, direction string) (*models.Arena, error) {
	arena, err := s.managedArena(ctx, actor, arenaID)
	if err != nil {
		return nil, err
	}
	current := arenaCriteria(arena)
	order, err := standings.Move(current, index, standings.Direction(strings.ToLower(direction)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return s.saveCriteria(ctx, arena, order)
}

func (s *arenaService) saveCriteria(ctx context.Context, arena *models.Arena, order []standings.Criterion) (*models.Arena, error) {
	names := standings.Strings(order)
	if err := s.arenaRepo.UpdateSettings(ctx, arena.ID, arena.ScorerPIN, names); err != nil {
		return nil, handleRepositoryError(err, "failed to update ranking criteria")
	}
	arena.RankingCriteria = names
	return arena, nil
}

// arenaCriteria returns the arena's stored order, falling back to the
// default when the stored value is missing or corrupt.
func arenaCriteria(arena *models.Arena) []standings.Criterion {
	order, err := standings.ParseOrder(arena.RankingCriteria)
	if err != nil {
		return standings.DefaultOrder()
	}
	return order
}

func (s *arenaService) unlockedArena(ctx context.Context, actor Actor, arenaID int) (*models.Arena, error) {
	return loadUnlockedArena(ctx, s.arenaRepo, actor, arenaID)
}

func (s *arenaService) AddPoolPlayer(ctx context.Context, actor Actor, arenaID int, entry string) (*models.PoolPlayer, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if _, err := s.unlockedArena(ctx, actor, arenaID); err != nil {
		return nil, err
	}
	pool, err := s.poolRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list pool")
	}

	byUsername := strings.HasPrefix(entry, "@")
	term := strings.ToLower(strings.TrimPrefix(entry, "@"))
	player := &models.PoolPlayer{ArenaID: arenaID, Name: entry}

	user, err := s.userRepo.GetByUsername(ctx, term)
	switch {
	case err == nil:
		fillRegistered(player, user)
	case errors.Is(err, repositories.ErrUserNotFound):
		if byUsername {
			return nil, ErrUserNotFound
		}
	default:
		return nil, handleRepositoryError(err, "failed to look up user")
	}

	if inPool(pool, player.Name, derefString(player.Username)) {
		return nil, ErrPlayerInPool
	}
	if err := s.poolRepo.Create(ctx, player); err != nil {
		return nil, handleRepositoryError(err, "failed to add pool player")
	}
	return player, nil
}

func (s *arenaService) ImportPoolPlayers(ctx context.Context, actor Actor, arenaID int, text string) (*ImportResult, error) {
	entries := parsePoolImport(text)
	if len(entries) == 0 {
		return nil, ErrEmptyImport
	}
	if _, err := s.unlockedArena(ctx, actor, arenaID); err != nil {
		return nil, err
	}
	pool, err := s.poolRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list pool")
	}

	result := &ImportResult{Added: []models.PoolPlayer{}, Skipped: []string{}}
	for _, e := range entries {
		if inPool(pool, e.Name, e.Username) {
			result.Skipped = append(result.Skipped, e.Name)
			continue
		}

		player := &models.PoolPlayer{ArenaID: arenaID, Name: e.Name}
		if e.Username != "" {
			username := e.Username
			player.Username = &username
			user, err := s.userRepo.GetByUsername(ctx, e.Username)
			switch {
			case err == nil:
				fillRegistered(player, user)
			case !errors.Is(err, repositories.ErrUserNotFound):
				return nil, handleRepositoryError(err, "failed to look up user")
			}
		}

		if err := s.poolRepo.Create(ctx, player); err != nil {
			if errors.Is(err, repositories.ErrPoolPlayerConflict) {
				result.Skipped = append(result.Skipped, e.Name)
				continue
			}
			return nil, handleRepositoryError(err, "failed to add pool player")
		}
		pool = append(pool, *player)
		result.Added = append(result.Added, *player)
	}

	s.logger.Info("pool imported",
		slog.Int("arena_id", arenaID),
		slog.Int("added", len(result.Added)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *arenaService) ListPoolPlayers(ctx context.Context, arenaID int) ([]models.PoolPlayer, error) {
	players, err := s.poolRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list pool")
	}
	return players, nil
}

func (s *arenaService) RemovePoolPlayer(ctx context.Context, actor Actor, arenaID, playerID int) error {
	if _, err := s.unlockedArena(ctx, actor, arenaID); err != nil {
		return err
	}
	if err := s.poolRepo.Delete(ctx, arenaID, playerID); err != nil {
		return handleRepositoryError(err, "failed to remove pool player")
	}
	return nil
}
