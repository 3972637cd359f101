package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/smash-arena/brackets"
	"github.com/Dosada05/smash-arena/live"
	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
	"github.com/Dosada05/smash-arena/scoring"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

type MatchService interface {
	ScheduleMatch(ctx context.Context, actor Actor, arenaID int, input ScheduleMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListMatches(ctx context.Context, arenaID int) ([]models.Match, error)
	DeleteMatch(ctx context.Context, actor Actor, arenaID, matchID int) error
	GenerateRoundRobin(ctx context.Context, actor Actor, arenaID int, input RoundRobinInput) ([]models.Match, error)

	ApplyPoint(ctx context.Context, grant ScoreGrant, matchID int, input PointInput) (*ScoreUpdate, error)
	SubmitScore(ctx context.Context, grant ScoreGrant, matchID int, score scoring.MatchScore) (*ScoreUpdate, error)
	UndoLastPoint(ctx context.Context, grant ScoreGrant, matchID int) (*ScoreUpdate, error)
	ListScoreEvents(ctx context.Context, matchID int) ([]models.ScoreEvent, error)
}

// ScheduleMatchInput mirrors the organizer's match form. Points is one of
// the presets (11, 15, 21); 0 means CustomPoints is used instead.
type ScheduleMatchInput struct {
	TeamAID        int    `json:"team_a_id"`
	TeamBID        int    `json:"team_b_id"`
	Points         int    `json:"points"`
	CustomPoints   string `json:"custom_points,omitempty"`
	GoldenPointCap int    `json:"golden_point_cap,omitempty"`
	BestOf         int    `json:"best_of,omitempty"`
	Court          int    `json:"court,omitempty"`
	UmpireName     string `json:"umpire_name,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
}

// RoundRobinInput schedules every team of the arena against every other.
// Rule fields mean the same as in ScheduleMatchInput. Matches of a round
// are spread over Courts; when a round needs more matches than there are
// courts the extra ones start SlotMinutes later.
type RoundRobinInput struct {
	Legs           int    `json:"legs,omitempty"`
	Courts         int    `json:"courts,omitempty"`
	SlotMinutes    int    `json:"slot_minutes,omitempty"`
	Points         int    `json:"points"`
	CustomPoints   string `json:"custom_points,omitempty"`
	GoldenPointCap int    `json:"golden_point_cap,omitempty"`
	BestOf         int    `json:"best_of,omitempty"`
	Date           string `json:"date,omitempty"`
	Time           string `json:"time,omitempty"`
}

const defaultSlotMinutes = 30

type PointInput struct {
	SetIndex int          `json:"set_index"`
	Side     scoring.Side `json:"side"`
	Delta    int          `json:"delta"`
}

// ScoreUpdate is the result of a score write. Match is the stored state
// after the write.
type ScoreUpdate struct {
	Match      *models.Match      `json:"match"`
	Transition scoring.Transition `json:"transition"`
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	arenaRepo       repositories.ArenaRepository
	teamRepo        repositories.TeamRepository
	eventRepo       repositories.ScoreEventRepository
	standingService StandingsService
	broadcaster     Broadcaster
	logger          *slog.Logger
	locks           *keyedMutex
	now             func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	arenaRepo repositories.ArenaRepository,
	teamRepo repositories.TeamRepository,
	eventRepo repositories.ScoreEventRepository,
	standingService StandingsService,
	broadcaster Broadcaster,
	logger *slog.Logger,
) MatchService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &matchService{
		matchRepo:       matchRepo,
		arenaRepo:       arenaRepo,
		teamRepo:        teamRepo,
		eventRepo:       eventRepo,
		standingService: standingService,
		broadcaster:     broadcaster,
		logger:          logger,
		locks:           newKeyedMutex(),
		now:             time.Now,
	}
}

func (s *matchService) ScheduleMatch(ctx context.Context, actor Actor, arenaID int, input ScheduleMatchInput) (*models.Match, error) {
	arena, err := loadManagedArena(ctx, s.arenaRepo, actor, arenaID)
	if err != nil {
		return nil, err
	}
	if !arena.IsLocked {
		return nil, ErrArenaNotLocked
	}
	if input.TeamAID == 0 || input.TeamBID == 0 || input.TeamAID == input.TeamBID {
		return nil, ErrSameTeam
	}
	for _, id := range []int{input.TeamAID, input.TeamBID} {
		team, err := s.teamRepo.GetByID(ctx, id)
		if err != nil {
			return nil, handleRepositoryError(err, "failed to get team")
		}
		if team.ArenaID != arenaID {
			return nil, ErrTeamNotInArena
		}
	}

	rules, err := rulesFromInput(input)
	if err != nil {
		return nil, err
	}
	start, err := parseSchedule(input.Date, input.Time, s.now())
	if err != nil {
		return nil, err
	}

	board, err := scoring.NewBoard(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	court := input.Court
	if court <= 0 {
		court = 1
	}
	match := &models.Match{
		ArenaID:   arenaID,
		TeamAID:   input.TeamAID,
		TeamBID:   input.TeamBID,
		Rules:     rules,
		Court:     court,
		StartTime: start,
	}
	if umpire := strings.TrimSpace(input.UmpireName); umpire != "" {
		match.UmpireName = &umpire
	}
	match.SetBoard(board)

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err, "failed to create match")
	}
	s.logger.Info("match scheduled",
		slog.Int("arena_id", arenaID),
		slog.Int("match_id", match.ID),
		slog.Time("start_time", match.StartTime),
	)
	s.broadcaster.BroadcastToArena(arenaID, live.MessageMatchUpdated, ScoreUpdate{Match: match})
	return match, nil
}

// GenerateRoundRobin creates the full fixture list of a locked arena. It
// refuses to run once any match exists.
func (s *matchService) GenerateRoundRobin(ctx context.Context, actor Actor, arenaID int, input RoundRobinInput) ([]models.Match, error) {
	arena, err := loadManagedArena(ctx, s.arenaRepo, actor, arenaID)
	if err != nil {
		return nil, err
	}
	if !arena.IsLocked {
		return nil, ErrArenaNotLocked
	}
	existing, err := s.matchRepo.ListByArena(ctx, arenaID, nil)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list matches")
	}
	if len(existing) > 0 {
		return nil, ErrFixturesExist
	}

	legs, courts, slot := input.Legs, input.Courts, input.SlotMinutes
	if legs == 0 {
		legs = 1
	}
	if courts <= 0 {
		courts = 1
	}
	if slot <= 0 {
		slot = defaultSlotMinutes
	}
	rules, err := rulesFromInput(ScheduleMatchInput{
		Points:         input.Points,
		CustomPoints:   input.CustomPoints,
		GoldenPointCap: input.GoldenPointCap,
		BestOf:         input.BestOf,
	})
	if err != nil {
		return nil, err
	}
	start, err := parseSchedule(input.Date, input.Time, s.now())
	if err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list teams")
	}
	teamIDs := make([]int, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}
	pairings, err := brackets.RoundRobin(teamIDs, legs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	wavesPerRound := (len(teamIDs)/2 + courts - 1) / courts
	matches := make([]models.Match, 0, len(pairings))
	for _, p := range pairings {
		board, err := scoring.NewBoard(rules)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		wave := (p.Round-1)*wavesPerRound + (p.Slot-1)/courts
		match := &models.Match{
			ArenaID:   arenaID,
			TeamAID:   p.TeamA,
			TeamBID:   p.TeamB,
			Rules:     rules,
			Court:     (p.Slot-1)%courts + 1,
			StartTime: start.Add(time.Duration(wave*slot) * time.Minute),
		}
		match.SetBoard(board)
		if err := s.matchRepo.Create(ctx, match); err != nil {
			return nil, handleRepositoryError(err, "failed to create round robin match")
		}
		matches = append(matches, *match)
		s.broadcaster.BroadcastToArena(arenaID, live.MessageMatchUpdated, ScoreUpdate{Match: match})
	}

	s.logger.Info("round robin scheduled",
		slog.Int("arena_id", arenaID),
		slog.Int("teams", len(teamIDs)),
		slog.Int("matches", len(matches)),
		slog.Int("rounds", brackets.Rounds(len(teamIDs), legs)),
	)
	return matches, nil
}

func rulesFromInput(input ScheduleMatchInput) (scoring.Rules, error) {
	rules := scoring.DefaultRules()
	switch {
	case input.Points < 0:
		return scoring.Rules{}, fmt.Errorf("%w: %v", ErrValidationFailed, scoring.ErrInvalidTargetPoints)
	case input.Points > 0:
		rules.TargetPoints = input.Points
	case strings.TrimSpace(input.CustomPoints) != "":
		points, err := scoring.ParseTargetPoints(input.CustomPoints)
		if err != nil {
			return scoring.Rules{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		rules.TargetPoints = points
	}
	rules.GoldenPointCap = scoring.DefaultCapFor(rules.TargetPoints)
	if input.GoldenPointCap != 0 {
		rules.GoldenPointCap = input.GoldenPointCap
	}
	if input.BestOf != 0 {
		rules.BestOf = input.BestOf
	}
	if err := rules.Validate(); err != nil {
		return scoring.Rules{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return rules, nil
}

// parseSchedule turns the free-form date and time fields into an instant.
// Empty fields mean "now"; a date without a time means midnight UTC.
func parseSchedule(date, clock string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
	if raw == "" {
		return now.UTC(), nil
	}
	if strings.TrimSpace(date) == "" {
		raw = now.UTC().Format("2006-01-02") + " " + raw
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, raw)
	}
	return t.UTC(), nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get match")
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, arenaID int) ([]models.Match, error) {
	if _, err := s.arenaRepo.GetByID(ctx, arenaID); err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	matches, err := s.matchRepo.ListByArena(ctx, arenaID, nil)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list matches")
	}
	return matches, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, actor Actor, arenaID, matchID int) error {
	if _, err := loadManagedArena(ctx, s.arenaRepo, actor, arenaID); err != nil {
		return err
	}
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return handleRepositoryError(err, "failed to get match")
	}
	if match.ArenaID != arenaID {
		return ErrMatchNotFound
	}
	if match.Status == scoring.StatusCompleted {
		return ErrMatchCompleted
	}
	if err := s.matchRepo.Delete(ctx, arenaID, matchID); err != nil {
		return handleRepositoryError(err, "failed to delete match")
	}
	return nil
}

// loadForScoring fetches the match, checks the grant and rebuilds the board.
func (s *matchService) loadForScoring(ctx context.Context, grant ScoreGrant, matchID int) (*models.Match, scoring.Board, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, scoring.Board{}, handleRepositoryError(err, "failed to get match")
	}
	if !grant.allows(match.ArenaID) {
		return nil, scoring.Board{}, ErrScoringNotAllowed
	}
	board, err := match.Board()
	if err != nil {
		return nil, scoring.Board{}, fmt.Errorf("match %d has inconsistent stored state: %w", matchID, err)
	}
	return match, board, nil
}

func (s *matchService) ApplyPoint(ctx context.Context, grant ScoreGrant, matchID int, input PointInput) (*ScoreUpdate, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, board, err := s.loadForScoring(ctx, grant, matchID)
	if err != nil {
		return nil, err
	}
	next, tr, err := board.Apply(input.SetIndex, input.Side, input.Delta)
	if err != nil {
		return nil, translateScoringError(err)
	}
	if !tr.Changed {
		return &ScoreUpdate{Match: match, Transition: tr}, nil
	}

	if err := s.commitBoard(ctx, grant, match, next, input.SetIndex, input.Side, input.Delta); err != nil {
		return nil, err
	}
	s.publish(ctx, match, tr)
	return &ScoreUpdate{Match: match, Transition: tr}, nil
}

func (s *matchService) SubmitScore(ctx context.Context, grant ScoreGrant, matchID int, score scoring.MatchScore) (*ScoreUpdate, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, board, err := s.loadForScoring(ctx, grant, matchID)
	if err != nil {
		return nil, err
	}
	next, err := board.Submit(score)
	if err != nil {
		return nil, translateScoringError(err)
	}

	tr := scoring.Transition{Changed: true, SetIndex: -1, ActiveSet: next.ActiveSet}
	if next.Status == scoring.StatusCompleted {
		tr.MatchDecided = next.Winner
	}
	// Delta 0 marks a full sheet submission; undo stops there.
	if err := s.commitBoard(ctx, grant, match, next, -1, scoring.SideNone, 0); err != nil {
		return nil, err
	}
	s.publish(ctx, match, tr)
	return &ScoreUpdate{Match: match, Transition: tr}, nil
}

func (s *matchService) UndoLastPoint(ctx context.Context, grant ScoreGrant, matchID int) (*ScoreUpdate, error) {
	unlock := s.locks.Lock(matchID)
	defer unlock()

	match, board, err := s.loadForScoring(ctx, grant, matchID)
	if err != nil {
		return nil, err
	}
	if board.Status == scoring.StatusCompleted {
		return nil, ErrMatchCompleted
	}

	last, err := s.eventRepo.Last(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoreEventNotFound) {
			return nil, ErrNothingToUndo
		}
		return nil, fmt.Errorf("failed to load last score event: %w", err)
	}
	if last.Delta == 0 {
		return nil, ErrNothingToUndo
	}

	if !last.ScoreAfter.Equal(board.Score) {
		return nil, ErrScoreLogMismatch
	}

	next, err := previousBoard(board, last)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScoreLogMismatch, err)
	}
	tr := scoring.Transition{
		Changed:   true,
		SetIndex:  last.SetIndex,
		ActiveSet: next.ActiveSet,
	}
	if next.Status == scoring.StatusCompleted {
		tr.MatchDecided = next.Winner
	}

	if err := s.eventRepo.Delete(ctx, last.ID); err != nil {
		return nil, fmt.Errorf("failed to drop undone score event: %w", err)
	}
	if err := s.saveBoard(ctx, match, next); err != nil {
		s.restoreEvent(ctx, last)
		return nil, err
	}
	s.publish(ctx, match, tr)
	return &ScoreUpdate{Match: match, Transition: tr}, nil
}

func (s *matchService) ListScoreEvents(ctx context.Context, matchID int) ([]models.ScoreEvent, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		return nil, handleRepositoryError(err, "failed to get match")
	}
	events, err := s.eventRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list score events: %w", err)
	}
	return events, nil
}

func (s *matchService) saveBoard(ctx context.Context, match *models.Match, board scoring.Board) error {
	updated := *match
	updated.SetBoard(board)
	if err := s.matchRepo.UpdateScore(ctx, nil, &updated); err != nil {
		return handleRepositoryError(err, "failed to save match score")
	}
	*match = updated
	return nil
}

// commitBoard stores next together with its score log entry. The entry goes
// first so a stored score always has a matching last event; if the score
// cannot be saved the entry is taken back out.
func (s *matchService) commitBoard(ctx context.Context, grant ScoreGrant, match *models.Match, next scoring.Board, setIndex int, side scoring.Side, delta int) error {
	seq, err := s.nextSeq(ctx, match.ID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	event := &models.ScoreEvent{
		ID:         uuid.NewString(),
		Seq:        seq,
		MatchID:    match.ID,
		ArenaID:    match.ArenaID,
		SetIndex:   setIndex,
		Side:       side,
		Delta:      delta,
		ActorID:    grant.ActorID(),
		ViaPIN:     grant.ViaPIN(),
		ScoreAfter: next.Score.Clone(),
		CreatedAt:  now,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return handleRepositoryError(err, "failed to append score event")
	}
	if err := s.saveBoard(ctx, match, next); err != nil {
		if derr := s.eventRepo.Delete(ctx, event.ID); derr != nil {
			s.logger.Error("failed to drop score event of unsaved score",
				slog.Int("match_id", match.ID),
				slog.String("event_id", event.ID),
				slog.Any("error", derr),
			)
		}
		return err
	}
	return nil
}

// nextSeq numbers score events per match. Callers hold the match lock.
func (s *matchService) nextSeq(ctx context.Context, matchID int) (int64, error) {
	last, err := s.eventRepo.Last(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoreEventNotFound) {
			return 1, nil
		}
		return 0, fmt.Errorf("failed to load last score event: %w", err)
	}
	return last.Seq + 1, nil
}

func (s *matchService) restoreEvent(ctx context.Context, event *models.ScoreEvent) {
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Error("failed to restore score event",
			slog.Int("match_id", event.MatchID),
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}
}

// previousBoard rebuilds the board as it was before last was applied. The
// point is taken back directly, so a correction on a set that stayed decided
// can be undone too.
func previousBoard(board scoring.Board, last *models.ScoreEvent) (scoring.Board, error) {
	if last.SetIndex < 0 || last.SetIndex >= len(board.Score) {
		return scoring.Board{}, fmt.Errorf("%w: %d", scoring.ErrSetOutOfRange, last.SetIndex)
	}
	prev := board.Score.Clone()
	set := &prev[last.SetIndex]
	switch last.Side {
	case scoring.SideA:
		set.A -= last.Delta
	case scoring.SideB:
		set.B -= last.Delta
	default:
		return scoring.Board{}, fmt.Errorf("%w: %v", scoring.ErrInvalidSide, last.Side)
	}
	return scoring.RestoreBoard(board.Rules, prev, board.Status)
}

func (s *matchService) publish(ctx context.Context, match *models.Match, tr scoring.Transition) {
	s.broadcaster.BroadcastToArena(match.ArenaID, live.MessageMatchUpdated, ScoreUpdate{Match: match, Transition: tr})
	if match.Status != scoring.StatusCompleted || s.standingService == nil {
		return
	}

	s.logger.Info("match completed",
		slog.Int("arena_id", match.ArenaID),
		slog.Int("match_id", match.ID),
		slog.Any("winner_team_id", match.WinnerTeamID),
	)
	table, err := s.standingService.GetStandings(ctx, match.ArenaID)
	if err != nil {
		s.logger.Error("failed to refresh standings", slog.Int("arena_id", match.ArenaID), slog.Any("error", err))
		return
	}
	s.broadcaster.BroadcastToArena(match.ArenaID, live.MessageStandingsUpdated, table)
}

func translateScoringError(err error) error {
	if errors.Is(err, scoring.ErrMatchCompleted) {
		return ErrMatchCompleted
	}
	return err
}
