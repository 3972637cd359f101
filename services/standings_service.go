package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
	"github.com/Dosada05/smash-arena/scoring"
	"github.com/Dosada05/smash-arena/standings"
	"github.com/Dosada05/smash-arena/storage"
	"github.com/gosimple/slug"
)

type ExportKind string

const (
	ExportStandingsCSV ExportKind = "standings_csv"
	ExportRosterCSV    ExportKind = "roster_csv"
	ExportRosterTXT    ExportKind = "roster_txt"
)

// Export is a generated file ready to be downloaded or uploaded.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

type PublishedExport struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, arenaID int) (*models.Standings, error)
	GetSnapshot(ctx context.Context, arenaID int) ([]models.StandingRow, error)
	BuildExport(ctx context.Context, arenaID int, kind ExportKind) (*Export, error)
	PublishExport(ctx context.Context, actor Actor, arenaID int, kind ExportKind) (*PublishedExport, error)
	SnapshotLockedArenas(ctx context.Context) error
}

type standingsService struct {
	arenaRepo    repositories.ArenaRepository
	teamRepo     repositories.TeamRepository
	matchRepo    repositories.MatchRepository
	poolRepo     repositories.PoolPlayerRepository
	standingRepo repositories.StandingRepository
	uploader     storage.FileUploader
	logger       *slog.Logger
	now          func() time.Time
}

// NewStandingsService builds the service. uploader may be nil when no bucket
// is configured; publishing then fails with ErrStorageUnavailable.
func NewStandingsService(
	arenaRepo repositories.ArenaRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolPlayerRepository,
	standingRepo repositories.StandingRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		arenaRepo:    arenaRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		poolRepo:     poolRepo,
		standingRepo: standingRepo,
		uploader:     uploader,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, arenaID int) (*models.Standings, error) {
	arena, err := s.arenaRepo.GetByID(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	return s.compute(ctx, arena)
}

func (s *standingsService) compute(ctx context.Context, arena *models.Arena) (*models.Standings, error) {
	completed := scoring.StatusCompleted
	matches, err := s.matchRepo.ListByArena(ctx, arena.ID, &completed)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list completed matches")
	}
	teams, err := s.teamRepo.ListByArena(ctx, arena.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list teams")
	}
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	criteria := arenaCriteria(arena)
	table := standings.Compute(toStandingMatches(matches), criteria)

	result := &models.Standings{
		ArenaID:  arena.ID,
		Criteria: standings.Strings(criteria),
		Rows:     make([]models.StandingRow, 0, len(table.Rows)),
	}
	now := s.now().UTC()
	for i, row := range table.Rows {
		result.Rows = append(result.Rows, models.StandingRow{
			ArenaID:          arena.ID,
			Rank:             i + 1,
			TeamID:           row.TeamID,
			TeamName:         names[row.TeamID],
			Played:           row.Played,
			Won:              row.Won,
			Lost:             row.Lost,
			SetsWon:          row.SetsWon,
			SetsLost:         row.SetsLost,
			PointsScored:     row.PointsScored,
			PointsConceded:   row.PointsConceded,
			PointsDifference: row.PointsDifferential(),
			UpdatedAt:        now,
		})
	}
	for _, ex := range table.Excluded {
		s.logger.Warn("match excluded from standings",
			slog.Int("arena_id", arena.ID),
			slog.Int("match_id", ex.MatchID),
			slog.String("reason", ex.Reason()),
		)
		result.Excluded = append(result.Excluded, models.ExcludedMatch{MatchID: ex.MatchID, Reason: ex.Reason()})
	}
	return result, nil
}

// toStandingMatches keeps completed matches only. A completed record without
// a winner is passed on with winner 0 so the aggregator reports it.
func toStandingMatches(matches []models.Match) []standings.Match {
	out := make([]standings.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status != scoring.StatusCompleted {
			continue
		}
		sm := standings.Match{
			ID:    m.ID,
			SideA: m.TeamAID,
			SideB: m.TeamBID,
			Rules: m.Rules,
			Score: m.Score,
		}
		if m.WinnerTeamID != nil {
			sm.Winner = *m.WinnerTeamID
		}
		out = append(out, sm)
	}
	return out
}

func (s *standingsService) GetSnapshot(ctx context.Context, arenaID int) ([]models.StandingRow, error) {
	if _, err := s.arenaRepo.GetByID(ctx, arenaID); err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	rows, err := s.standingRepo.ListByArena(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list standings snapshot")
	}
	return rows, nil
}

func (s *standingsService) BuildExport(ctx context.Context, arenaID int, kind ExportKind) (*Export, error) {
	arena, err := s.arenaRepo.GetByID(ctx, arenaID)
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get arena")
	}
	return s.buildExport(ctx, arena, kind)
}

func (s *standingsService) buildExport(ctx context.Context, arena *models.Arena, kind ExportKind) (*Export, error) {
	switch kind {
	case ExportStandingsCSV:
		table, err := s.compute(ctx, arena)
		if err != nil {
			return nil, err
		}
		data, err := standingsCSV(table.Rows)
		if err != nil {
			return nil, err
		}
		return &Export{FileName: exportFileName(arena.Name, "Standings", "csv"), ContentType: "text/csv", Data: data}, nil

	case ExportRosterCSV, ExportRosterTXT:
		pool, err := s.poolRepo.ListByArena(ctx, arena.ID)
		if err != nil {
			return nil, handleRepositoryError(err, "failed to list pool players")
		}
		if kind == ExportRosterTXT {
			return &Export{FileName: exportFileName(arena.Name, "Players", "txt"), ContentType: "text/plain", Data: rosterTXT(pool)}, nil
		}
		data, err := rosterCSV(pool)
		if err != nil {
			return nil, err
		}
		return &Export{FileName: exportFileName(arena.Name, "Players", "csv"), ContentType: "text/csv", Data: data}, nil
	}
	return nil, fmt.Errorf("%w: unknown export %q", ErrValidationFailed, kind)
}

func (s *standingsService) PublishExport(ctx context.Context, actor Actor, arenaID int, kind ExportKind) (*PublishedExport, error) {
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}
	arena, err := loadManagedArena(ctx, s.arenaRepo, actor, arenaID)
	if err != nil {
		return nil, err
	}
	export, err := s.buildExport(ctx, arena, kind)
	if err != nil {
		return nil, err
	}
	return s.upload(ctx, arena.ID, export)
}

func (s *standingsService) upload(ctx context.Context, arenaID int, export *Export) (*PublishedExport, error) {
	key := storage.ExportKey(arenaID, export.FileName)
	res, err := s.uploader.Upload(ctx, key, export.ContentType, bytes.NewReader(export.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload export %s: %w", export.FileName, err)
	}
	return &PublishedExport{Key: res.Key, URL: res.Location, FileName: export.FileName}, nil
}

// SnapshotLockedArenas stores the current table of every locked arena and,
// when a bucket is configured, uploads its standings CSV. One failing arena
// does not stop the others.
func (s *standingsService) SnapshotLockedArenas(ctx context.Context) error {
	locked := true
	arenas, err := s.arenaRepo.List(ctx, repositories.ListArenasFilter{Locked: &locked})
	if err != nil {
		return handleRepositoryError(err, "failed to list locked arenas")
	}

	var failed int
	for i := range arenas {
		arena := &arenas[i]
		if err := s.snapshotArena(ctx, arena); err != nil {
			failed++
			s.logger.Error("standings snapshot failed", slog.Int("arena_id", arena.ID), slog.Any("error", err))
		}
	}
	s.logger.Info("standings snapshot finished", slog.Int("arenas", len(arenas)), slog.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("standings snapshot failed for %d of %d arenas", failed, len(arenas))
	}
	return nil
}

func (s *standingsService) snapshotArena(ctx context.Context, arena *models.Arena) error {
	table, err := s.compute(ctx, arena)
	if err != nil {
		return err
	}
	if err := s.standingRepo.ReplaceForArena(ctx, arena.ID, table.Rows); err != nil {
		return fmt.Errorf("failed to store standings: %w", err)
	}
	if s.uploader == nil {
		return nil
	}
	data, err := standingsCSV(table.Rows)
	if err != nil {
		return err
	}
	_, err = s.upload(ctx, arena.ID, &Export{
		FileName:    exportFileName(arena.Name, "Standings", "csv"),
		ContentType: "text/csv",
		Data:        data,
	})
	return err
}

// exportFileName gives names like "spring-open_Players.csv".
func exportFileName(arenaName, suffix, ext string) string {
	base := slug.Make(arenaName)
	if base == "" {
		base = "arena"
	}
	return base + "_" + suffix + "." + ext
}

func standingsCSV(rows []models.StandingRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{{"Rank", "Team", "Played", "Won", "Lost", "Sets Won", "Sets Lost", "Points For", "Points Against", "Points Diff"}}
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Rank),
			r.TeamName,
			strconv.Itoa(r.Played),
			strconv.Itoa(r.Won),
			strconv.Itoa(r.Lost),
			strconv.Itoa(r.SetsWon),
			strconv.Itoa(r.SetsLost),
			strconv.Itoa(r.PointsScored),
			strconv.Itoa(r.PointsConceded),
			strconv.Itoa(r.PointsDifference),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write standings csv: %w", err)
	}
	return buf.Bytes(), nil
}

func rosterCSV(pool []models.PoolPlayer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{{"Name", "Username", "Status"}}
	for _, p := range pool {
		username, status := "Guest", "Manual"
		if p.Username != nil && *p.Username != "" {
			username = "@" + *p.Username
		}
		if p.IsRegistered() {
			status = "Registered"
		}
		records = append(records, []string{p.Name, username, status})
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write roster csv: %w", err)
	}
	return buf.Bytes(), nil
}

func rosterTXT(pool []models.PoolPlayer) []byte {
	var b strings.Builder
	for _, p := range pool {
		tag := "guest"
		if p.Username != nil && *p.Username != "" {
			tag = "@" + *p.Username
		}
		fmt.Fprintf(&b, "%s (%s)\n", p.Name, tag)
	}
	return []byte(b.String())
}
