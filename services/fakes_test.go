package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/repositories"
	"github.com/Dosada05/smash-arena/scoring"
	"github.com/Dosada05/smash-arena/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[int]*models.User)}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = len(f.users) + 1
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeArenas struct {
	mu     sync.Mutex
	nextID int
	arenas map[int]*models.Arena
}

func newFakeArenas(arenas ...models.Arena) *fakeArenas {
	f := &fakeArenas{arenas: make(map[int]*models.Arena)}
	for i := range arenas {
		a := arenas[i]
		f.arenas[a.ID] = &a
		if a.ID > f.nextID {
			f.nextID = a.ID
		}
	}
	return f
}

func copyArena(a *models.Arena) *models.Arena {
	cp := *a
	cp.RankingCriteria = append([]string(nil), a.RankingCriteria...)
	cp.MemberIDs = append([]int(nil), a.MemberIDs...)
	return &cp
}

func (f *fakeArenas) Create(_ context.Context, arena *models.Arena) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.arenas {
		if a.UniqueID == arena.UniqueID {
			return repositories.ErrArenaUniqueIDConflict
		}
	}
	f.nextID++
	arena.ID = f.nextID
	f.arenas[arena.ID] = copyArena(arena)
	return nil
}

func (f *fakeArenas) GetByID(_ context.Context, id int) (*models.Arena, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.arenas[id]
	if !ok {
		return nil, repositories.ErrArenaNotFound
	}
	return copyArena(a), nil
}

func (f *fakeArenas) GetByUniqueID(_ context.Context, uniqueID string) (*models.Arena, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.arenas {
		if a.UniqueID == uniqueID {
			return copyArena(a), nil
		}
	}
	return nil, repositories.ErrArenaNotFound
}

func (f *fakeArenas) List(_ context.Context, filter repositories.ListArenasFilter) ([]models.Arena, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Arena
	for _, a := range f.arenas {
		if filter.Locked != nil && a.IsLocked != *filter.Locked {
			continue
		}
		if filter.OrganizerID != nil && a.OrganizerID != *filter.OrganizerID {
			continue
		}
		out = append(out, *copyArena(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArenas) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.arenas[id]; !ok {
		return repositories.ErrArenaNotFound
	}
	delete(f.arenas, id)
	return nil
}

func (f *fakeArenas) SetLocked(_ context.Context, id int, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.arenas[id]
	if !ok {
		return repositories.ErrArenaNotFound
	}
	a.IsLocked = locked
	return nil
}

func (f *fakeArenas) UpdateSettings(_ context.Context, id int, pin string, criteria []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.arenas[id]
	if !ok {
		return repositories.ErrArenaNotFound
	}
	a.ScorerPIN = pin
	a.RankingCriteria = append([]string(nil), criteria...)
	return nil
}

func (f *fakeArenas) AddMember(_ context.Context, arenaID, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.arenas[arenaID]
	if !ok {
		return repositories.ErrArenaNotFound
	}
	for _, id := range a.MemberIDs {
		if id == userID {
			return nil
		}
	}
	a.MemberIDs = append(a.MemberIDs, userID)
	return nil
}

func (f *fakeArenas) ListMemberIDs(_ context.Context, arenaID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.arenas[arenaID]
	if !ok {
		return nil, repositories.ErrArenaNotFound
	}
	return append([]int(nil), a.MemberIDs...), nil
}

type fakeJoinRequests struct {
	mu   sync.Mutex
	reqs []*models.JoinRequest
}

func (f *fakeJoinRequests) Create(_ context.Context, req *models.JoinRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.ArenaID == req.ArenaID && r.UserID == req.UserID && r.Status == models.JoinRequestPending {
			return repositories.ErrJoinRequestConflict
		}
	}
	req.ID = len(f.reqs) + 1
	cp := *req
	f.reqs = append(f.reqs, &cp)
	return nil
}

func (f *fakeJoinRequests) GetByID(_ context.Context, id int) (*models.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrJoinRequestNotFound
}

func (f *fakeJoinRequests) ListByArena(_ context.Context, arenaID int, status *models.JoinRequestStatus) ([]models.JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JoinRequest
	for _, r := range f.reqs {
		if r.ArenaID == arenaID && (status == nil || r.Status == *status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeJoinRequests) UpdateStatus(_ context.Context, id int, status models.JoinRequestStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.ID == id && r.Status == models.JoinRequestPending {
			r.Status = status
			now := time.Now()
			r.ResolvedAt = &now
			return nil
		}
	}
	return repositories.ErrJoinRequestNotFound
}

type fakePool struct {
	mu      sync.Mutex
	nextID  int
	players []models.PoolPlayer
}

func (f *fakePool) Create(_ context.Context, player *models.PoolPlayer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	player.ID = f.nextID
	f.players = append(f.players, *player)
	return nil
}

func (f *fakePool) ListByArena(_ context.Context, arenaID int) ([]models.PoolPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PoolPlayer{}
	for _, p := range f.players {
		if p.ArenaID == arenaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePool) Delete(_ context.Context, arenaID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.players {
		if p.ID == id && p.ArenaID == arenaID {
			f.players = append(f.players[:i], f.players[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPoolPlayerNotFound
}

type fakeTeams struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]*models.Team
}

func newFakeTeams(teams ...models.Team) *fakeTeams {
	f := &fakeTeams{teams: make(map[int]*models.Team)}
	for i := range teams {
		t := teams[i]
		f.teams[t.ID] = &t
		if t.ID > f.nextID {
			f.nextID = t.ID
		}
	}
	return f
}

func (f *fakeTeams) Create(_ context.Context, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.ArenaID == team.ArenaID && strings.EqualFold(t.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	f.nextID++
	team.ID = f.nextID
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeams) GetByID(_ context.Context, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTeams) ListByArena(_ context.Context, arenaID int) ([]models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Team{}
	for _, t := range f.teams {
		if t.ArenaID == arenaID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeams) Delete(_ context.Context, arenaID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok || t.ArenaID != arenaID {
		return repositories.ErrTeamNotFound
	}
	delete(f.teams, id)
	return nil
}

type fakeMatches struct {
	mu        sync.Mutex
	nextID    int
	matches   map[int]*models.Match
	updateErr error
}

func newFakeMatches(matches ...models.Match) *fakeMatches {
	f := &fakeMatches{matches: make(map[int]*models.Match)}
	for i := range matches {
		m := matches[i]
		f.matches[m.ID] = &m
		if m.ID > f.nextID {
			f.nextID = m.ID
		}
	}
	return f
}

func copyMatch(m *models.Match) *models.Match {
	cp := *m
	cp.Score = m.Score.Clone()
	if m.WinnerTeamID != nil {
		id := *m.WinnerTeamID
		cp.WinnerTeamID = &id
	}
	return &cp
}

func (f *fakeMatches) Create(_ context.Context, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	match.ID = f.nextID
	f.matches[match.ID] = copyMatch(match)
	return nil
}

func (f *fakeMatches) GetByID(_ context.Context, id int) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (f *fakeMatches) ListByArena(_ context.Context, arenaID int, status *scoring.Status) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Match{}
	for _, m := range f.matches {
		if m.ArenaID == arenaID && (status == nil || m.Status == *status) {
			out = append(out, *copyMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMatches) UpdateScore(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.matches[match.ID]
	if !ok || stored.Status == scoring.StatusCompleted {
		return repositories.ErrMatchStaleUpdate
	}
	match.UpdatedAt = time.Now()
	f.matches[match.ID] = copyMatch(match)
	return nil
}

func (f *fakeMatches) Delete(_ context.Context, arenaID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok || m.ArenaID != arenaID {
		return repositories.ErrMatchNotFound
	}
	delete(f.matches, id)
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	events    []models.ScoreEvent
	appendErr error
}

func (f *fakeEvents) Append(_ context.Context, event *models.ScoreEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, e := range f.events {
		if e.MatchID == event.MatchID && e.Seq == event.Seq {
			return repositories.ErrScoreEventConflict
		}
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEvents) ListByMatch(_ context.Context, matchID int) ([]models.ScoreEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScoreEvent
	for _, e := range f.events {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Last(_ context.Context, matchID int) (*models.ScoreEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].MatchID == matchID {
			e := f.events[i]
			return &e, nil
		}
	}
	return nil, repositories.ErrScoreEventNotFound
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.events {
		if e.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return repositories.ErrScoreEventNotFound
}

type fakeStandingRepo struct {
	mu   sync.Mutex
	rows map[int][]models.StandingRow
}

func (f *fakeStandingRepo) ReplaceForArena(_ context.Context, arenaID int, rows []models.StandingRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[int][]models.StandingRow)
	}
	f.rows[arenaID] = append([]models.StandingRow(nil), rows...)
	return nil
}

func (f *fakeStandingRepo) ListByArena(_ context.Context, arenaID int) ([]models.StandingRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StandingRow{}, f.rows[arenaID]...), nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = data
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

type sentMessage struct {
	ArenaID int
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (b *recordingBroadcaster) BroadcastToArena(arenaID int, messageType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, sentMessage{ArenaID: arenaID, Type: messageType, Payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sent))
	for i, m := range b.sent {
		out[i] = m.Type
	}
	return out
}
