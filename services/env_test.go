package services

import (
	"context"
	"testing"

	"github.com/Dosada05/smash-arena/models"
	"github.com/Dosada05/smash-arena/standings"
)

var (
	organizer  = Actor{UserID: 1, Username: "olga", Role: models.RoleOrganizer}
	player     = Actor{UserID: 2, Username: "pete", Role: models.RolePlayer}
	superAdmin = Actor{UserID: 3, Username: "root", Role: models.RoleSuperAdmin}
)

type testEnv struct {
	users     *fakeUsers
	arenas    *fakeArenas
	joins     *fakeJoinRequests
	pool      *fakePool
	teams     *fakeTeams
	matches   *fakeMatches
	events    *fakeEvents
	snapshots *fakeStandingRepo
	uploader  *fakeUploader
	broadcast *recordingBroadcaster

	access    AccessService
	arenaSvc  ArenaService
	teamSvc   TeamService
	matchSvc  MatchService
	standings StandingsService
}

// newTestEnv seeds one locked arena (id 1) owned by organizer with two teams
// (10 and 11), plus an unlocked arena (id 2) with team 20.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users: newFakeUsers(
			models.User{ID: 1, Username: "olga", Name: "Olga", Role: models.RoleOrganizer},
			models.User{ID: 2, Username: "pete", Name: "Pete", Role: models.RolePlayer},
			models.User{ID: 3, Username: "root", Name: "Root", Role: models.RoleSuperAdmin},
		),
		arenas: newFakeArenas(
			models.Arena{
				ID: 1, UniqueID: "AAAA1111", Name: "Spring Open", OrganizerID: 1,
				IsPublic: true, IsLocked: true, ScorerPIN: "4321",
				RankingCriteria: standings.Strings(standings.DefaultOrder()),
			},
			models.Arena{
				ID: 2, UniqueID: "BBBB2222", Name: "Club Night", OrganizerID: 1,
				IsPublic: false, ScorerPIN: DefaultScorerPIN,
				RankingCriteria: standings.Strings(standings.DefaultOrder()),
			},
		),
		joins: &fakeJoinRequests{},
		pool:  &fakePool{},
		teams: newFakeTeams(
			models.Team{ID: 10, ArenaID: 1, Name: "Smashers"},
			models.Team{ID: 11, ArenaID: 1, Name: "Drop Shots"},
			models.Team{ID: 20, ArenaID: 2, Name: "Night Owls"},
		),
		matches:   newFakeMatches(),
		events:    &fakeEvents{},
		snapshots: &fakeStandingRepo{},
		uploader:  &fakeUploader{},
		broadcast: &recordingBroadcaster{},
	}

	logger := discardLogger()
	env.access = NewAccessService(env.arenas)
	env.standings = NewStandingsService(env.arenas, env.teams, env.matches, env.pool, env.snapshots, env.uploader, logger)
	env.arenaSvc = NewArenaService(env.arenas, env.joins, env.pool, env.users, env.teams, env.matches, env.standings, logger)
	env.teamSvc = NewTeamService(env.teams, env.arenas, env.pool, logger)
	env.matchSvc = NewMatchService(env.matches, env.arenas, env.teams, env.events, env.standings, env.broadcast, logger)
	return env
}

func (env *testEnv) grant(t *testing.T, actor Actor, arenaID int, pin string) ScoreGrant {
	t.Helper()
	g, err := env.access.GrantScoring(context.Background(), actor, arenaID, pin)
	if err != nil {
		t.Fatalf("GrantScoring(%d, %d): %v", actor.UserID, arenaID, err)
	}
	return g
}

func (env *testEnv) schedule(t *testing.T) *models.Match {
	t.Helper()
	m, err := env.matchSvc.ScheduleMatch(context.Background(), organizer, 1, ScheduleMatchInput{
		TeamAID: 10, TeamBID: 11, Points: 21, Date: "2025-03-14", Time: "18:30",
	})
	if err != nil {
		t.Fatalf("ScheduleMatch: %v", err)
	}
	return m
}
