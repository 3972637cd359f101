// Package standings turns completed matches into an ordered team ranking.
//
// Only teams that appear in at least one completed match are ranked. Teams
// that exist in an arena but never finished a match are left out of the
// table entirely; callers that want to show them must do so separately.
package standings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Dosada05/smash-arena/scoring"
)

var (
	ErrMissingParticipant   = errors.New("match has fewer than two participants")
	ErrSameParticipant      = errors.New("match participants must be different")
	ErrNotDecided           = errors.New("match score has no decided winner")
	ErrWinnerNotParticipant = errors.New("winner is not a participant of the match")
	ErrWinnerMismatch       = errors.New("winner does not agree with the set score")
)

// Match is the aggregator's view of one completed match.
type Match struct {
	ID     int
	SideA  int
	SideB  int
	Rules  scoring.Rules
	Score  scoring.MatchScore
	Winner int
}

// Record is a team's result against a single opponent.
type Record struct {
	Played int `json:"played"`
	Won    int `json:"won"`
	Lost   int `json:"lost"`
}

type TeamStanding struct {
	TeamID         int            `json:"team_id"`
	Played         int            `json:"played"`
	Won            int            `json:"won"`
	Lost           int            `json:"lost"`
	SetsWon        int            `json:"sets_won"`
	SetsLost       int            `json:"sets_lost"`
	PointsScored   int            `json:"points_scored"`
	PointsConceded int            `json:"points_conceded"`
	HeadToHead     map[int]Record `json:"head_to_head"`
}

func (t TeamStanding) PointsDifferential() int {
	return t.PointsScored - t.PointsConceded
}

// Exclusion is a match record that could not be aggregated.
type Exclusion struct {
	MatchID int   `json:"match_id"`
	Err     error `json:"-"`
}

func (e Exclusion) Reason() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Table is the result of Compute. Rows is the ranking: rank is index+1.
type Table struct {
	Rows     []TeamStanding
	Excluded []Exclusion
}

// Compute aggregates matches and orders the teams by criteria, first
// criterion first. Teams tied on every criterion keep the order in which they
// first appeared in matches. Malformed records are reported in
// Table.Excluded and do not affect the ranking. Unknown criteria are ignored.
func Compute(matches []Match, criteria []Criterion) Table {
	var table Table
	index := make(map[int]*TeamStanding)
	order := make([]int, 0)

	entry := func(teamID int) *TeamStanding {
		if s, ok := index[teamID]; ok {
			return s
		}
		s := &TeamStanding{TeamID: teamID, HeadToHead: make(map[int]Record)}
		index[teamID] = s
		order = append(order, teamID)
		return s
	}

	for _, m := range matches {
		if err := check(m); err != nil {
			table.Excluded = append(table.Excluded, Exclusion{MatchID: m.ID, Err: err})
			continue
		}
		a := entry(m.SideA)
		b := entry(m.SideB)
		accumulate(a, b, m, scoring.SideA)
		accumulate(b, a, m, scoring.SideB)
	}

	rows := make([]TeamStanding, 0, len(order))
	for _, id := range order {
		rows = append(rows, *index[id])
	}

	chain := comparatorChain(criteria)
	slices.SortStableFunc(rows, func(x, y TeamStanding) int {
		return chain(&x, &y)
	})
	table.Rows = rows
	return table
}

func accumulate(team, opponent *TeamStanding, m Match, side scoring.Side) {
	team.Played++
	won := m.Winner == team.TeamID
	if won {
		team.Won++
	} else {
		team.Lost++
	}

	for _, set := range m.Score {
		team.PointsScored += set.Points(side)
		team.PointsConceded += set.Points(side.Opponent())
		switch scoring.EvaluateSet(set, m.Rules) {
		case side:
			team.SetsWon++
		case side.Opponent():
			team.SetsLost++
		}
	}

	rec := team.HeadToHead[opponent.TeamID]
	rec.Played++
	if won {
		rec.Won++
	} else {
		rec.Lost++
	}
	team.HeadToHead[opponent.TeamID] = rec
}

func check(m Match) error {
	if m.SideA == 0 || m.SideB == 0 {
		return ErrMissingParticipant
	}
	if m.SideA == m.SideB {
		return fmt.Errorf("%w: both sides are %d", ErrSameParticipant, m.SideA)
	}
	if err := m.Rules.Validate(); err != nil {
		return err
	}
	if err := m.Score.Validate(m.Rules); err != nil {
		return err
	}
	if m.Winner != m.SideA && m.Winner != m.SideB {
		return fmt.Errorf("%w: winner %d, sides %d and %d", ErrWinnerNotParticipant, m.Winner, m.SideA, m.SideB)
	}

	var expected int
	switch scoring.EvaluateMatch(m.Score, m.Rules) {
	case scoring.SideA:
		expected = m.SideA
	case scoring.SideB:
		expected = m.SideB
	default:
		return ErrNotDecided
	}
	if expected != m.Winner {
		return fmt.Errorf("%w: recorded %d, score says %d", ErrWinnerMismatch, m.Winner, expected)
	}
	return nil
}
