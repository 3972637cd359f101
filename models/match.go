package models

import (
	"time"

	"github.com/Dosada05/smash-arena/scoring"
)

type Match struct {
	ID           int                `json:"id" db:"id"`
	ArenaID      int                `json:"arena_id" db:"arena_id"`
	TeamAID      int                `json:"team_a_id" db:"team_a_id"`
	TeamBID      int                `json:"team_b_id" db:"team_b_id"`
	Rules        scoring.Rules      `json:"rules" db:"-"`
	Score        scoring.MatchScore `json:"score" db:"score"`
	Status       scoring.Status     `json:"status" db:"status"`
	WinnerTeamID *int               `json:"winner_team_id,omitempty" db:"winner_team_id"`
	ActiveSet    int                `json:"active_set" db:"active_set"`
	Court        int                `json:"court" db:"court"`
	UmpireName   *string            `json:"umpire_name,omitempty" db:"umpire_name"`
	StartTime    time.Time          `json:"start_time" db:"start_time"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}

// Board rebuilds the live scoring state of the match.
func (m *Match) Board() (scoring.Board, error) {
	return scoring.RestoreBoard(m.Rules, m.Score, m.Status)
}

// SetBoard copies the state of b back onto the record.
func (m *Match) SetBoard(b scoring.Board) {
	m.Score = b.Score.Clone()
	m.Status = b.Status
	m.ActiveSet = b.ActiveSet
	m.WinnerTeamID = nil
	if id := m.TeamFor(b.Winner); id != 0 {
		m.WinnerTeamID = &id
	}
}

func (m *Match) TeamFor(side scoring.Side) int {
	switch side {
	case scoring.SideA:
		return m.TeamAID
	case scoring.SideB:
		return m.TeamBID
	}
	return 0
}

// ScoreEvent is one point change recorded in a match's score log.
type ScoreEvent struct {
	ID         string             `json:"id" db:"id" bson:"_id"`
	Seq        int64              `json:"seq" db:"seq" bson:"seq"`
	MatchID    int                `json:"match_id" db:"match_id" bson:"match_id"`
	ArenaID    int                `json:"arena_id" db:"arena_id" bson:"arena_id"`
	SetIndex   int                `json:"set_index" db:"set_index" bson:"set_index"`
	Side       scoring.Side       `json:"side" db:"side" bson:"side"`
	Delta      int                `json:"delta" db:"delta" bson:"delta"`
	ActorID    int                `json:"actor_id" db:"actor_id" bson:"actor_id"`
	ViaPIN     bool               `json:"via_pin" db:"via_pin" bson:"via_pin"`
	ScoreAfter scoring.MatchScore `json:"score_after" db:"score_after" bson:"score_after"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at" bson:"created_at"`
}
