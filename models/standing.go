package models

import "time"

// StandingRow is one ranked line of an arena's standings table.
type StandingRow struct {
	ArenaID          int       `json:"arena_id" db:"arena_id"`
	Rank             int       `json:"rank" db:"rank"`
	TeamID           int       `json:"team_id" db:"team_id"`
	TeamName         string    `json:"team_name" db:"team_name"`
	Played           int       `json:"played" db:"played"`
	Won              int       `json:"won" db:"won"`
	Lost             int       `json:"lost" db:"lost"`
	SetsWon          int       `json:"sets_won" db:"sets_won"`
	SetsLost         int       `json:"sets_lost" db:"sets_lost"`
	PointsScored     int       `json:"points_scored" db:"points_scored"`
	PointsConceded   int       `json:"points_conceded" db:"points_conceded"`
	PointsDifference int       `json:"points_difference" db:"points_difference"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// ExcludedMatch is a completed match left out of the standings.
type ExcludedMatch struct {
	MatchID int    `json:"match_id"`
	Reason  string `json:"reason"`
}

type Standings struct {
	ArenaID  int             `json:"arena_id"`
	Criteria []string        `json:"criteria"`
	Rows     []StandingRow   `json:"rows"`
	Excluded []ExcludedMatch `json:"excluded,omitempty"`
}
