package scoring

import (
	"errors"
	"fmt"
)

var (
	ErrMatchCompleted     = errors.New("match is already completed")
	ErrInvalidStatus      = errors.New("invalid match status")
	ErrInconsistentStatus = errors.New("match status does not agree with its score")
)

// Status is the lifecycle of a match. Transitions are one-way:
// scheduled -> in_progress -> completed.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Board is the live state of one match. Methods take and return values; a
// Board is never modified in place.
type Board struct {
	Rules     Rules      `json:"rules"`
	Score     MatchScore `json:"score"`
	Status    Status     `json:"status"`
	Winner    Side       `json:"winner"`
	ActiveSet int        `json:"active_set"`
}

// Transition describes what a single update did to the board.
type Transition struct {
	Changed      bool `json:"changed"`
	SetIndex     int  `json:"set_index"`
	SetDecided   Side `json:"set_decided"`
	MatchDecided Side `json:"match_decided"`
	ActiveSet    int  `json:"active_set"`
}

func NewBoard(rules Rules) (Board, error) {
	if err := rules.Validate(); err != nil {
		return Board{}, err
	}
	return Board{
		Rules:  rules,
		Score:  NewMatchScore(rules.BestOf),
		Status: StatusScheduled,
	}, nil
}

// RestoreBoard rebuilds a board from persisted data. The winner and the
// active set are derived from the score; the stored status only matters for
// telling a scheduled match from one in progress.
func RestoreBoard(rules Rules, score MatchScore, status Status) (Board, error) {
	if err := rules.Validate(); err != nil {
		return Board{}, err
	}
	if !status.Valid() {
		return Board{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if score == nil {
		score = NewMatchScore(rules.BestOf)
	}
	if err := score.Validate(rules); err != nil {
		return Board{}, err
	}

	b := Board{Rules: rules, Score: score.Clone(), Status: status}
	b.Winner = EvaluateMatch(b.Score, rules)
	switch {
	case b.Winner != SideNone:
		b.Status = StatusCompleted
	case status == StatusCompleted:
		return Board{}, fmt.Errorf("%w: completed without a decided winner", ErrInconsistentStatus)
	case status == StatusScheduled && !b.Score.isZero():
		b.Status = StatusInProgress
	}
	b.ActiveSet = b.firstUndecidedSet()
	return b, nil
}

// Apply adds delta (+1 or -1) to side in the given set.
func (b Board) Apply(setIndex int, side Side, delta int) (Board, Transition, error) {
	if b.Status == StatusCompleted {
		return b, Transition{}, ErrMatchCompleted
	}
	next, err := ApplyPointDelta(b.Score, setIndex, side, delta, b.Rules)
	if err != nil {
		return b, Transition{}, err
	}

	before := EvaluateSet(b.Score[setIndex], b.Rules)
	after := EvaluateSet(next[setIndex], b.Rules)

	nb := b
	nb.Score = next
	tr := Transition{
		Changed:  next[setIndex] != b.Score[setIndex],
		SetIndex: setIndex,
	}
	if tr.Changed && nb.Status == StatusScheduled {
		nb.Status = StatusInProgress
	}
	if before == SideNone && after != SideNone {
		tr.SetDecided = after
	}

	if winner := EvaluateMatch(next, b.Rules); winner != SideNone {
		nb.Status = StatusCompleted
		nb.Winner = winner
		tr.MatchDecided = winner
	} else if tr.SetDecided != SideNone && setIndex+1 < len(next) {
		nb.ActiveSet = setIndex + 1
	}
	tr.ActiveSet = nb.ActiveSet
	return nb, tr, nil
}

// Submit replaces the whole score at once, as done when a scorer saves a
// sheet filled in offline. The sheet must be reachable by rallies.
func (b Board) Submit(score MatchScore) (Board, error) {
	if b.Status == StatusCompleted {
		return b, ErrMatchCompleted
	}
	if err := score.ValidateSheet(b.Rules); err != nil {
		return b, err
	}
	nb := b
	nb.Score = score.Clone()
	nb.Winner = EvaluateMatch(nb.Score, b.Rules)
	switch {
	case nb.Winner != SideNone:
		nb.Status = StatusCompleted
	case !nb.Score.isZero():
		nb.Status = StatusInProgress
	}
	nb.ActiveSet = nb.firstUndecidedSet()
	return nb, nil
}

func (b Board) firstUndecidedSet() int {
	for i, set := range b.Score {
		if EvaluateSet(set, b.Rules) == SideNone {
			return i
		}
	}
	if len(b.Score) == 0 {
		return 0
	}
	return len(b.Score) - 1
}

func (m MatchScore) isZero() bool {
	for _, set := range m {
		if set.A != 0 || set.B != 0 {
			return false
		}
	}
	return true
}
