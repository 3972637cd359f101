package standings

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCriterion   = errors.New("unknown ranking criterion")
	ErrDuplicateCriterion = errors.New("ranking criterion listed more than once")
	ErrIncompleteOrder    = errors.New("ranking order must list every criterion exactly once")
	ErrMoveOutOfRange     = errors.New("criterion cannot be moved further")
)

// Criterion is one tie-break rule. An arena keeps an ordered list of them.
type Criterion string

const (
	MatchesWon         Criterion = "MATCHES_WON"
	SetsWon            Criterion = "SETS_WON"
	PointsDifferential Criterion = "POINTS_DIFF"
	HeadToHead         Criterion = "HEAD_TO_HEAD"
)

// DefaultOrder returns a fresh copy of the order new arenas start with.
func DefaultOrder() []Criterion {
	return []Criterion{MatchesWon, SetsWon, PointsDifferential, HeadToHead}
}

func (c Criterion) Valid() bool {
	switch c {
	case MatchesWon, SetsWon, PointsDifferential, HeadToHead:
		return true
	}
	return false
}

// ParseOrder converts stored or submitted names into a validated order.
func ParseOrder(raw []string) ([]Criterion, error) {
	order := make([]Criterion, 0, len(raw))
	for _, name := range raw {
		order = append(order, Criterion(name))
	}
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ValidateOrder accepts only permutations of all known criteria.
func ValidateOrder(order []Criterion) error {
	seen := make(map[Criterion]bool, len(order))
	for _, c := range order {
		if !c.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCriterion, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: %q", ErrDuplicateCriterion, c)
		}
		seen[c] = true
	}
	if len(order) != len(DefaultOrder()) {
		return fmt.Errorf("%w: got %d of %d", ErrIncompleteOrder, len(order), len(DefaultOrder()))
	}
	return nil
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Move swaps the criterion at index with its neighbour and returns the new
// order. The input slice is left untouched.
func Move(order []Criterion, index int, dir Direction) ([]Criterion, error) {
	target := index - 1
	switch dir {
	case Up:
	case Down:
		target = index + 1
	default:
		return nil, fmt.Errorf("invalid direction %q", dir)
	}
	if index < 0 || index >= len(order) || target < 0 || target >= len(order) {
		return nil, fmt.Errorf("%w: index %d %s", ErrMoveOutOfRange, index, dir)
	}
	next := make([]Criterion, len(order))
	copy(next, order)
	next[index], next[target] = next[target], next[index]
	return next, nil
}

func Strings(order []Criterion) []string {
	out := make([]string, len(order))
	for i, c := range order {
		out[i] = string(c)
	}
	return out
}
