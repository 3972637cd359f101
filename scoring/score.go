package scoring

import (
	"errors"
	"fmt"
)

var (
	ErrSetDecided     = errors.New("set already has a winner")
	ErrSetOutOfRange  = errors.New("set index out of range")
	ErrInvalidDelta   = errors.New("point delta must be +1 or -1")
	ErrInvalidSide    = errors.New("side must be A or B")
	ErrNegativePoints = errors.New("set points cannot be negative")
	ErrSetCount       = errors.New("number of sets does not match the match format")
	ErrSetOverplayed  = errors.New("set continued after it was won")
	ErrSetAfterMatch  = errors.New("set played after the match was decided")
)

// Side identifies one of the two participants of a match.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	if len(text) == 0 || string(text) == "none" {
		*s = SideNone
		return nil
	}
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

func ParseSide(raw string) (Side, error) {
	switch raw {
	case "A", "a", "1":
		return SideA, nil
	case "B", "b", "2":
		return SideB, nil
	default:
		return SideNone, fmt.Errorf("%w: got %q", ErrInvalidSide, raw)
	}
}

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (s SetScore) Points(side Side) int {
	if side == SideB {
		return s.B
	}
	return s.A
}

// MatchScore holds one entry per set allowed by the format. Unplayed trailing
// sets are zero-valued.
type MatchScore []SetScore

func NewMatchScore(bestOf int) MatchScore {
	if bestOf < 1 {
		bestOf = 1
	}
	return make(MatchScore, bestOf)
}

func (m MatchScore) Clone() MatchScore {
	if m == nil {
		return nil
	}
	out := make(MatchScore, len(m))
	copy(out, m)
	return out
}

// Equal reports whether both scores have the same sets with the same points.
func (m MatchScore) Equal(other MatchScore) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Validate checks the shape of a score against the rules of its match.
func (m MatchScore) Validate(rules Rules) error {
	if len(m) != rules.BestOf {
		return fmt.Errorf("%w: got %d sets, format is best of %d", ErrSetCount, len(m), rules.BestOf)
	}
	for i, set := range m {
		if set.A < 0 || set.B < 0 {
			return fmt.Errorf("%w: set %d is %d-%d", ErrNegativePoints, i+1, set.A, set.B)
		}
	}
	return nil
}

// ValidateSheet is Validate plus the checks for a score entered as a whole:
// no decided set may run past the point where it ended, and every set after
// the one that clinched the match must be 0-0.
func (m MatchScore) ValidateSheet(rules Rules) error {
	if err := m.Validate(rules); err != nil {
		return err
	}
	required := rules.RequiredWins()
	var winsA, winsB int
	for i, set := range m {
		if winsA >= required || winsB >= required {
			if set.A != 0 || set.B != 0 {
				return fmt.Errorf("%w: set %d is %d-%d", ErrSetAfterMatch, i+1, set.A, set.B)
			}
			continue
		}
		winner := EvaluateSet(set, rules)
		if winner == SideNone {
			continue
		}
		won, lost := set.Points(winner), set.Points(winner.Opponent())
		if limit := min(rules.GoldenPointCap, max(rules.TargetPoints, lost+rules.WinMargin)); won > limit {
			return fmt.Errorf("%w: set %d is %d-%d, it ends at %d", ErrSetOverplayed, i+1, set.A, set.B, limit)
		}
		if winner == SideA {
			winsA++
		} else {
			winsB++
		}
	}
	return nil
}

// EvaluateSet decides a single set. The golden point cap is an absolute
// ceiling and wins the set regardless of margin.
func EvaluateSet(set SetScore, rules Rules) Side {
	if (set.A >= rules.TargetPoints && set.A-set.B >= rules.WinMargin) || set.A >= rules.GoldenPointCap {
		return SideA
	}
	if (set.B >= rules.TargetPoints && set.B-set.A >= rules.WinMargin) || set.B >= rules.GoldenPointCap {
		return SideB
	}
	return SideNone
}

// SetWins tallies decided sets for both sides.
func SetWins(score MatchScore, rules Rules) (winsA, winsB int) {
	for _, set := range score {
		switch EvaluateSet(set, rules) {
		case SideA:
			winsA++
		case SideB:
			winsB++
		}
	}
	return winsA, winsB
}

// EvaluateMatch returns the side that reached the required number of set
// wins, or SideNone. It only reads its input and can be called after every
// mutation.
func EvaluateMatch(score MatchScore, rules Rules) Side {
	required := rules.RequiredWins()
	winsA, winsB := SetWins(score, rules)
	switch {
	case winsA >= required:
		return SideA
	case winsB >= required:
		return SideB
	default:
		return SideNone
	}
}

// ApplyPointDelta returns a copy of score with delta applied to side in the
// given set. Adding a point to a decided set is rejected with ErrSetDecided.
// Decrements never go below zero: at zero the unchanged copy is returned
// without error.
func ApplyPointDelta(score MatchScore, setIndex int, side Side, delta int, rules Rules) (MatchScore, error) {
	if delta != 1 && delta != -1 {
		return score, fmt.Errorf("%w: got %d", ErrInvalidDelta, delta)
	}
	if side != SideA && side != SideB {
		return score, ErrInvalidSide
	}
	if setIndex < 0 || setIndex >= len(score) {
		return score, fmt.Errorf("%w: %d (match has %d sets)", ErrSetOutOfRange, setIndex, len(score))
	}
	if delta > 0 && EvaluateSet(score[setIndex], rules) != SideNone {
		return score, fmt.Errorf("%w: set %d", ErrSetDecided, setIndex+1)
	}

	next := score.Clone()
	set := &next[setIndex]
	switch side {
	case SideA:
		set.A = clampAdd(set.A, delta)
	case SideB:
		set.B = clampAdd(set.B, delta)
	}
	return next, nil
}

func clampAdd(value, delta int) int {
	value += delta
	if value < 0 {
		return 0
	}
	return value
}
