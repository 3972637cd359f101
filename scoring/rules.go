package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultTargetPoints   = 21
	DefaultWinMargin      = 2
	DefaultGoldenPointCap = 30
	DefaultBestOf         = 3
)

var (
	ErrInvalidTargetPoints   = errors.New("target points must be a positive integer")
	ErrInvalidWinMargin      = errors.New("win margin must be 2")
	ErrInvalidGoldenPointCap = errors.New("golden point cap must be greater than or equal to target points")
	ErrInvalidBestOf         = errors.New("best of must be 1, 3 or 5")
)

// Rules describes how a set and a match are won.
type Rules struct {
	TargetPoints   int `json:"target_points"`
	WinMargin      int `json:"win_margin"`
	GoldenPointCap int `json:"golden_point_cap"`
	BestOf         int `json:"best_of"`
}

func DefaultRules() Rules {
	return Rules{
		TargetPoints:   DefaultTargetPoints,
		WinMargin:      DefaultWinMargin,
		GoldenPointCap: DefaultGoldenPointCap,
		BestOf:         DefaultBestOf,
	}
}

// DefaultCapFor is the golden point cap used when a match does not set one:
// 30 for the standard 21 point set, otherwise five points past the target.
func DefaultCapFor(target int) int {
	if target == DefaultTargetPoints {
		return DefaultGoldenPointCap
	}
	return target + 5
}

// Validate must be called when a match is created. Scoring functions assume
// the rules already passed it.
func (r Rules) Validate() error {
	if r.TargetPoints <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTargetPoints, r.TargetPoints)
	}
	if r.WinMargin != DefaultWinMargin {
		return fmt.Errorf("%w: got %d", ErrInvalidWinMargin, r.WinMargin)
	}
	if r.GoldenPointCap < r.TargetPoints {
		return fmt.Errorf("%w: cap %d, target %d", ErrInvalidGoldenPointCap, r.GoldenPointCap, r.TargetPoints)
	}
	switch r.BestOf {
	case 1, 3, 5:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidBestOf, r.BestOf)
	}
	return nil
}

// RequiredWins is the number of sets needed to clinch the match: ceil((BestOf+1)/2).
func (r Rules) RequiredWins() int {
	return (r.BestOf + 2) / 2
}

// ParseTargetPoints parses a user supplied target ("21", " 15 ") and rejects
// anything that is not a positive integer.
func ParseTargetPoints(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidTargetPoints)
	}
	points, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidTargetPoints, raw)
	}
	if points <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTargetPoints, points)
	}
	return points, nil
}
