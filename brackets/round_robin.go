// Package brackets builds fixture lists for arenas.
package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrNotEnoughTeams  = errors.New("round robin needs at least two teams")
	ErrDuplicateTeam   = errors.New("team listed more than once")
	ErrInvalidLegCount = errors.New("legs must be 1 or 2")
)

// Pairing is one fixture. Round starts at 1; Slot is the position of the
// pairing inside its round.
type Pairing struct {
	Round int `json:"round"`
	Slot  int `json:"slot"`
	TeamA int `json:"team_a_id"`
	TeamB int `json:"team_b_id"`
}

// RoundRobin pairs every team with every other team once per leg using the
// circle method, so no team plays twice in the same round. With an odd
// number of teams one team sits out each round. The second leg repeats the
// first with sides swapped.
func RoundRobin(teamIDs []int, legs int) ([]Pairing, error) {
	if legs != 1 && legs != 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLegCount, legs)
	}
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughTeams, len(teamIDs))
	}
	seen := make(map[int]bool, len(teamIDs))
	for _, id := range teamIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTeam, id)
		}
		seen[id] = true
	}

	// 0 is the bye slot.
	ring := make([]int, len(teamIDs), len(teamIDs)+1)
	copy(ring, teamIDs)
	if len(ring)%2 == 1 {
		ring = append(ring, 0)
	}
	n := len(ring)
	rounds := n - 1

	first := make([]Pairing, 0, rounds*n/2)
	for round := 0; round < rounds; round++ {
		slot := 0
		for i := 0; i < n/2; i++ {
			a, b := ring[i], ring[n-1-i]
			if a == 0 || b == 0 {
				continue
			}
			// alternate sides of the fixed team so it is not always A
			if i == 0 && round%2 == 1 {
				a, b = b, a
			}
			slot++
			first = append(first, Pairing{Round: round + 1, Slot: slot, TeamA: a, TeamB: b})
		}
		// keep ring[0] fixed, rotate the rest clockwise
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}

	if legs == 1 {
		return first, nil
	}
	out := make([]Pairing, 0, 2*len(first))
	out = append(out, first...)
	for _, p := range first {
		out = append(out, Pairing{Round: p.Round + rounds, Slot: p.Slot, TeamA: p.TeamB, TeamB: p.TeamA})
	}
	return out, nil
}

// Rounds returns how many rounds RoundRobin produces for teams and legs.
func Rounds(teams, legs int) int {
	if teams < 2 {
		return 0
	}
	if teams%2 == 1 {
		teams++
	}
	return (teams - 1) * legs
}
