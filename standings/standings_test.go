package standings

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Dosada05/smash-arena/scoring"
)

func straight(id, a, b, winner int, winnerPts, loserPts int) Match {
	set := scoring.SetScore{A: winnerPts, B: loserPts}
	if winner == b {
		set = scoring.SetScore{A: loserPts, B: winnerPts}
	}
	return Match{
		ID:     id,
		SideA:  a,
		SideB:  b,
		Rules:  scoring.DefaultRules(),
		Score:  scoring.MatchScore{set, set, {}},
		Winner: winner,
	}
}

// fixture: 4 beats everyone it plays, 2 beat 1 directly, 1 has the better
// point differential.
func fixture() []Match {
	return []Match{
		straight(1, 1, 3, 1, 21, 5),
		straight(2, 2, 1, 2, 21, 19),
		straight(3, 4, 2, 4, 21, 19),
		straight(4, 4, 5, 4, 21, 10),
	}
}

func teamOrder(rows []TeamStanding) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.TeamID
	}
	return out
}

func TestComputeAggregates(t *testing.T) {
	m := Match{
		ID:     7,
		SideA:  1,
		SideB:  2,
		Rules:  scoring.DefaultRules(),
		Score:  scoring.MatchScore{{A: 21, B: 15}, {A: 18, B: 21}, {A: 21, B: 19}},
		Winner: 1,
	}
	table := Compute([]Match{m}, DefaultOrder())
	if len(table.Excluded) != 0 {
		t.Fatalf("unexpected exclusions: %+v", table.Excluded)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows; want 2", len(table.Rows))
	}

	first := table.Rows[0]
	want := TeamStanding{
		TeamID: 1, Played: 1, Won: 1, Lost: 0, SetsWon: 2, SetsLost: 1,
		PointsScored: 60, PointsConceded: 55,
		HeadToHead: map[int]Record{2: {Played: 1, Won: 1}},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("row 0 = %+v; want %+v", first, want)
	}
	if first.PointsDifferential() != 5 {
		t.Fatalf("PointsDifferential = %d; want 5", first.PointsDifferential())
	}

	second := table.Rows[1]
	if second.TeamID != 2 || second.Lost != 1 || second.SetsWon != 1 || second.PointsScored != 55 {
		t.Fatalf("row 1 = %+v", second)
	}
	if rec := second.HeadToHead[1]; rec.Lost != 1 || rec.Played != 1 {
		t.Fatalf("head to head of team 2 vs 1 = %+v", rec)
	}
}

func TestComputeDefaultOrder(t *testing.T) {
	table := Compute(fixture(), DefaultOrder())
	want := []int{4, 1, 2, 5, 3}
	if got := teamOrder(table.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v; want %v", got, want)
	}
}

func TestComputeHeadToHeadFirst(t *testing.T) {
	order, err := Move(DefaultOrder(), 3, Up)
	if err != nil {
		t.Fatal(err)
	}
	order, _ = Move(order, 2, Up)
	order, _ = Move(order, 1, Up)
	if order[0] != HeadToHead {
		t.Fatalf("order = %v; want HEAD_TO_HEAD first", order)
	}

	table := Compute(fixture(), order)
	want := []int{4, 2, 1, 5, 3}
	if got := teamOrder(table.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v; want %v", got, want)
	}
}

func TestHeadToHeadBreaksFullTie(t *testing.T) {
	// 1 and 2 finish level on wins, sets and point differential; 2 won the
	// direct match.
	matches := []Match{
		straight(1, 1, 3, 1, 21, 19),
		straight(2, 2, 1, 2, 21, 19),
		straight(3, 4, 2, 4, 21, 19),
	}

	without := Compute(matches, []Criterion{MatchesWon, SetsWon, PointsDifferential})
	if got := teamOrder(without.Rows)[1:3]; !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("without head to head, middle = %v; want first appearance order [1 2]", got)
	}

	with := Compute(matches, []Criterion{HeadToHead, MatchesWon, SetsWon, PointsDifferential})
	pos := map[int]int{}
	for i, r := range with.Rows {
		pos[r.TeamID] = i
	}
	if pos[2] > pos[1] {
		t.Fatalf("order = %v; team 2 should rank above team 1", teamOrder(with.Rows))
	}
}

func TestComputeDeterministic(t *testing.T) {
	first := Compute(fixture(), DefaultOrder())
	for i := 0; i < 10; i++ {
		again := Compute(fixture(), DefaultOrder())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	table := Compute(nil, DefaultOrder())
	if table.Rows == nil || len(table.Rows) != 0 || len(table.Excluded) != 0 {
		t.Fatalf("Compute(nil) = %+v; want empty ranking", table)
	}
}

func TestComputeOnlyRanksTeamsWithMatches(t *testing.T) {
	table := Compute(fixture(), DefaultOrder())
	for _, r := range table.Rows {
		if r.Played == 0 {
			t.Fatalf("team %d ranked without a completed match", r.TeamID)
		}
		if r.TeamID == 99 {
			t.Fatalf("team 99 never played and must not be ranked")
		}
	}
}

func TestComputeExcludesMalformed(t *testing.T) {
	good := straight(1, 1, 2, 1, 21, 10)

	missing := good
	missing.ID, missing.SideB = 2, 0

	same := good
	same.ID, same.SideB = 3, 1

	outsider := good
	outsider.ID, outsider.Winner = 4, 9

	mismatch := good
	mismatch.ID, mismatch.Winner = 5, 2

	undecided := good
	undecided.ID = 6
	undecided.Score = scoring.MatchScore{{A: 21, B: 10}, {}, {}}

	badRules := good
	badRules.ID = 7
	badRules.Rules.TargetPoints = 0

	table := Compute([]Match{good, missing, same, outsider, mismatch, undecided, badRules}, DefaultOrder())
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows; want 2 from the single valid match", len(table.Rows))
	}

	wantErr := map[int]error{
		2: ErrMissingParticipant,
		3: ErrSameParticipant,
		4: ErrWinnerNotParticipant,
		5: ErrWinnerMismatch,
		6: ErrNotDecided,
		7: scoring.ErrInvalidTargetPoints,
	}
	if len(table.Excluded) != len(wantErr) {
		t.Fatalf("got %d exclusions; want %d: %+v", len(table.Excluded), len(wantErr), table.Excluded)
	}
	for _, ex := range table.Excluded {
		if !errors.Is(ex.Err, wantErr[ex.MatchID]) {
			t.Errorf("match %d: err = %v; want %v", ex.MatchID, ex.Err, wantErr[ex.MatchID])
		}
		if ex.Reason() == "" {
			t.Errorf("match %d: empty reason", ex.MatchID)
		}
	}
}

func TestCriteriaOrder(t *testing.T) {
	if _, err := ParseOrder([]string{"SETS_WON", "MATCHES_WON", "HEAD_TO_HEAD", "POINTS_DIFF"}); err != nil {
		t.Fatalf("valid permutation rejected: %v", err)
	}
	cases := []struct {
		name    string
		raw     []string
		wantErr error
	}{
		{name: "unknown", raw: []string{"SETS_WON", "MATCHES_WON", "HEAD_TO_HEAD", "GOALS"}, wantErr: ErrUnknownCriterion},
		{name: "duplicate", raw: []string{"SETS_WON", "SETS_WON", "HEAD_TO_HEAD", "POINTS_DIFF"}, wantErr: ErrDuplicateCriterion},
		{name: "short", raw: []string{"SETS_WON"}, wantErr: ErrIncompleteOrder},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseOrder(c.raw); !errors.Is(err, c.wantErr) {
				t.Fatalf("ParseOrder(%v) error = %v; want %v", c.raw, err, c.wantErr)
			}
		})
	}

	base := DefaultOrder()
	if _, err := Move(base, 0, Up); !errors.Is(err, ErrMoveOutOfRange) {
		t.Fatalf("Move first up error = %v; want ErrMoveOutOfRange", err)
	}
	moved, err := Move(base, 0, Down)
	if err != nil {
		t.Fatal(err)
	}
	if moved[0] != SetsWon || moved[1] != MatchesWon || base[0] != MatchesWon {
		t.Fatalf("Move(0, down) = %v, base = %v", moved, base)
	}
}
