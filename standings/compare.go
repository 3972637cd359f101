package standings

import "cmp"

// comparator returns a negative number when a ranks ahead of b, a positive
// number when b ranks ahead and zero when the criterion cannot separate them.
type comparator func(a, b *TeamStanding) int

var comparators = map[Criterion]comparator{
	MatchesWon: func(a, b *TeamStanding) int {
		return cmp.Compare(b.Won, a.Won)
	},
	SetsWon: func(a, b *TeamStanding) int {
		return cmp.Compare(b.SetsWon, a.SetsWon)
	},
	PointsDifferential: func(a, b *TeamStanding) int {
		return cmp.Compare(b.PointsDifferential(), a.PointsDifferential())
	},
	HeadToHead: compareHeadToHead,
}

// compareHeadToHead looks only at direct matches between the pair. Without
// one the pair is equal and the next criterion decides.
func compareHeadToHead(a, b *TeamStanding) int {
	rec, ok := a.HeadToHead[b.TeamID]
	if !ok || rec.Played == 0 {
		return 0
	}
	return cmp.Compare(rec.Lost, rec.Won)
}

func comparatorChain(criteria []Criterion) comparator {
	chain := make([]comparator, 0, len(criteria))
	for _, c := range criteria {
		if fn, ok := comparators[c]; ok {
			chain = append(chain, fn)
		}
	}
	return func(a, b *TeamStanding) int {
		for _, fn := range chain {
			if res := fn(a, b); res != 0 {
				return res
			}
		}
		return 0
	}
}
