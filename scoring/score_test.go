package scoring

import (
	"errors"
	"testing"
)

func TestEvaluateSet(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name string
		set  SetScore
		want Side
	}{
		{name: "21-19 decided for A", set: SetScore{A: 21, B: 19}, want: SideA},
		{name: "21-20 margin too small", set: SetScore{A: 21, B: 20}, want: SideNone},
		{name: "22-20 decided for A", set: SetScore{A: 22, B: 20}, want: SideA},
		{name: "30-25 decided by cap", set: SetScore{A: 30, B: 25}, want: SideA},
		{name: "30-29 cap overrides margin", set: SetScore{A: 30, B: 29}, want: SideA},
		{name: "29-29 undecided", set: SetScore{A: 29, B: 29}, want: SideNone},
		{name: "19-21 decided for B", set: SetScore{A: 19, B: 21}, want: SideB},
		{name: "29-30 cap for B", set: SetScore{A: 29, B: 30}, want: SideB},
		{name: "empty set", set: SetScore{}, want: SideNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := EvaluateSet(c.set, rules); got != c.want {
				t.Errorf("EvaluateSet(%+v) = %v; want %v", c.set, got, c.want)
			}
		})
	}
}

func TestRulesValidate(t *testing.T) {
	cases := []struct {
		name    string
		rules   Rules
		wantErr error
	}{
		{name: "defaults", rules: DefaultRules()},
		{name: "best of one", rules: Rules{TargetPoints: 11, WinMargin: 2, GoldenPointCap: 15, BestOf: 1}},
		{name: "cap equals target", rules: Rules{TargetPoints: 21, WinMargin: 2, GoldenPointCap: 21, BestOf: 5}},
		{name: "zero target", rules: Rules{TargetPoints: 0, WinMargin: 2, GoldenPointCap: 30, BestOf: 3}, wantErr: ErrInvalidTargetPoints},
		{name: "negative target", rules: Rules{TargetPoints: -5, WinMargin: 2, GoldenPointCap: 30, BestOf: 3}, wantErr: ErrInvalidTargetPoints},
		{name: "cap below target", rules: Rules{TargetPoints: 21, WinMargin: 2, GoldenPointCap: 20, BestOf: 3}, wantErr: ErrInvalidGoldenPointCap},
		{name: "even best of", rules: Rules{TargetPoints: 21, WinMargin: 2, GoldenPointCap: 30, BestOf: 2}, wantErr: ErrInvalidBestOf},
		{name: "margin not two", rules: Rules{TargetPoints: 21, WinMargin: 1, GoldenPointCap: 30, BestOf: 3}, wantErr: ErrInvalidWinMargin},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.rules.Validate()
			if c.wantErr == nil && err != nil {
				t.Fatalf("Validate() = %v; want nil", err)
			}
			if c.wantErr != nil && !errors.Is(err, c.wantErr) {
				t.Fatalf("Validate() = %v; want %v", err, c.wantErr)
			}
		})
	}
}

func TestRequiredWins(t *testing.T) {
	for bestOf, want := range map[int]int{1: 1, 3: 2, 5: 3} {
		r := DefaultRules()
		r.BestOf = bestOf
		if got := r.RequiredWins(); got != want {
			t.Errorf("RequiredWins(best of %d) = %d; want %d", bestOf, got, want)
		}
	}
}

func TestDefaultCapFor(t *testing.T) {
	for target, want := range map[int]int{11: 16, 15: 20, 21: 30, 35: 40} {
		if got := DefaultCapFor(target); got != want {
			t.Errorf("DefaultCapFor(%d) = %d; want %d", target, got, want)
		}
	}
}

func TestMatchScoreEqual(t *testing.T) {
	base := MatchScore{{A: 21, B: 19}, {A: 3, B: 5}, {}}
	if !base.Equal(base.Clone()) {
		t.Fatal("score differs from its clone")
	}
	if base.Equal(MatchScore{{A: 21, B: 19}, {A: 3, B: 6}, {}}) {
		t.Fatal("different points compare equal")
	}
	if base.Equal(base[:2]) {
		t.Fatal("different set counts compare equal")
	}
}

func TestParseTargetPoints(t *testing.T) {
	if got, err := ParseTargetPoints(" 15 "); err != nil || got != 15 {
		t.Fatalf("ParseTargetPoints(\" 15 \") = %d, %v; want 15, nil", got, err)
	}
	for _, raw := range []string{"", "abc", "0", "-3", "21.5"} {
		if _, err := ParseTargetPoints(raw); !errors.Is(err, ErrInvalidTargetPoints) {
			t.Errorf("ParseTargetPoints(%q) error = %v; want ErrInvalidTargetPoints", raw, err)
		}
	}
}

func TestEvaluateMatch(t *testing.T) {
	rules3 := DefaultRules()
	rules5 := DefaultRules()
	rules5.BestOf = 5
	rules1 := DefaultRules()
	rules1.BestOf = 1

	a := SetScore{A: 21, B: 10}
	b := SetScore{A: 10, B: 21}
	open := SetScore{A: 5, B: 3}

	cases := []struct {
		name  string
		rules Rules
		score MatchScore
		want  Side
	}{
		{name: "best of 3 A A", rules: rules3, score: MatchScore{a, a, {}}, want: SideA},
		{name: "best of 3 A B open", rules: rules3, score: MatchScore{a, b, open}, want: SideNone},
		{name: "best of 3 B A B", rules: rules3, score: MatchScore{b, a, b}, want: SideB},
		{name: "best of 5 A B A B A", rules: rules5, score: MatchScore{a, b, a, b, a}, want: SideA},
		{name: "best of 5 A B A B", rules: rules5, score: MatchScore{a, b, a, b, {}}, want: SideNone},
		{name: "best of 1 single set", rules: rules1, score: MatchScore{b}, want: SideB},
		{name: "order independent", rules: rules3, score: MatchScore{{}, a, a}, want: SideA},
		{name: "empty", rules: rules3, score: NewMatchScore(3), want: SideNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := EvaluateMatch(c.score, c.rules)
			if got != c.want {
				t.Fatalf("EvaluateMatch = %v; want %v", got, c.want)
			}
			// recomputation must not depend on prior calls
			if again := EvaluateMatch(c.score, c.rules); again != got {
				t.Fatalf("second EvaluateMatch = %v; first was %v", again, got)
			}
		})
	}
}

func TestApplyPointDelta(t *testing.T) {
	rules := DefaultRules()

	t.Run("increment does not mutate input", func(t *testing.T) {
		score := NewMatchScore(3)
		next, err := ApplyPointDelta(score, 0, SideA, 1, rules)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next[0].A != 1 || score[0].A != 0 {
			t.Fatalf("got next=%+v input=%+v; want next A=1, input untouched", next[0], score[0])
		}
	})

	t.Run("decrement at zero is clamped", func(t *testing.T) {
		score := NewMatchScore(3)
		for i := 0; i < 5; i++ {
			var err error
			score, err = ApplyPointDelta(score, 1, SideB, -1, rules)
			if err != nil {
				t.Fatalf("decrement %d: unexpected error %v", i, err)
			}
		}
		if score[1].B != 0 {
			t.Fatalf("B = %d; want 0", score[1].B)
		}
	})

	t.Run("cannot score into decided set", func(t *testing.T) {
		score := MatchScore{{A: 21, B: 19}, {}, {}}
		next, err := ApplyPointDelta(score, 0, SideB, 1, rules)
		if !errors.Is(err, ErrSetDecided) {
			t.Fatalf("error = %v; want ErrSetDecided", err)
		}
		if next[0] != score[0] {
			t.Fatalf("score changed on rejection: %+v", next[0])
		}
	})

	t.Run("decrement allowed on decided set", func(t *testing.T) {
		score := MatchScore{{A: 21, B: 19}, {}, {}}
		next, err := ApplyPointDelta(score, 0, SideA, -1, rules)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if EvaluateSet(next[0], rules) != SideNone {
			t.Fatalf("set should be undecided after undo, got %+v", next[0])
		}
	})

	t.Run("invalid arguments", func(t *testing.T) {
		score := NewMatchScore(3)
		if _, err := ApplyPointDelta(score, 0, SideA, 2, rules); !errors.Is(err, ErrInvalidDelta) {
			t.Errorf("delta 2: error = %v; want ErrInvalidDelta", err)
		}
		if _, err := ApplyPointDelta(score, 3, SideA, 1, rules); !errors.Is(err, ErrSetOutOfRange) {
			t.Errorf("set 3: error = %v; want ErrSetOutOfRange", err)
		}
		if _, err := ApplyPointDelta(score, 0, SideNone, 1, rules); !errors.Is(err, ErrInvalidSide) {
			t.Errorf("side none: error = %v; want ErrInvalidSide", err)
		}
	})
}

func TestSideText(t *testing.T) {
	for _, side := range []Side{SideNone, SideA, SideB} {
		text, err := side.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", side, err)
		}
		var back Side
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != side {
			t.Errorf("round trip %v -> %q -> %v", side, text, back)
		}
	}
}
