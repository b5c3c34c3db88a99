package rules_test

import (
	"testing"

	"github.com/okravets/volleyball-match-service/internal/model"
	"github.com/okravets/volleyball-match-service/internal/rules"
)

var standardSet = model.SetConfig{TargetScore: 25, WinBy: 2, Cap: 27}

func TestIsSetFinished(t *testing.T) {
	cases := []struct {
		name  string
		score model.Score
		cfg   model.SetConfig
		want  bool
	}{
		{"Zero score", model.Score{}, standardSet, false},
		{"Target reached with margin", model.Score{MyTeam: 25, Opponent: 20}, standardSet, true},
		{"Target reached without margin", model.Score{MyTeam: 25, Opponent: 24}, standardSet, false},
		{"Deuce continues past target", model.Score{MyTeam: 26, Opponent: 25}, standardSet, false},
		{"Win by two past target", model.Score{MyTeam: 26, Opponent: 24}, standardSet, true},
		{"Cap ends set one point ahead", model.Score{MyTeam: 27, Opponent: 26}, standardSet, true},
		{"Cap tie is not finished", model.Score{MyTeam: 27, Opponent: 27}, standardSet, false},
		{"Opponent side wins too", model.Score{MyTeam: 10, Opponent: 25}, standardSet, true},
		{"Short deciding set", model.Score{MyTeam: 15, Opponent: 13}, model.SetConfig{TargetScore: 15, WinBy: 2, Cap: 17}, true},
		{"No cap plays on forever", model.Score{MyTeam: 40, Opponent: 39}, model.SetConfig{TargetScore: 25, WinBy: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.IsSetFinished(tc.score, tc.cfg); got != tc.want {
				t.Errorf("IsSetFinished(%+v) = %v; want %v", tc.score, got, tc.want)
			}
		})
	}
}

func TestSetWinner(t *testing.T) {
	if _, ok := rules.SetWinner(model.Score{MyTeam: 24, Opponent: 20}, standardSet); ok {
		t.Fatal("no winner expected before target")
	}
	winner, ok := rules.SetWinner(model.Score{MyTeam: 25, Opponent: 20}, standardSet)
	if !ok || winner != model.TeamMy {
		t.Fatalf("winner = %v, %v; want my_team, true", winner, ok)
	}
	winner, ok = rules.SetWinner(model.Score{MyTeam: 26, Opponent: 28}, standardSet)
	if !ok || winner != model.TeamOpponent {
		t.Fatalf("winner = %v, %v; want opponent, true", winner, ok)
	}
}

func TestIsSetPoint(t *testing.T) {
	cases := []struct {
		name       string
		team, othr int
		want       bool
	}{
		{"24-20 is set point", 24, 20, true},
		{"24-23 is set point", 24, 23, true},
		{"24-24 deuce tie is not", 24, 24, false},
		{"25-24 deuce lead is", 25, 24, true},
		{"26-26 at cap minus one is", 26, 26, true},
		{"23-20 one short of set point", 23, 20, false},
		{"20-24 trailing side is not", 20, 24, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.IsSetPoint(tc.team, tc.othr, standardSet); got != tc.want {
				t.Errorf("IsSetPoint(%d, %d) = %v; want %v", tc.team, tc.othr, got, tc.want)
			}
		})
	}
}

// Set point must hold exactly when one more point would finish the set.
// Sweep every score pair up to the cap and cross-check the two rules.
func TestSetPointMatchesOneMorePoint(t *testing.T) {
	for team := 0; team <= standardSet.Cap; team++ {
		for other := 0; other <= standardSet.Cap; other++ {
			score := model.Score{MyTeam: team, Opponent: other}
			if rules.IsSetFinished(score, standardSet) {
				continue
			}
			got := rules.IsSetPoint(team, other, standardSet)
			next := model.Score{MyTeam: team + 1, Opponent: other}
			wouldWin := false
			if w, ok := rules.SetWinner(next, standardSet); ok && w == model.TeamMy {
				wouldWin = true
			}
			if got != wouldWin {
				t.Fatalf("IsSetPoint(%d, %d) = %v but one more point finishing = %v", team, other, got, wouldWin)
			}
		}
	}
}

func TestSimultaneousSetPointWinByOne(t *testing.T) {
	cfg := model.SetConfig{TargetScore: 25, WinBy: 1, Cap: 25}
	if !rules.IsSetPoint(24, 24, cfg) || !rules.IsSetPoint(24, 24, cfg) {
		t.Fatal("both sides should hold set point at 24-24 with win-by 1")
	}
	if rules.IsSetPoint(24, 24, standardSet) {
		t.Fatal("no side holds set point at 24-24 with win-by 2")
	}
}

func TestIsMatchPoint(t *testing.T) {
	cases := []struct {
		name      string
		setPoint  bool
		setsWon   int
		totalSets int
		want      bool
	}{
		{"Set point with one of three won", true, 1, 3, true},
		{"Set point with none of three won", true, 0, 3, false},
		{"No set point never match point", false, 2, 5, false},
		{"Best of five needs two prior", true, 2, 5, true},
		{"Single set match", true, 0, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rules.IsMatchPoint(tc.setPoint, tc.setsWon, tc.totalSets); got != tc.want {
				t.Errorf("IsMatchPoint(%v, %d, %d) = %v; want %v", tc.setPoint, tc.setsWon, tc.totalSets, got, tc.want)
			}
		})
	}
}

func TestMustWinByMessage(t *testing.T) {
	cases := []struct {
		name  string
		score model.Score
		want  bool
	}{
		{"Deuce window open", model.Score{MyTeam: 24, Opponent: 24}, true},
		{"One side short of window", model.Score{MyTeam: 24, Opponent: 20}, false},
		{"Past target still tied", model.Score{MyTeam: 26, Opponent: 26}, true},
		{"Margin already open", model.Score{MyTeam: 26, Opponent: 24}, false},
		{"Early game", model.Score{MyTeam: 5, Opponent: 5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, got := rules.MustWinByMessage(tc.score, standardSet)
			if got != tc.want {
				t.Errorf("MustWinByMessage(%+v) = %v; want %v", tc.score, got, tc.want)
			}
			if got && msg != "Win by 2" {
				t.Errorf("message = %q; want %q", msg, "Win by 2")
			}
		})
	}
}
