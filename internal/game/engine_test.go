package game

import (
	"errors"
	"testing"
)

func testParams() Parameters {
	p := DefaultParameters()
	p.TeamReroll = 2
	p.TeamMaxForbiddenWords = 2
	p.TeamMaxPropositions = 3
	p.PointsMaxScore = 5
	p.PointsRules = RuleAwardBoth
	return p
}

// stubDraw makes reroll deterministic for the duration of a test.
func stubDraw(t *testing.T, word string) {
	t.Helper()
	orig := drawWord
	drawWord = func(WordSelection) string { return word }
	t.Cleanup(func() { drawWord = orig })
}

func mustApply(t *testing.T, s State, cmd Command) ([]Event, State) {
	t.Helper()
	events, next, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("Apply(%s): unexpected err: %v", cmd.Type, err)
	}
	return events, next
}

// startedState walks a fresh state into a running round at the given phase.
func startedState(t *testing.T, p Parameters, phase PhaseIndex, redWord, blueWord string) State {
	t.Helper()
	_, s := mustApply(t, NewState(p), Command{Type: CmdStartGame})
	if redWord != "" {
		_, s = mustApply(t, s, Command{Type: CmdSetWord, Team: TeamRed, Word: redWord})
	}
	if blueWord != "" {
		_, s = mustApply(t, s, Command{Type: CmdSetWord, Team: TeamBlue, Word: blueWord})
	}
	for s.Round.Phase.Index < phase {
		_, s = mustApply(t, s, Command{Type: CmdAdvancePhase})
	}
	return s
}

func TestStartGame(t *testing.T) {
	s := NewState(testParams())

	events, next, err := Apply(s, Command{Type: CmdStartGame})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtGameStarted) {
		t.Fatalf("expected GameStarted event, got %+v", events)
	}
	if !next.IsPlaying || next.Round.Index != 1 || next.Round.Phase.Index != PhaseWordChoice {
		t.Fatalf("bad started state: %+v", next)
	}
	if next.Round.Candidates[TeamRed] == "" || next.Round.Candidates[TeamBlue] == "" {
		t.Fatalf("both sages must be dealt a candidate at start, got %+v", next.Round.Candidates)
	}
	if next.Round.Words[TeamRed] != "" || next.Round.Words[TeamBlue] != "" {
		t.Fatalf("committed words must start unset, got %+v", next.Round.Words)
	}

	if _, _, err := Apply(next, Command{Type: CmdStartGame}); !errors.Is(err, ErrNotWaiting) {
		t.Fatalf("expected ErrNotWaiting, got %v", err)
	}
}

func TestPhaseGuards(t *testing.T) {
	p := testParams()
	cases := []struct {
		name  string
		phase PhaseIndex
		cmd   Command
	}{
		{"set word outside word choice", PhaseOration, Command{Type: CmdSetWord, Team: TeamRed, Word: "x"}},
		{"reroll outside word choice", PhaseForbiddenWords, Command{Type: CmdRequestReroll, Team: TeamRed}},
		{"forbidden outside its phase", PhaseWordChoice, Command{Type: CmdAddForbiddenWord, Team: TeamRed, Word: "x"}},
		{"guess outside oration", PhaseWordChoice, Command{Type: CmdSubmitGuess, Team: TeamRed, Word: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := startedState(t, p, tc.phase, "cible", "mot")
			if _, _, err := Apply(s, tc.cmd); !errors.Is(err, ErrWrongPhase) {
				t.Fatalf("expected ErrWrongPhase, got %v", err)
			}
		})
	}
}

func TestSpectatorCannotAct(t *testing.T) {
	s := startedState(t, testParams(), PhaseWordChoice, "", "")
	if _, _, err := Apply(s, Command{Type: CmdSetWord, Team: TeamSpectator, Word: "x"}); !errors.Is(err, ErrNotAPlayingTeam) {
		t.Fatalf("expected ErrNotAPlayingTeam, got %v", err)
	}
}

func TestRequestReroll(t *testing.T) {
	stubDraw(t, "nouveau")
	p := testParams()
	p.TeamReroll = 1
	s := startedState(t, p, PhaseWordChoice, "ancien", "")

	events, next, err := Apply(s, Command{Type: CmdRequestReroll, Team: TeamRed})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtWordRerolled) {
		t.Fatalf("expected WordRerolled, got %+v", events)
	}
	if next.Round.Candidates[TeamRed] != "nouveau" || next.Round.RerollsLeft[TeamRed] != 0 {
		t.Fatalf("bad reroll state: %+v", next.Round)
	}
	if next.Round.Words[TeamRed] != "ancien" {
		t.Fatalf("reroll must not touch the committed word, got %+v", next.Round.Words)
	}

	// Exhausted: failure, and no mutation of candidate or counter.
	_, after, err := Apply(next, Command{Type: CmdRequestReroll, Team: TeamRed})
	if !errors.Is(err, ErrRerollExhausted) {
		t.Fatalf("expected ErrRerollExhausted, got %v", err)
	}
	if after.Round.Candidates[TeamRed] != "nouveau" || after.Round.RerollsLeft[TeamRed] != 0 {
		t.Fatalf("exhausted reroll mutated state: %+v", after.Round)
	}
}

func TestCandidateDealAvoidsDuplicates(t *testing.T) {
	draws := []string{"pareil", "pareil", "autre"}
	i := 0
	orig := drawWord
	drawWord = func(WordSelection) string {
		w := draws[i%len(draws)]
		i++
		return w
	}
	t.Cleanup(func() { drawWord = orig })

	_, s := mustApply(t, NewState(testParams()), Command{Type: CmdStartGame})
	if s.Round.Candidates[TeamRed] == s.Round.Candidates[TeamBlue] {
		t.Fatalf("deal kept identical candidates: %+v", s.Round.Candidates)
	}
}

func TestForbiddenWordBounds(t *testing.T) {
	p := testParams()
	p.TeamMaxForbiddenWords = 1
	s := startedState(t, p, PhaseForbiddenWords, "cible", "")

	_, s = mustApply(t, s, Command{Type: CmdAddForbiddenWord, Team: TeamRed, Word: "un"})
	if len(s.Round.Forbidden[TeamRed]) != 1 {
		t.Fatalf("expected 1 forbidden word, got %+v", s.Round.Forbidden)
	}

	// Beyond the cap: silent no-op, no event, no error.
	events, after, err := Apply(s, Command{Type: CmdAddForbiddenWord, Team: TeamRed, Word: "deux"})
	if err != nil || len(events) != 0 || len(after.Round.Forbidden[TeamRed]) != 1 {
		t.Fatalf("cap overflow not a silent no-op: events=%v err=%v forbidden=%v",
			events, err, after.Round.Forbidden)
	}

	// Out-of-range removal is also a no-op.
	events, after, err = Apply(s, Command{Type: CmdRemoveForbiddenWord, Team: TeamRed, Index: 5})
	if err != nil || len(events) != 0 || len(after.Round.Forbidden[TeamRed]) != 1 {
		t.Fatalf("bad out-of-range removal: events=%v err=%v", events, err)
	}

	_, after = mustApply(t, s, Command{Type: CmdRemoveForbiddenWord, Team: TeamRed, Index: 0})
	if len(after.Round.Forbidden[TeamRed]) != 0 {
		t.Fatalf("expected removal, got %+v", after.Round.Forbidden)
	}
}

func TestSubmitGuess(t *testing.T) {
	p := testParams()
	p.TeamMaxPropositions = 2
	s := startedState(t, p, PhaseOration, "cible", "mot")

	// Wrong guess decrements and stays in Oration.
	events, s2, err := Apply(s, Command{Type: CmdSubmitGuess, Team: TeamBlue, Word: "rate"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtGuessAttempted) || s2.Round.RemainingGuesses != 1 {
		t.Fatalf("bad wrong-guess handling: events=%v guesses=%d", events, s2.Round.RemainingGuesses)
	}
	if s2.Round.Phase.Index != PhaseOration {
		t.Fatalf("wrong guess must not end the phase")
	}

	// Correct guess (case-insensitive) resolves the round immediately.
	events, s3, err := Apply(s2, Command{Type: CmdSubmitGuess, Team: TeamBlue, Word: "  CIBLE "})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtRoundResolved) {
		t.Fatalf("correct guess must resolve round, got %+v", events)
	}
	if s3.Round.Index != 2 || s3.Round.Phase.Index != PhaseWordChoice {
		t.Fatalf("expected next round in word choice, got %+v", s3.Round)
	}
}

func TestGuessExhaustionForcesAdvance(t *testing.T) {
	p := testParams()
	p.TeamMaxPropositions = 1
	s := startedState(t, p, PhaseOration, "cible", "mot")

	events, next, err := Apply(s, Command{Type: CmdSubmitGuess, Team: TeamBlue, Word: "rate"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtRoundResolved) {
		t.Fatalf("last wrong guess must resolve the round, got %+v", events)
	}
	if next.Round.Index != 2 {
		t.Fatalf("expected round 2, got %d", next.Round.Index)
	}
}

func TestRoundScoringRules(t *testing.T) {
	cases := []struct {
		name     string
		rule     TieRule
		redWord  string
		blueWord string
		wantRed  int
		wantBlue int
	}{
		{"award-both, both set", RuleAwardBoth, "a", "b", 1, 1},
		{"award-both, only red", RuleAwardBoth, "a", "", 1, 0},
		{"award-neither, both set", RuleAwardNeither, "a", "b", 0, 0},
		{"award-neither, only red", RuleAwardNeither, "a", "", 1, 0},
		{"award-neither, only blue", RuleAwardNeither, "", "b", 0, 1},
		{"neither set", RuleAwardBoth, "", "", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams()
			p.PointsRules = tc.rule
			s := startedState(t, p, PhaseOration, tc.redWord, tc.blueWord)

			_, next := mustApply(t, s, Command{Type: CmdAdvancePhase})
			if next.Scores.Red != tc.wantRed || next.Scores.Blue != tc.wantBlue {
				t.Fatalf("scores = %+v, want red=%d blue=%d", next.Scores, tc.wantRed, tc.wantBlue)
			}
		})
	}
}

func TestNewRoundResetsCounters(t *testing.T) {
	p := testParams()
	s := startedState(t, p, PhaseOration, "cible", "mot")
	_, s = mustApply(t, s, Command{Type: CmdAdvancePhase})

	r := s.Round
	if r.Index != 2 || r.Words[TeamRed] != "" || r.Words[TeamBlue] != "" {
		t.Fatalf("round not reset: %+v", r)
	}
	if r.Candidates[TeamRed] == "" || r.Candidates[TeamBlue] == "" {
		t.Fatalf("new round must deal fresh candidates, got %+v", r.Candidates)
	}
	if r.RemainingGuesses != p.TeamMaxPropositions || r.RerollsLeft[TeamRed] != p.TeamReroll {
		t.Fatalf("counters not reset: %+v", r)
	}
}

func TestWinDetectionFreezesState(t *testing.T) {
	p := testParams()
	p.PointsMaxScore = 1
	s := startedState(t, p, PhaseOration, "cible", "")

	// Red set the only word and its guess lands before Oration ends.
	events, next, err := Apply(s, Command{Type: CmdSubmitGuess, Team: TeamBlue, Word: "cible"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ContainsEvent(events, EvtGameWon) {
		t.Fatalf("expected GameWon, got %+v", events)
	}
	if next.Scores.Red != 1 || next.Scores.Blue != 0 {
		t.Fatalf("scores = %+v, want red:1 blue:0", next.Scores)
	}
	if next.Winner != WinnerRed || next.IsPlaying {
		t.Fatalf("want winner=red, isPlaying=false; got %+v", next)
	}

	// Every transition is frozen until reset.
	for _, cmd := range []Command{
		{Type: CmdStartGame},
		{Type: CmdAdvancePhase},
		{Type: CmdSubmitGuess, Team: TeamBlue, Word: "x"},
		{Type: CmdPauseGame},
	} {
		if _, _, err := Apply(next, cmd); !errors.Is(err, ErrGameCompleted) {
			t.Fatalf("%s after win: expected ErrGameCompleted, got %v", cmd.Type, err)
		}
	}

	_, reset := mustApply(t, next, Command{Type: CmdResetGame})
	if reset.Winner != WinnerNone || reset.Scores != (Scores{}) || reset.Round.Index != 0 {
		t.Fatalf("reset did not clear state: %+v", reset)
	}
}

func TestSimultaneousWinIsTie(t *testing.T) {
	p := testParams()
	p.PointsMaxScore = 1
	p.PointsRules = RuleAwardBoth
	s := startedState(t, p, PhaseOration, "a", "b")

	_, next := mustApply(t, s, Command{Type: CmdAdvancePhase})
	if next.Winner != WinnerTie || next.IsPlaying {
		t.Fatalf("want tie winner, got %+v", next)
	}
}

func TestPauseResume(t *testing.T) {
	s := startedState(t, testParams(), PhaseWordChoice, "", "")

	_, paused := mustApply(t, s, Command{Type: CmdPauseGame})
	if paused.IsPlaying {
		t.Fatalf("pause left game running")
	}
	if _, _, err := Apply(paused, Command{Type: CmdPauseGame}); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying, got %v", err)
	}

	_, resumed := mustApply(t, paused, Command{Type: CmdResumeGame})
	if !resumed.IsPlaying || resumed.Round.Phase.Index != PhaseWordChoice {
		t.Fatalf("resume lost phase: %+v", resumed)
	}

	// Resume never applies to a game that was never started.
	if _, _, err := Apply(NewState(testParams()), Command{Type: CmdResumeGame}); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := startedState(t, testParams(), PhaseWordChoice, "", "")
	_, next := mustApply(t, s, Command{Type: CmdSetWord, Team: TeamRed, Word: "cible"})

	if s.Round.Words[TeamRed] != "" {
		t.Fatalf("input state mutated: %+v", s.Round.Words)
	}
	if next.Round.Words[TeamRed] != "cible" {
		t.Fatalf("next state missing word: %+v", next.Round.Words)
	}
}

func TestUnsupportedCommand(t *testing.T) {
	if _, _, err := Apply(NewState(testParams()), Command{Type: "Bogus"}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("expected ErrUnsupportedCommand, got %v", err)
	}
}
