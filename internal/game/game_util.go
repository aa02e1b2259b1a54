package game

import "time"

// NewState builds the waiting-phase state a room holds before a game starts
// and after a reset.
func NewState(p Parameters) State {
	return State{
		IsPlaying: false,
		Winner:    WinnerNone,
		Scores:    Scores{},
		Round:     newRound(0, p),
		Params:    p,
	}
}

func newRound(index int, p Parameters) Round {
	return Round{
		Index:            index,
		Phase:            Phase{Index: PhaseWaiting, Status: StatusPending},
		Candidates:       map[Team]string{TeamRed: "", TeamBlue: ""},
		Words:            map[Team]string{TeamRed: "", TeamBlue: ""},
		Forbidden:        map[Team][]string{TeamRed: {}, TeamBlue: {}},
		RemainingGuesses: p.TeamMaxPropositions,
		RerollsLeft:      map[Team]int{TeamRed: p.TeamReroll, TeamBlue: p.TeamReroll},
	}
}

// cloneRound deep-copies the round so Apply never aliases the caller's maps.
func cloneRound(r Round) Round {
	c := r
	c.Candidates = make(map[Team]string, len(r.Candidates))
	for k, v := range r.Candidates {
		c.Candidates[k] = v
	}
	c.Words = make(map[Team]string, len(r.Words))
	for k, v := range r.Words {
		c.Words[k] = v
	}
	c.Forbidden = make(map[Team][]string, len(r.Forbidden))
	for k, v := range r.Forbidden {
		c.Forbidden[k] = append([]string(nil), v...)
	}
	c.RerollsLeft = make(map[Team]int, len(r.RerollsLeft))
	for k, v := range r.RerollsLeft {
		c.RerollsLeft[k] = v
	}
	return c
}

// PhaseDuration maps a phase to its configured countdown. Zero means the
// phase has no timer.
func (p Parameters) PhaseDuration(idx PhaseIndex) time.Duration {
	switch idx {
	case PhaseWordChoice:
		return time.Duration(p.TimeFirst) * time.Second
	case PhaseForbiddenWords:
		return time.Duration(p.TimeSecond) * time.Second
	case PhaseOration:
		return time.Duration(p.TimeThird) * time.Second
	default:
		return 0
	}
}

func ContainsEvent(events []Event, t EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}
