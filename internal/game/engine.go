package game

import (
	"errors"
	"strings"
)

var ErrNotWaiting = errors.New("game can only start from the waiting phase")
var ErrGameCompleted = errors.New("game already has a winner")
var ErrWrongPhase = errors.New("command not valid in current phase")
var ErrNotPlaying = errors.New("game is not running")
var ErrAlreadyPlaying = errors.New("game is already running")
var ErrNotAPlayingTeam = errors.New("team must be red or blue")
var ErrEmptyWord = errors.New("word must not be empty")
var ErrRerollExhausted = errors.New("no rerolls left")
var ErrNoGuessesLeft = errors.New("no guesses left")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdStartGame           CommandType = "StartGame"
	CmdPauseGame           CommandType = "PauseGame"
	CmdResumeGame          CommandType = "ResumeGame"
	CmdAdvancePhase        CommandType = "AdvancePhase"
	CmdSetWord             CommandType = "SetWord"
	CmdRequestReroll       CommandType = "RequestReroll"
	CmdAddForbiddenWord    CommandType = "AddForbiddenWord"
	CmdRemoveForbiddenWord CommandType = "RemoveForbiddenWord"
	CmdSubmitGuess         CommandType = "SubmitGuess"
	CmdResetGame           CommandType = "ResetGame"
)

type Command struct {
	Type  CommandType
	Team  Team
	Word  string
	Index int
}

type EventType string

const (
	EvtGameStarted      EventType = "GameStarted"
	EvtGamePaused       EventType = "GamePaused"
	EvtGameResumed      EventType = "GameResumed"
	EvtPhaseAdvanced    EventType = "PhaseAdvanced"
	EvtWordAssigned     EventType = "WordAssigned"
	EvtWordRerolled     EventType = "WordRerolled"
	EvtForbiddenAdded   EventType = "ForbiddenAdded"
	EvtForbiddenRemoved EventType = "ForbiddenRemoved"
	EvtGuessAttempted   EventType = "GuessAttempted"
	EvtRoundResolved    EventType = "RoundResolved"
	EvtGameWon          EventType = "GameWon"
	EvtGameReset        EventType = "GameReset"
)

type Event struct {
	Type    EventType
	Team    Team
	Word    string
	Correct bool
	Winner  Winner
	Phase   PhaseIndex
}

// Apply runs one command against a state and returns the events it produced
// plus the next state. The input state is never mutated; callers own the
// serialization discipline (one room actor applies commands sequentially).
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Winner != WinnerNone && cmd.Type != CmdResetGame {
		return nil, s, ErrGameCompleted
	}

	switch cmd.Type {
	case CmdStartGame:
		if s.Round.Phase.Index != PhaseWaiting {
			return nil, s, ErrNotWaiting
		}
		next := s
		next.IsPlaying = true
		next.Scores = Scores{}
		next.Round = newRound(1, s.Params)
		next.Round.Phase = Phase{Index: PhaseWordChoice, Status: StatusActive}
		dealCandidates(&next.Round, s.Params)
		return []Event{{Type: EvtGameStarted}}, next, nil

	case CmdPauseGame:
		if !s.IsPlaying {
			return nil, s, ErrNotPlaying
		}
		next := s
		next.IsPlaying = false
		return []Event{{Type: EvtGamePaused}}, next, nil

	case CmdResumeGame:
		if s.IsPlaying {
			return nil, s, ErrAlreadyPlaying
		}
		if s.Round.Phase.Index == PhaseWaiting {
			return nil, s, ErrWrongPhase
		}
		next := s
		next.IsPlaying = true
		return []Event{{Type: EvtGameResumed}}, next, nil

	case CmdAdvancePhase:
		if s.Round.Phase.Index == PhaseWaiting {
			return nil, s, ErrWrongPhase
		}
		return advancePhase(s)

	case CmdSetWord:
		if s.Round.Phase.Index != PhaseWordChoice {
			return nil, s, ErrWrongPhase
		}
		if !cmd.Team.Playing() {
			return nil, s, ErrNotAPlayingTeam
		}
		word := strings.TrimSpace(cmd.Word)
		if word == "" {
			return nil, s, ErrEmptyWord
		}
		next := s
		next.Round = cloneRound(s.Round)
		next.Round.Words[cmd.Team] = word
		return []Event{{Type: EvtWordAssigned, Team: cmd.Team, Word: word}}, next, nil

	case CmdRequestReroll:
		if s.Round.Phase.Index != PhaseWordChoice {
			return nil, s, ErrWrongPhase
		}
		if !cmd.Team.Playing() {
			return nil, s, ErrNotAPlayingTeam
		}
		if s.Round.RerollsLeft[cmd.Team] <= 0 {
			return nil, s, ErrRerollExhausted
		}
		next := s
		next.Round = cloneRound(s.Round)
		next.Round.RerollsLeft[cmd.Team]--
		word := drawWord(s.Params.WordSelection)
		next.Round.Candidates[cmd.Team] = word
		return []Event{{Type: EvtWordRerolled, Team: cmd.Team, Word: word}}, next, nil

	case CmdAddForbiddenWord:
		if s.Round.Phase.Index != PhaseForbiddenWords {
			return nil, s, ErrWrongPhase
		}
		if !cmd.Team.Playing() {
			return nil, s, ErrNotAPlayingTeam
		}
		word := strings.TrimSpace(cmd.Word)
		if word == "" {
			return nil, s, ErrEmptyWord
		}
		// At capacity the add is a silent no-op; callers check capacity
		// before offering the affordance.
		if len(s.Round.Forbidden[cmd.Team]) >= s.Params.TeamMaxForbiddenWords {
			return nil, s, nil
		}
		next := s
		next.Round = cloneRound(s.Round)
		next.Round.Forbidden[cmd.Team] = append(next.Round.Forbidden[cmd.Team], word)
		return []Event{{Type: EvtForbiddenAdded, Team: cmd.Team, Word: word}}, next, nil

	case CmdRemoveForbiddenWord:
		if s.Round.Phase.Index != PhaseForbiddenWords {
			return nil, s, ErrWrongPhase
		}
		if !cmd.Team.Playing() {
			return nil, s, ErrNotAPlayingTeam
		}
		words := s.Round.Forbidden[cmd.Team]
		if cmd.Index < 0 || cmd.Index >= len(words) {
			return nil, s, nil
		}
		next := s
		next.Round = cloneRound(s.Round)
		next.Round.Forbidden[cmd.Team] = append(words[:cmd.Index:cmd.Index], words[cmd.Index+1:]...)
		return []Event{{Type: EvtForbiddenRemoved, Team: cmd.Team}}, next, nil

	case CmdSubmitGuess:
		if s.Round.Phase.Index != PhaseOration {
			return nil, s, ErrWrongPhase
		}
		if !cmd.Team.Playing() {
			return nil, s, ErrNotAPlayingTeam
		}
		if s.Round.RemainingGuesses <= 0 {
			return nil, s, ErrNoGuessesLeft
		}
		next := s
		next.Round = cloneRound(s.Round)
		next.Round.RemainingGuesses--

		target := s.Round.Words[cmd.Team.Opponent()]
		correct := target != "" && wordsMatch(cmd.Word, target)
		events := []Event{{Type: EvtGuessAttempted, Team: cmd.Team, Word: cmd.Word, Correct: correct}}

		// A correct guess or the last wrong one ends the phase; Oration
		// never stalls waiting for more guesses.
		if correct || next.Round.RemainingGuesses == 0 {
			more, resolved, err := advancePhase(next)
			if err != nil {
				return nil, s, err
			}
			return append(events, more...), resolved, nil
		}
		return events, next, nil

	case CmdResetGame:
		next := NewState(s.Params)
		return []Event{{Type: EvtGameReset}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// advancePhase moves WordChoice -> ForbiddenWords -> Oration; leaving Oration
// resolves the round.
func advancePhase(s State) ([]Event, State, error) {
	next := s
	next.Round = cloneRound(s.Round)

	switch s.Round.Phase.Index {
	case PhaseWordChoice:
		next.Round.Phase = Phase{Index: PhaseForbiddenWords, Status: StatusActive}
		return []Event{{Type: EvtPhaseAdvanced, Phase: PhaseForbiddenWords}}, next, nil
	case PhaseForbiddenWords:
		next.Round.Phase = Phase{Index: PhaseOration, Status: StatusActive}
		return []Event{{Type: EvtPhaseAdvanced, Phase: PhaseOration}}, next, nil
	case PhaseOration:
		return resolveRound(next)
	default:
		return nil, s, ErrWrongPhase
	}
}

// resolveRound awards points for the finished round and either declares a
// winner or starts the next round back in WordChoice.
func resolveRound(s State) ([]Event, State, error) {
	next := s
	redSet := s.Round.Words[TeamRed] != ""
	blueSet := s.Round.Words[TeamBlue] != ""

	bothTied := s.Params.PointsRules == RuleAwardNeither && redSet && blueSet
	if !bothTied {
		if redSet {
			next.Scores.Red++
		}
		if blueSet {
			next.Scores.Blue++
		}
	}
	events := []Event{{Type: EvtRoundResolved}}

	redWon := next.Scores.Red >= s.Params.PointsMaxScore
	blueWon := next.Scores.Blue >= s.Params.PointsMaxScore
	if redWon || blueWon {
		switch {
		case redWon && blueWon:
			next.Winner = WinnerTie
		case redWon:
			next.Winner = WinnerRed
		default:
			next.Winner = WinnerBlue
		}
		next.IsPlaying = false
		next.Round.Phase = Phase{Index: PhaseWaiting, Status: StatusFinished}
		return append(events, Event{Type: EvtGameWon, Winner: next.Winner}), next, nil
	}

	next.Round = newRound(s.Round.Index+1, s.Params)
	next.Round.Phase = Phase{Index: PhaseWordChoice, Status: StatusActive}
	dealCandidates(&next.Round, s.Params)
	events = append(events, Event{Type: EvtPhaseAdvanced, Phase: PhaseWordChoice})
	return events, next, nil
}

func wordsMatch(guess, target string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(target))
}
