package game

type Team string

const (
	TeamRed       Team = "red"
	TeamBlue      Team = "blue"
	TeamSpectator Team = "spectator"
)

// Opponent is only meaningful for red/blue.
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamSpectator
	}
}

func (t Team) Playing() bool { return t == TeamRed || t == TeamBlue }

type Role string

const (
	RoleSage      Role = "sage"
	RoleDisciple  Role = "disciple"
	RoleSpectator Role = "spectator"
)

type Winner string

const (
	WinnerNone Winner = "none"
	WinnerRed  Winner = "red"
	WinnerBlue Winner = "blue"
	WinnerTie  Winner = "tie"
)

// TieRule decides scoring when both teams set a word in the same round.
type TieRule string

const (
	RuleAwardBoth    TieRule = "award-both"
	RuleAwardNeither TieRule = "award-neither"
)

type WordSelection struct {
	VeryCommon   bool `json:"veryCommon"`
	LessCommon   bool `json:"lessCommon"`
	RarelyCommon bool `json:"rarelyCommon"`
}

// Parameters are fixed at room creation and never change afterwards.
type Parameters struct {
	TimeFirst             int           `json:"ParametersTimeFirst"`
	TimeSecond            int           `json:"ParametersTimeSecond"`
	TimeThird             int           `json:"ParametersTimeThird"`
	TeamReroll            int           `json:"ParametersTeamReroll"`
	TeamMaxForbiddenWords int           `json:"ParametersTeamMaxForbiddenWords"`
	TeamMaxPropositions   int           `json:"ParametersTeamMaxPropositions"`
	PointsMaxScore        int           `json:"ParametersPointsMaxScore"`
	PointsRules           TieRule       `json:"ParametersPointsRules"`
	WordSelection         WordSelection `json:"ParametersWordsListSelection"`
}

func DefaultParameters() Parameters {
	return Parameters{
		TimeFirst:             30,
		TimeSecond:            20,
		TimeThird:             15,
		TeamReroll:            3,
		TeamMaxForbiddenWords: 2,
		TeamMaxPropositions:   5,
		PointsMaxScore:        10,
		PointsRules:           RuleAwardBoth,
		WordSelection:         WordSelection{VeryCommon: true, LessCommon: true},
	}
}

type PhaseIndex int

const (
	PhaseWaiting PhaseIndex = iota
	PhaseWordChoice
	PhaseForbiddenWords
	PhaseOration
)

func (p PhaseIndex) String() string {
	switch p {
	case PhaseWordChoice:
		return "wordChoice"
	case PhaseForbiddenWords:
		return "forbiddenWords"
	case PhaseOration:
		return "oration"
	default:
		return "waiting"
	}
}

type PhaseStatus string

const (
	StatusPending  PhaseStatus = "pending"
	StatusActive   PhaseStatus = "active"
	StatusFinished PhaseStatus = "finished"
)

type Phase struct {
	Index  PhaseIndex  `json:"index"`
	Status PhaseStatus `json:"status"`
}

type Scores struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// Candidates holds the word dealt to each sage at the start of WordChoice;
// Words holds what a team actually committed to via SetWord. Scoring only
// looks at Words, so an idle team's dealt candidate never earns a point.
type Round struct {
	Index            int               `json:"index"`
	Phase            Phase             `json:"currentPhase"`
	Candidates       map[Team]string   `json:"candidateWords"`
	Words            map[Team]string   `json:"words"`
	Forbidden        map[Team][]string `json:"forbiddenWords"`
	RemainingGuesses int               `json:"remainingGuesses"`
	RerollsLeft      map[Team]int      `json:"rerollsLeft"`
}

type State struct {
	IsPlaying bool       `json:"isPlaying"`
	Winner    Winner     `json:"winner"`
	Scores    Scores     `json:"scores"`
	Round     Round      `json:"currentRound"`
	Params    Parameters `json:"parameters"`
}
