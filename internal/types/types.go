package types

import (
	"github.com/RLGADM/Kenshou-beta-3/internal/game"
	"github.com/RLGADM/Kenshou-beta-3/internal/room"
)

// Client -> Server. Type is one of:
//
//	createRoom, joinRoom, leaveRoom,
//	changeTeam, changeRole,
//	startGame, pauseGame, resumeGame, resetGame, resetRoom,
//	setWord, requestReroll, addForbiddenWord, removeForbiddenWord,
//	submitGuess, chatMessage
//
// Anything else is rejected at the boundary.
type ClientMessage struct {
	Type       string           `json:"type"`
	RoomCode   string           `json:"roomCode,omitempty"`
	Username   string           `json:"username,omitempty"`
	Team       string           `json:"team,omitempty"`
	Role       string           `json:"role,omitempty"`
	Word       string           `json:"word,omitempty"`
	Index      int              `json:"index,omitempty"`
	Text       string           `json:"text,omitempty"`
	Parameters *game.Parameters `json:"parameters,omitempty"`
}

// Server -> Client. Type mirrors the snapshot event names (roomCreated,
// roomJoined, usersUpdate, gameStateUpdate, guessAttempted, chatMessage) plus
// ack, roomNotFound, usernameTaken and error.
type ServerMessage struct {
	Type           string        `json:"type"`
	Success        bool          `json:"success,omitempty"`
	Reconnected    bool          `json:"reconnected,omitempty"`
	RoomCode       string        `json:"roomCode,omitempty"`
	Error          string        `json:"error,omitempty"`
	Version        int           `json:"version,omitempty"`
	Users          []room.User   `json:"users,omitempty"`
	State          *game.State   `json:"state,omitempty"`
	PhaseRemaining int           `json:"phaseRemaining,omitempty"`
	Notice         *room.Notice  `json:"notice,omitempty"`
	Chat           *room.Message `json:"chat,omitempty"`
}

// FromSnapshot converts a room broadcast into its wire form.
func FromSnapshot(snap room.Snapshot) ServerMessage {
	state := snap.State
	return ServerMessage{
		Type:           snap.Event,
		RoomCode:       snap.Code,
		Version:        snap.Version,
		Users:          snap.Users,
		State:          &state,
		PhaseRemaining: snap.PhaseRemaining,
		Notice:         snap.Notice,
		Chat:           snap.Chat,
	}
}
