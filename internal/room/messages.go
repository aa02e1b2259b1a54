package room

import (
	"errors"
	"time"

	"github.com/RLGADM/Kenshou-beta-3/internal/game"
)

var ErrNameTaken = errors.New("username already taken in this room")
var ErrEmptyName = errors.New("username must not be empty")
var ErrNotMember = errors.New("not a member of this room")
var ErrNotOwner = errors.New("only the room owner may do that")
var ErrPolicyRejected = errors.New("rejected by room policy")

type Msg interface{ isRoomMsg() }

// Join adds a user or, when the identity is already a member, rebinds its
// connection (reconnection). Outbox receives snapshots for this connection.
type Join struct {
	Identity string
	Name     string
	ConnID   string
	Outbox   chan Snapshot
	Reply    chan JoinResult
}

type JoinResult struct {
	Reconnected bool
	Err         error
}

// Leave removes the user permanently. Unknown identities are ignored so the
// registry can fan one removal out to every room.
type Leave struct{ Identity string }

// Detach marks the user's connection as gone without removing membership;
// sent when a transport disconnect starts the grace period.
type Detach struct {
	Identity string
	ConnID   string
}

type ChangeTeam struct {
	Identity string
	Team     game.Team
	Reply    chan error
}

type ChangeRole struct {
	Identity string
	Role     game.Role
	Reply    chan error
}

// FromClient carries a game command from a member.
type FromClient struct {
	Identity string
	Cmd      game.Command
	Reply    chan error
}

type PostMessage struct {
	Identity string
	Text     string
}

type GetView struct{ Reply chan View }

type Shutdown struct{}

// phaseExpired is injected by the phase timer into the same inbox as user
// commands, so a timer fire and a command can never interleave.
type phaseExpired struct{ gen uint64 }

func (Join) isRoomMsg()         {}
func (Leave) isRoomMsg()        {}
func (Detach) isRoomMsg()       {}
func (ChangeTeam) isRoomMsg()   {}
func (ChangeRole) isRoomMsg()   {}
func (FromClient) isRoomMsg()   {}
func (PostMessage) isRoomMsg()  {}
func (GetView) isRoomMsg()      {}
func (Shutdown) isRoomMsg()     {}
func (phaseExpired) isRoomMsg() {}

type User struct {
	Identity  string    `json:"userToken"`
	Name      string    `json:"username"`
	Team      game.Team `json:"team"`
	Role      game.Role `json:"role"`
	IsOwner   bool      `json:"isOwner"`
	Connected bool      `json:"connected"`
	ConnID    string    `json:"-"`
}

type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notice is the chat-style transcript entry for a guess attempt.
type Notice struct {
	Username string    `json:"username"`
	Team     game.Team `json:"team"`
	Word     string    `json:"word"`
	Correct  bool      `json:"correct"`
}

// Snapshot is what subscribers receive: the room's full state at the moment
// the triggering command finished applying.
type Snapshot struct {
	Event          string     `json:"event"`
	Version        int        `json:"version"`
	Code           string     `json:"code"`
	Users          []User     `json:"users"`
	State          game.State `json:"state"`
	PhaseRemaining int        `json:"phaseRemaining"`
	Notice         *Notice    `json:"notice,omitempty"`
	Chat           *Message   `json:"chat,omitempty"`
}

// View is the test-only reflection of actor internals.
type View struct {
	Version    int
	NumClients int
	Users      []User
	State      game.State
}
