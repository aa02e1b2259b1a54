package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/RLGADM/Kenshou-beta-3/internal/game"
	"github.com/RLGADM/Kenshou-beta-3/internal/ident"
	"github.com/RLGADM/Kenshou-beta-3/internal/presence"
	"github.com/RLGADM/Kenshou-beta-3/internal/registry"
	"github.com/RLGADM/Kenshou-beta-3/internal/room"
	"github.com/RLGADM/Kenshou-beta-3/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	replyTimeout = 5 * time.Second
	outboxSize   = 16
)

// Handler upgrades to a websocket and runs the command loop for one client.
// The identity token rides in as connection-time metadata (?token=...); a
// client without one runs degraded, keyed by its ephemeral connection id, and
// gets no reconnect correlation.
func Handler(reg *registry.Registry, tracker *presence.Tracker, gen ident.Generator, origins []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		connID := gen.NewID()
		identity := token
		if identity == "" {
			identity = connID
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		s := &session{
			ctx:      r.Context(),
			conn:     conn,
			reg:      reg,
			identity: identity,
			connID:   connID,
			log:      log.With(zap.String("conn", connID)),
		}

		tracker.Register(identity, connID, func() {
			conn.Close(websocket.StatusPolicyViolation, "superseded by newer connection")
		})
		defer func() {
			tracker.Disconnect(connID)
			if s.current != nil {
				s.current.Send(room.Detach{Identity: identity, ConnID: connID})
			}
		}()

		for {
			_, data, err := conn.Read(s.ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					s.log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				s.writeError("bad json")
				continue
			}
			s.dispatch(cm)
		}
	}
}

type session struct {
	ctx      context.Context
	conn     *websocket.Conn
	reg      *registry.Registry
	identity string
	connID   string
	current  *room.Room
	log      *zap.Logger
}

func (s *session) dispatch(cm types.ClientMessage) {
	switch cm.Type {
	case "createRoom":
		s.createRoom(cm)
	case "joinRoom":
		s.joinRoom(cm)
	case "leaveRoom":
		if rm := s.lookup(cm.RoomCode); rm != nil {
			rm.Send(room.Leave{Identity: s.identity})
		}
		s.current = nil
	case "changeTeam":
		team, ok := parseTeam(cm.Team)
		if !ok {
			s.writeError("unknown team")
			return
		}
		rm := s.lookup(cm.RoomCode)
		if rm == nil {
			return
		}
		reply := make(chan error, 1)
		rm.Send(room.ChangeTeam{Identity: s.identity, Team: team, Reply: reply})
		s.replyError(reply)
	case "changeRole":
		role, ok := parseRole(cm.Role)
		if !ok {
			s.writeError("unknown role")
			return
		}
		rm := s.lookup(cm.RoomCode)
		if rm == nil {
			return
		}
		reply := make(chan error, 1)
		rm.Send(room.ChangeRole{Identity: s.identity, Role: role, Reply: reply})
		s.replyError(reply)
	case "chatMessage":
		if rm := s.lookup(cm.RoomCode); rm != nil {
			rm.Send(room.PostMessage{Identity: s.identity, Text: cm.Text})
		}
	default:
		cmd, ok := toGameCommand(cm)
		if !ok {
			s.writeError("unknown type")
			return
		}
		rm := s.lookup(cm.RoomCode)
		if rm == nil {
			return
		}
		reply := make(chan error, 1)
		rm.Send(room.FromClient{Identity: s.identity, Cmd: cmd, Reply: reply})
		s.replyError(reply)
	}
}

func (s *session) createRoom(cm types.ClientMessage) {
	params := game.DefaultParameters()
	if cm.Parameters != nil {
		params = *cm.Parameters
	}

	out := make(chan room.Snapshot, outboxSize)
	reply := make(chan registry.CreateResult, 1)
	s.reg.Send(registry.CreateRoom{
		Name:     cm.Username,
		Params:   params,
		Identity: s.identity,
		ConnID:   s.connID,
		Outbox:   out,
		Reply:    reply,
	})
	res, ok := await(s.ctx, reply)
	if !ok {
		return
	}
	if res.Err != nil {
		s.write(types.ServerMessage{Type: "ack", Success: false, Error: res.Err.Error()})
		return
	}
	s.detachFrom(res.Room)
	s.current = res.Room
	s.startWriter(out)
	s.write(types.ServerMessage{Type: "ack", Success: true, RoomCode: res.Code})
}

func (s *session) joinRoom(cm types.ClientMessage) {
	rm := s.lookup(cm.RoomCode)
	if rm == nil {
		return
	}

	out := make(chan room.Snapshot, outboxSize)
	reply := make(chan room.JoinResult, 1)
	rm.Send(room.Join{
		Identity: s.identity,
		Name:     cm.Username,
		ConnID:   s.connID,
		Outbox:   out,
		Reply:    reply,
	})
	res, ok := await(s.ctx, reply)
	if !ok {
		return
	}
	switch res.Err {
	case nil:
		s.detachFrom(rm)
		s.current = rm
		s.startWriter(out)
		s.write(types.ServerMessage{Type: "ack", Success: true, Reconnected: res.Reconnected, RoomCode: cm.RoomCode})
	case room.ErrNameTaken:
		s.write(types.ServerMessage{Type: "usernameTaken"})
		s.write(types.ServerMessage{Type: "ack", Success: false, Error: res.Err.Error()})
	default:
		s.write(types.ServerMessage{Type: "ack", Success: false, Error: res.Err.Error()})
	}
}

// detachFrom releases the previous room's subscription when the session moves
// to another room, so its writer goroutine ends and the old room shows the
// user as disconnected instead of keeping a dead outbox around.
func (s *session) detachFrom(next *room.Room) {
	if s.current == nil || s.current == next {
		return
	}
	s.current.Send(room.Detach{Identity: s.identity, ConnID: s.connID})
}

// lookup resolves a room code, reporting roomNotFound to the client when it
// is stale or unknown. A command racing the room's deletion lands here too.
func (s *session) lookup(code string) *room.Room {
	code = strings.ToUpper(strings.TrimSpace(code))
	reply := make(chan *room.Room, 1)
	if !s.reg.Send(registry.GetRoom{Code: code, Reply: reply}) {
		return nil
	}
	rm, ok := await(s.ctx, reply)
	if !ok {
		return nil
	}
	if rm == nil {
		s.write(types.ServerMessage{Type: "roomNotFound", RoomCode: code})
		return nil
	}
	return rm
}

// startWriter pumps room snapshots to the socket until the room closes the
// outbox (leave, shutdown, or slow-client drop).
func (s *session) startWriter(out chan room.Snapshot) {
	go func() {
		for snap := range out {
			s.write(types.FromSnapshot(snap))
		}
	}()
}

func (s *session) write(msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal server message", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
	defer cancel()
	_ = s.conn.Write(ctx, websocket.MessageText, payload)
}

func (s *session) writeError(reason string) {
	s.write(types.ServerMessage{Type: "error", Error: reason})
}

// replyError surfaces a command rejection as a transient notice; successes
// are visible through the broadcast that follows them.
func (s *session) replyError(reply chan error) {
	if err, ok := await(s.ctx, reply); ok && err != nil {
		s.writeError(err.Error())
	}
}

func await[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var zero T
	select {
	case v := <-ch:
		return v, true
	case <-ctx.Done():
		return zero, false
	case <-time.After(replyTimeout):
		return zero, false
	}
}

func toGameCommand(cm types.ClientMessage) (game.Command, bool) {
	switch cm.Type {
	case "startGame":
		return game.Command{Type: game.CmdStartGame}, true
	case "pauseGame":
		return game.Command{Type: game.CmdPauseGame}, true
	case "resumeGame":
		return game.Command{Type: game.CmdResumeGame}, true
	case "resetGame", "resetRoom":
		return game.Command{Type: game.CmdResetGame}, true
	case "setWord":
		return game.Command{Type: game.CmdSetWord, Word: cm.Word}, true
	case "requestReroll":
		return game.Command{Type: game.CmdRequestReroll}, true
	case "addForbiddenWord":
		return game.Command{Type: game.CmdAddForbiddenWord, Word: cm.Word}, true
	case "removeForbiddenWord":
		return game.Command{Type: game.CmdRemoveForbiddenWord, Index: cm.Index}, true
	case "submitGuess":
		return game.Command{Type: game.CmdSubmitGuess, Word: cm.Word}, true
	default:
		return game.Command{}, false
	}
}

func parseTeam(team string) (game.Team, bool) {
	switch team {
	case "red":
		return game.TeamRed, true
	case "blue":
		return game.TeamBlue, true
	case "spectator":
		return game.TeamSpectator, true
	default:
		return "", false
	}
}

func parseRole(role string) (game.Role, bool) {
	switch role {
	case "sage":
		return game.RoleSage, true
	case "disciple":
		return game.RoleDisciple, true
	case "spectator":
		return game.RoleSpectator, true
	default:
		return "", false
	}
}
