package room

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RLGADM/Kenshou-beta-3/internal/game"
	"github.com/RLGADM/Kenshou-beta-3/internal/ident"
)

const chatBacklog = 100

// Room is a single game session running as its own actor: one goroutine owns
// all mutable state and drains the inbox, so every command is atomic with
// respect to the others.
type Room struct {
	code     string
	inbox    chan Msg
	users    []*User
	subs     map[string]chan Snapshot // keyed by connection id
	chat     []Message
	state    game.State
	version  int
	timerGen uint64
	timer    *time.Timer
	deadline time.Time
	onEmpty  func(code string)
	ids      ident.Generator
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New starts the actor with its creating user already joined as owner.
// Ownership is orthogonal to team assignment: the owner starts out as a
// spectator like everyone else. onEmpty is invoked (from the actor goroutine)
// the moment the last user leaves.
func New(parent context.Context, code string, params game.Parameters, owner User, outbox chan Snapshot, onEmpty func(string), ids ident.Generator, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	owner.Team = game.TeamSpectator
	owner.Role = game.RoleSpectator
	owner.IsOwner = true

	r := &Room{
		code:    code,
		inbox:   make(chan Msg, 64),
		users:   []*User{&owner},
		subs:    map[string]chan Snapshot{owner.ConnID: outbox},
		state:   game.NewState(params),
		onEmpty: onEmpty,
		ids:     ids,
		log:     log.With(zap.String("room", code)),
		ctx:     ctx,
		cancel:  cancel,
	}
	r.send(outbox, r.snapshot("roomCreated"))

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }
func (r *Room) Code() string      { return r.code }

// Send delivers a message unless the room has already stopped. Needed by the
// registry, which may fan out to a room racing its own removal.
func (r *Room) Send(m Msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.stop()
			return
		case m := <-r.inbox:
			if stop := r.handle(m); stop {
				r.stop()
				return
			}
		}
	}
}

func (r *Room) handle(m Msg) bool {
	switch msg := m.(type) {
	case Join:
		r.handleJoin(msg)

	case Leave:
		if !r.removeUser(msg.Identity) {
			break
		}
		if len(r.users) == 0 {
			r.log.Info("room empty, removing")
			if r.onEmpty != nil {
				r.onEmpty(r.code)
			}
			return true
		}
		r.broadcast("usersUpdate")

	case Detach:
		if ch, ok := r.subs[msg.ConnID]; ok {
			close(ch)
			delete(r.subs, msg.ConnID)
		}
		if u := r.findUser(msg.Identity); u != nil && u.ConnID == msg.ConnID {
			u.ConnID = ""
			r.broadcast("usersUpdate")
		}

	case ChangeTeam:
		msg.Reply <- r.changeTeam(msg.Identity, msg.Team)

	case ChangeRole:
		msg.Reply <- r.changeRole(msg.Identity, msg.Role)

	case FromClient:
		msg.Reply <- r.applyCommand(msg.Identity, msg.Cmd)

	case PostMessage:
		u := r.findUser(msg.Identity)
		text := strings.TrimSpace(msg.Text)
		if u == nil || text == "" {
			break
		}
		entry := Message{ID: r.ids.NewID(), Username: u.Name, Text: text, Timestamp: time.Now()}
		r.chat = append(r.chat, entry)
		if len(r.chat) > chatBacklog {
			r.chat = r.chat[len(r.chat)-chatBacklog:]
		}
		r.version++
		snap := r.snapshot("chatMessage")
		snap.Chat = &entry
		r.fanout(snap)

	case phaseExpired:
		if msg.gen != r.timerGen {
			break // superseded by a user command or pause
		}
		events, next, err := game.Apply(r.state, game.Command{Type: game.CmdAdvancePhase})
		if err != nil {
			r.log.Warn("phase timer fired in invalid state", zap.Error(err))
			break
		}
		r.state = next
		r.version++
		r.reactTo(events)
		r.broadcastGame(events, "")

	case GetView:
		msg.Reply <- View{
			Version:    r.version,
			NumClients: len(r.subs),
			Users:      r.usersView(),
			State:      r.state,
		}

	case Shutdown:
		return true
	}
	return false
}

func (r *Room) handleJoin(msg Join) {
	if u := r.findUser(msg.Identity); u != nil {
		// Same identity rejoining is a reconnection, never a duplicate.
		if ch, ok := r.subs[u.ConnID]; ok {
			close(ch)
			delete(r.subs, u.ConnID)
		}
		u.ConnID = msg.ConnID
		r.subs[msg.ConnID] = msg.Outbox
		msg.Reply <- JoinResult{Reconnected: true}
		r.send(msg.Outbox, r.snapshot("roomJoined"))
		r.broadcast("usersUpdate")
		r.log.Info("user reconnected", zap.String("user", u.Name))
		return
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		msg.Reply <- JoinResult{Err: ErrEmptyName}
		return
	}
	if r.nameTaken(name) {
		msg.Reply <- JoinResult{Err: ErrNameTaken}
		return
	}

	u := &User{
		Identity: msg.Identity,
		Name:     name,
		Team:     game.TeamSpectator,
		Role:     game.RoleSpectator,
		ConnID:   msg.ConnID,
	}
	r.users = append(r.users, u)
	r.subs[msg.ConnID] = msg.Outbox
	msg.Reply <- JoinResult{}
	r.send(msg.Outbox, r.snapshot("roomJoined"))
	r.broadcast("usersUpdate")
	r.log.Info("user joined", zap.String("user", name))
}

func (r *Room) changeTeam(identity string, team game.Team) error {
	u := r.findUser(identity)
	if u == nil {
		return ErrNotMember
	}
	if r.state.IsPlaying {
		return ErrPolicyRejected
	}
	if u.Team == team {
		return nil
	}
	u.Team = team
	if team == game.TeamSpectator {
		u.Role = game.RoleSpectator
	} else {
		// Joining a team never promotes to sage; that takes an explicit
		// role request.
		u.Role = game.RoleDisciple
	}
	r.version++
	r.broadcast("usersUpdate")
	return nil
}

func (r *Room) changeRole(identity string, role game.Role) error {
	u := r.findUser(identity)
	if u == nil {
		return ErrNotMember
	}
	if r.state.IsPlaying {
		return ErrPolicyRejected
	}
	switch role {
	case game.RoleSage:
		if !u.Team.Playing() {
			return ErrPolicyRejected
		}
		if r.teamHasSage(u.Team, u.Identity) {
			r.log.Warn("sage request rejected, team already has one",
				zap.String("user", u.Name), zap.String("team", string(u.Team)))
			return ErrPolicyRejected
		}
	case game.RoleDisciple:
		if !u.Team.Playing() {
			return ErrPolicyRejected
		}
	case game.RoleSpectator:
		if u.Team != game.TeamSpectator {
			return ErrPolicyRejected
		}
	default:
		return ErrPolicyRejected
	}
	u.Role = role
	r.version++
	r.broadcast("usersUpdate")
	return nil
}

func (r *Room) applyCommand(identity string, cmd game.Command) error {
	u := r.findUser(identity)
	if u == nil {
		return ErrNotMember
	}

	switch cmd.Type {
	case game.CmdStartGame, game.CmdPauseGame, game.CmdResumeGame, game.CmdResetGame:
		if !u.IsOwner {
			return ErrNotOwner
		}
	default:
		// Team-scoped commands act for the sender's own team.
		cmd.Team = u.Team
	}

	events, next, err := game.Apply(r.state, cmd)
	if err != nil {
		return err
	}
	r.state = next
	r.version++
	r.reactTo(events)
	r.broadcastGame(events, u.Name)
	return nil
}

// reactTo arms or clears the phase timer according to what just happened.
func (r *Room) reactTo(events []game.Event) {
	for _, e := range events {
		switch e.Type {
		case game.EvtGameStarted, game.EvtGameResumed, game.EvtPhaseAdvanced:
			r.armTimer()
		case game.EvtGamePaused, game.EvtGameWon, game.EvtGameReset:
			r.stopTimer()
		}
	}
}

// broadcastGame emits guess notices first, then the state update, so the
// transcript entry is never ahead of the state it describes on the wire.
func (r *Room) broadcastGame(events []game.Event, sender string) {
	for _, e := range events {
		if e.Type != game.EvtGuessAttempted {
			continue
		}
		snap := r.snapshot("guessAttempted")
		snap.Notice = &Notice{Username: sender, Team: e.Team, Word: e.Word, Correct: e.Correct}
		r.fanout(snap)
	}
	r.broadcast("gameStateUpdate")
}

func (r *Room) armTimer() {
	r.stopTimer()
	d := r.state.Params.PhaseDuration(r.state.Round.Phase.Index)
	if d <= 0 || !r.state.IsPlaying {
		return
	}
	r.deadline = time.Now().Add(d)
	gen := r.timerGen
	r.timer = time.AfterFunc(d, func() {
		select {
		case r.inbox <- phaseExpired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopTimer() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.deadline = time.Time{}
}

func (r *Room) stop() {
	r.stopTimer()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.cancel()
}

func (r *Room) broadcast(event string) {
	r.fanout(r.snapshot(event))
}

func (r *Room) fanout(snap Snapshot) {
	for id, ch := range r.subs {
		select {
		case ch <- snap:
		default:
			// Slow or dead subscriber: drop it rather than stall the room.
			close(ch)
			delete(r.subs, id)
		}
	}
}

func (r *Room) send(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
	}
}

func (r *Room) snapshot(event string) Snapshot {
	remaining := 0
	if !r.deadline.IsZero() {
		if d := time.Until(r.deadline); d > 0 {
			remaining = int(d.Round(time.Second) / time.Second)
		}
	}
	return Snapshot{
		Event:          event,
		Version:        r.version,
		Code:           r.code,
		Users:          r.usersView(),
		State:          r.state,
		PhaseRemaining: remaining,
	}
}

func (r *Room) usersView() []User {
	out := make([]User, len(r.users))
	for i, u := range r.users {
		out[i] = *u
		out[i].Connected = u.ConnID != ""
	}
	return out
}

func (r *Room) findUser(identity string) *User {
	for _, u := range r.users {
		if u.Identity == identity {
			return u
		}
	}
	return nil
}

func (r *Room) removeUser(identity string) bool {
	for i, u := range r.users {
		if u.Identity != identity {
			continue
		}
		if u.ConnID != "" {
			if ch, ok := r.subs[u.ConnID]; ok {
				close(ch)
				delete(r.subs, u.ConnID)
			}
		}
		r.users = append(r.users[:i], r.users[i+1:]...)
		r.version++
		r.log.Info("user removed", zap.String("user", u.Name))
		return true
	}
	return false
}

func (r *Room) nameTaken(name string) bool {
	for _, u := range r.users {
		if strings.EqualFold(u.Name, name) {
			return true
		}
	}
	return false
}

func (r *Room) teamHasSage(team game.Team, exceptIdentity string) bool {
	for _, u := range r.users {
		if u.Team == team && u.Role == game.RoleSage && u.Identity != exceptIdentity {
			return true
		}
	}
	return false
}
