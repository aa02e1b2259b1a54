package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/RLGADM/Kenshou-beta-3/internal/game"
	"github.com/RLGADM/Kenshou-beta-3/internal/ident"
	"github.com/RLGADM/Kenshou-beta-3/internal/room"
)

var ErrEmptyName = errors.New("display name must not be empty")
var ErrRoomNotFound = errors.New("room not found")

type Msg interface{ isRegistryMsg() }

type CreateRoom struct {
	Name     string
	Params   game.Parameters
	Identity string
	ConnID   string
	Outbox   chan room.Snapshot
	Reply    chan CreateResult
}

type CreateResult struct {
	Room *room.Room
	Code string
	Err  error
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom is sent by a room's on-empty callback; no empty room survives
// the command that emptied it.
type RemoveRoom struct{ Code string }

// RemoveByIdentity fans a permanent removal out to every room; sent when a
// grace period expires with no reconnect.
type RemoveByIdentity struct{ Identity string }

type Shutdown struct{}

func (CreateRoom) isRegistryMsg()       {}
func (GetRoom) isRegistryMsg()          {}
func (RemoveRoom) isRegistryMsg()       {}
func (RemoveByIdentity) isRegistryMsg() {}
func (Shutdown) isRegistryMsg()         {}

// Registry owns the room map. Like each room it is an actor: one goroutine,
// one inbox, no locks.
type Registry struct {
	inbox  chan Msg
	rooms  map[string]*room.Room
	ids    ident.Generator
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, ids ident.Generator, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:  make(chan Msg, 64),
		rooms:  make(map[string]*room.Room),
		ids:    ids,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

// Send delivers a message unless the registry has shut down.
func (r *Registry) Send(m Msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return
		case m := <-r.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- r.createRoom(msg)

			case GetRoom:
				msg.Reply <- r.rooms[msg.Code]

			case RemoveRoom:
				delete(r.rooms, msg.Code)

			case RemoveByIdentity:
				for _, rm := range r.rooms {
					rm.Send(room.Leave{Identity: msg.Identity})
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) createRoom(msg CreateRoom) CreateResult {
	if strings.TrimSpace(msg.Name) == "" {
		return CreateResult{Err: ErrEmptyName}
	}

	code := r.uniqueCode()
	owner := room.User{Identity: msg.Identity, Name: strings.TrimSpace(msg.Name), ConnID: msg.ConnID}
	rm := room.New(r.ctx, code, msg.Params, owner, msg.Outbox, r.onEmpty, r.ids, r.log)
	r.rooms[code] = rm

	r.log.Info("room created", zap.String("room", code), zap.String("owner", owner.Name))
	return CreateResult{Room: rm, Code: code}
}

// onEmpty runs on the emptied room's goroutine; it re-enters through the
// inbox so the map stays single-writer.
func (r *Registry) onEmpty(code string) {
	select {
	case r.inbox <- RemoveRoom{Code: code}:
	case <-r.ctx.Done():
	}
}

func (r *Registry) shutdown() {
	for code, rm := range r.rooms {
		rm.Send(room.Shutdown{})
		delete(r.rooms, code)
	}
	r.cancel()
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// uniqueCode keeps drawing until the code is free among live rooms. A
// collision is close to impossible with 36^6 codes but still retried, never
// surfaced.
func (r *Registry) uniqueCode() string {
	for {
		code, err := generateCode()
		if err != nil {
			r.log.Error("code generation failed, retrying", zap.Error(err))
			continue
		}
		if _, taken := r.rooms[code]; !taken {
			return code
		}
		r.log.Warn("room code collision, regenerating", zap.String("code", code))
	}
}

func generateCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
