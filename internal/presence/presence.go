package presence

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultGracePeriod is how long a disconnected user keeps their room
// membership while waiting for a reconnect.
const DefaultGracePeriod = 60 * time.Second

type binding struct {
	connID string
	closer func()
}

// Tracker correlates durable identity tokens with ephemeral transport
// connections. It force-closes ghost connections (an old socket superseded by
// a new one bearing the same token) and runs the grace-period timers that
// decide when a disconnected user is truly gone.
//
// The tracker is its own small lock domain; expiry callbacks re-enter room
// state through the registry inbox, never directly.
type Tracker struct {
	mu     sync.Mutex
	grace  time.Duration
	conns  map[string]binding     // identity -> live connection
	byConn map[string]string      // connection id -> identity
	timers map[string]*time.Timer // identity -> pending grace timer
	remove func(identity string)  // invoked when a grace timer expires
	closed bool
	log    *zap.Logger
}

func NewTracker(grace time.Duration, remove func(identity string), log *zap.Logger) *Tracker {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Tracker{
		grace:  grace,
		conns:  make(map[string]binding),
		byConn: make(map[string]string),
		timers: make(map[string]*time.Timer),
		remove: remove,
		log:    log,
	}
}

// Register binds an identity to its current connection. A previous live
// connection for the same identity is force-closed first, and any pending
// grace timer is cancelled, so a fresh connection can never inherit a stale
// removal.
func (t *Tracker) Register(identity, connID string, closer func()) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	var ghost func()
	if old, ok := t.conns[identity]; ok && old.connID != connID {
		ghost = old.closer
		delete(t.byConn, old.connID)
		t.log.Info("ghost connection superseded",
			zap.String("identity", identity), zap.String("old", old.connID))
	}
	t.cancelLocked(identity)
	t.conns[identity] = binding{connID: connID, closer: closer}
	t.byConn[connID] = identity
	t.mu.Unlock()

	if ghost != nil {
		ghost()
	}
}

// Disconnect starts the grace period for the connection's identity. A
// disconnect for a connection that was already superseded is ignored, so it
// can never arm a timer against the replacement.
func (t *Tracker) Disconnect(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	identity, ok := t.byConn[connID]
	if !ok {
		return
	}
	if cur, ok := t.conns[identity]; !ok || cur.connID != connID {
		return
	}
	delete(t.byConn, connID)
	delete(t.conns, identity)

	t.cancelLocked(identity)
	t.timers[identity] = time.AfterFunc(t.grace, func() { t.expire(identity) })
	t.log.Info("grace period started", zap.String("identity", identity), zap.Duration("grace", t.grace))
}

// CancelGrace clears any pending grace timer for the identity. Cancelling a
// timer that already fired or never existed is a no-op.
func (t *Tracker) CancelGrace(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(identity)
}

func (t *Tracker) cancelLocked(identity string) {
	if timer, ok := t.timers[identity]; ok {
		timer.Stop()
		delete(t.timers, identity)
	}
}

func (t *Tracker) expire(identity string) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if _, ok := t.timers[identity]; !ok {
		// Cancelled between fire and lock acquisition.
		t.mu.Unlock()
		return
	}
	delete(t.timers, identity)
	t.mu.Unlock()

	t.log.Info("grace period expired, removing user", zap.String("identity", identity))
	t.remove(identity)
}

// Shutdown cancels every pending timer and rejects further use.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for identity, timer := range t.timers {
		timer.Stop()
		delete(t.timers, identity)
	}
	clear(t.conns)
	clear(t.byConn)
}
