// Package session holds the authenticated-visitor state machine: a snapshot
// of "who is the current visitor" kept in sync with the identity gateway.
package session

import (
	"context"
	"sync"
	"time"
)

// AdminRole is the role value that grants back-office access.
const AdminRole = "admin"

// Session is the live proof of an authenticated visitor.
type Session struct {
	UserID    uint
	Email     string
	Role      string
	Token     string // opaque credential, owned by the gateway
	ExpiresAt time.Time
}

// State is an immutable snapshot of the store.
type State struct {
	Loading bool
	Session *Session
	Admin   bool
}

// User returns the session owner's ID, or 0 when signed out.
func (s State) User() uint {
	if s.Session == nil {
		return 0
	}
	return s.Session.UserID
}

// Event is a gateway-pushed session change. A nil Session means signed out.
// Seq orders events; a stale event never overwrites a newer one.
type Event struct {
	Seq     uint64
	Session *Session
}

// Gateway is the identity provider the store follows.
type Gateway interface {
	// CurrentSession returns the active session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)
	// SessionChanges registers a change handler and returns an unsubscribe
	// function. The handler may be called from any goroutine.
	SessionChanges(handler func(Event)) (unsubscribe func())
}

// Store is the single source of truth for the current visitor. It starts in
// loading state, resolves the initial session from the gateway, then applies
// gateway events with last-write-wins ordering until Close.
type Store struct {
	mu          sync.Mutex
	state       State
	lastSeq     uint64
	subs        map[int]chan State
	nextSubID   int
	unsubscribe func()
	closed      bool
}

// NewStore builds a store bound to the gateway and resolves the initial
// session. The loading flag clears once resolution finishes, even when the
// gateway errors; the error is returned for the caller to surface.
func NewStore(ctx context.Context, gw Gateway) (*Store, error) {
	s := &Store{
		state: State{Loading: true},
		subs:  make(map[int]chan State),
	}

	// Subscribe before the initial query so no event is lost in between.
	s.unsubscribe = gw.SessionChanges(s.Apply)

	sess, err := gw.CurrentSession(ctx)

	s.mu.Lock()
	if s.state.Loading {
		// An event may have raced ahead and already resolved the state;
		// in that case the event wins and the initial query result is stale.
		s.state = State{
			Loading: false,
			Session: sess,
			Admin:   isAdmin(sess),
		}
	}
	snap := s.state
	s.mu.Unlock()

	s.notify(snap)
	return s, err
}

// Apply replaces the stored session with the event's. Events older than the
// last applied one are dropped, so the newest write always wins regardless
// of delivery order.
func (s *Store) Apply(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if e.Seq != 0 && e.Seq < s.lastSeq {
		s.mu.Unlock()
		return
	}
	if e.Seq > s.lastSeq {
		s.lastSeq = e.Seq
	}
	s.state = State{
		Loading: false,
		Session: e.Session,
		Admin:   isAdmin(e.Session),
	}
	snap := s.state
	s.mu.Unlock()

	s.notify(snap)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a channel receiving state snapshots after every change,
// plus a cancel function. Slow receivers drop snapshots rather than block.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan State, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			close(sub)
			delete(s.subs, id)
		}
	}
	return ch, cancel
}

// Close detaches the store from the gateway and closes all subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubscribe
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Store) notify(snap State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func isAdmin(sess *Session) bool {
	return sess != nil && sess.Role == AdminRole
}
