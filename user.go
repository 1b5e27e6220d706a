package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/horgh/metallircd/irc"
)

// sendQueueSize bounds a user's outbound queue. A client that cannot keep
// up gets killed rather than letting the queue grow without bound.
const sendQueueSize = 512

// User is one registered connection. The registry authoritatively owns it;
// channels hold only non-owning references.
//
// The outbound queue is multi-producer (any handler may enqueue) and
// single-consumer (only the worker currently holding the user's identifier
// drains it).
type User struct {
	ID uuid.UUID

	mu           sync.RWMutex
	nick         string
	username     string
	realName     string
	hostname     string
	modes        *ModeSet
	channels     map[string]*Membership
	awayMessage  string
	registeredAt time.Time

	queue chan irc.Message
	dead  atomic.Bool

	// socketMu guards the socket. Only the worker holding this user's
	// identifier may take it.
	socketMu sync.Mutex
	conn     *Conn
}

// Membership is the (user, channel) relation. The user's channel map owns
// it; the channel's member map holds a non-owning reference that may
// observe the relation severed.
type Membership struct {
	channel *Channel

	// Modes is guarded by the channel's lock.
	Modes *ModeSet

	severed atomic.Bool
}

// Severed reports whether the owning side of the relation is gone, making
// the channel's reference a ghost.
func (m *Membership) Severed() bool {
	return m.severed.Load()
}

func (m *Membership) sever() {
	m.severed.Store(true)
}

// Channel returns the channel this membership belongs to.
func (m *Membership) Channel() *Channel {
	return m.channel
}

// NewUser builds a registered user record. conn may be nil in tests that
// never touch the socket.
func NewUser(id uuid.UUID, nick, username, realName, hostname string,
	conn *Conn) *User {
	return &User{
		ID:           id,
		nick:         nick,
		username:     username,
		realName:     realName,
		hostname:     hostname,
		modes:        newUserModeSet(),
		channels:     make(map[string]*Membership),
		registeredAt: time.Now(),
		queue:        make(chan irc.Message, sendQueueSize),
		conn:         conn,
	}
}

// Nick returns the user's current nickname.
func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick
}

// setNick is called only by the registry's rename path.
func (u *User) setNick(nick string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick = nick
}

// Username returns the username given at registration.
func (u *User) Username() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.username
}

// RealName returns the real name given at registration.
func (u *User) RealName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.realName
}

// Hostname returns the hostname observed at accept time.
func (u *User) Hostname() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.hostname
}

// Fullname returns nick!username@hostname, the prefix on user-originated
// messages.
func (u *User) Fullname() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return fmt.Sprintf("%s!%s@%s", u.nick, u.username, u.hostname)
}

// RegisteredAt returns the registration time. WHOIS idle is derived from
// it.
func (u *User) RegisteredAt() time.Time {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.registeredAt
}

// HasMode reports whether the user mode flag is set.
func (u *User) HasMode(flag byte) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.modes.Contains(flag)
}

// SetMode sets a user mode flag.
func (u *User) SetMode(flag byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.modes.Insert(flag)
}

// UnsetMode clears a user mode flag.
func (u *User) UnsetMode(flag byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.modes.Remove(flag)
}

// RenderModes returns the user's mode string, e.g. "+io".
func (u *User) RenderModes() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.modes.Render()
}

// IsOperator reports whether the user holds the network operator mode.
func (u *User) IsOperator() bool {
	return u.HasMode(UserModeOperator)
}

// Away returns the away message and whether the user is away.
func (u *User) Away() (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.awayMessage, u.modes.Contains(UserModeAway)
}

// SetAway stores the away message and sets +a.
func (u *User) SetAway(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.awayMessage = message
	u.modes.Insert(UserModeAway)
}

// ClearAway clears the away state and removes +a.
func (u *User) ClearAway() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.awayMessage = ""
	u.modes.Remove(UserModeAway)
}

// Membership returns this user's membership in the channel with the given
// folded name, or nil.
func (u *User) Membership(foldedName string) *Membership {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.channels[foldedName]
}

// OnChannel reports whether the user is on the channel.
func (u *User) OnChannel(foldedName string) bool {
	return u.Membership(foldedName) != nil
}

// Memberships returns a snapshot of the user's memberships.
func (u *User) Memberships() []*Membership {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*Membership, 0, len(u.channels))
	for _, m := range u.channels {
		out = append(out, m)
	}
	return out
}

func (u *User) addMembership(foldedName string, m *Membership) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.channels[foldedName] = m
}

func (u *User) removeMembership(foldedName string) *Membership {
	u.mu.Lock()
	defer u.mu.Unlock()
	m := u.channels[foldedName]
	delete(u.channels, foldedName)
	return m
}

// Queue appends a message to the user's outbound queue. Delivery is FIFO,
// at most once per enqueue. If the queue is full the user is marked dead;
// the recycler will tear the connection down.
func (u *User) Queue(m irc.Message) {
	select {
	case u.queue <- m:
	default:
		u.markDead()
	}
}

// nextQueued pops the next outbound message without blocking.
func (u *User) nextQueued() (irc.Message, bool) {
	select {
	case m := <-u.queue:
		return m, true
	default:
		return irc.Message{}, false
	}
}

// markDead flags the user for teardown by the recycler. Idempotent.
func (u *User) markDead() {
	u.dead.Store(true)
}

// isDead reports whether the user awaits teardown.
func (u *User) isDead() bool {
	return u.dead.Load()
}

// sendToKnown enqueues the message on every user sharing at least one
// channel with u, each at most once. includeSelf additionally queues it to
// u.
func (u *User) sendToKnown(m irc.Message, includeSelf bool) {
	seen := make(map[uuid.UUID]struct{})
	if !includeSelf {
		seen[u.ID] = struct{}{}
	}

	for _, membership := range u.Memberships() {
		membership.Channel().ForEachMember(func(peer *User) {
			if _, ok := seen[peer.ID]; ok {
				return
			}
			seen[peer.ID] = struct{}{}
			peer.Queue(m)
		})
	}

	if includeSelf {
		if _, ok := seen[u.ID]; !ok {
			u.Queue(m)
		}
	}
}

// closeSocket closes the connection if one is attached.
func (u *User) closeSocket() {
	u.socketMu.Lock()
	defer u.socketMu.Unlock()
	if u.conn != nil {
		_ = u.conn.Close()
	}
}
