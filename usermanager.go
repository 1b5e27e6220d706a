package main

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNickInUse is returned by Insert and reported by Rename when the
// folded nickname is already taken.
var ErrNickInUse = errors.New("nickname is already in use")

// UserManager is the user registry: the authoritative owner of every live
// user, with a folded-nickname index. The nick index and the primary map
// are only ever updated together under the write lock, so no observer sees
// a nick mapped to a missing user.
type UserManager struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
	nicks map[string]uuid.UUID
}

// NewUserManager returns an empty registry.
func NewUserManager() *UserManager {
	return &UserManager{
		users: make(map[uuid.UUID]*User),
		nicks: make(map[string]uuid.UUID),
	}
}

// Insert registers a new user. Nick, username, and real name must all be
// present; the folded nick must be free.
func (m *UserManager) Insert(nick, username, realName, hostname string,
	conn *Conn) (*User, error) {
	if nick == "" || username == "" || realName == "" {
		return nil, errors.New("incomplete registration")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	folded := labelToLower(nick)
	if _, taken := m.nicks[folded]; taken {
		return nil, ErrNickInUse
	}

	u := NewUser(uuid.New(), nick, username, realName, hostname, conn)
	m.users[u.ID] = u
	m.nicks[folded] = u.ID
	return u, nil
}

// ByID looks a user up by identifier.
func (m *UserManager) ByID(id uuid.UUID) *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ByNick looks a user up by nickname, case-folded.
func (m *UserManager) ByNick(nick string) *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.nicks[labelToLower(nick)]
	if !ok {
		return nil
	}
	return m.users[id]
}

// IDOfNick returns the identifier registered for the nickname.
func (m *UserManager) IDOfNick(nick string) (uuid.UUID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.nicks[labelToLower(nick)]
	return id, ok
}

// Rename atomically points the nick index from the user's old nick to the
// new one. It reports false when the folded new nick is taken by another
// user.
func (m *UserManager) Rename(id uuid.UUID, newNick string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return false
	}

	folded := labelToLower(newNick)
	if owner, taken := m.nicks[folded]; taken && owner != id {
		return false
	}

	delete(m.nicks, labelToLower(u.Nick()))
	m.nicks[folded] = id
	u.setNick(newNick)
	return true
}

// Destroy removes the user from the registry. The caller must have
// disconnected and advertised the departure first.
func (m *UserManager) Destroy(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return
	}
	delete(m.nicks, labelToLower(u.Nick()))
	delete(m.users, id)
}

// ForEach calls fn for every live user.
func (m *UserManager) ForEach(fn func(u *User)) {
	m.mu.RLock()
	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	m.mu.RUnlock()

	for _, u := range users {
		fn(u)
	}
}

// MatchingMask returns the users whose selected field matches the glob
// mask.
func (m *UserManager) MatchingMask(mask string,
	field func(u *User) string) []*User {
	var out []*User
	m.ForEach(func(u *User) {
		if matchesMask(field(u), mask) {
			out = append(out, u)
		}
	})
	return out
}

// Count returns the number of live users.
func (m *UserManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// IsEmpty reports whether no users remain. The recycler's shutdown drain
// ends on it.
func (m *UserManager) IsEmpty() bool {
	return m.Count() == 0
}
