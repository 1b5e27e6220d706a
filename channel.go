package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/horgh/metallircd/irc"
)

// Channel is a named room. The channel registry authoritatively owns it.
// Its member map holds non-owning references to memberships owned by the
// users; a severed reference is a ghost and is purged by Cleanup.
type Channel struct {
	mu      sync.RWMutex
	name    string
	topic   string
	modes   *ModeSet
	key     string
	limit   int
	created int64
	members map[uuid.UUID]*memberRef
	invited map[uuid.UUID]struct{}
}

type memberRef struct {
	user       *User
	membership *Membership
}

func newChannel(name string) *Channel {
	return &Channel{
		name:    name,
		modes:   newChannelModeSet(),
		created: time.Now().Unix(),
		members: make(map[uuid.UUID]*memberRef),
		invited: make(map[uuid.UUID]struct{}),
	}
}

// Name returns the channel's display name, original case as first seen.
func (c *Channel) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Created returns the channel's creation time in Unix seconds.
func (c *Channel) Created() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.created
}

// Topic returns the topic, "" when unset.
func (c *Channel) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topic
}

// SetTopic replaces the topic.
func (c *Channel) SetTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
}

// HasMode reports whether the channel mode flag is set.
func (c *Channel) HasMode(flag byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modes.Contains(flag)
}

// SetMode sets a channel mode flag.
func (c *Channel) SetMode(flag byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modes.Insert(flag)
}

// UnsetMode clears a channel mode flag.
func (c *Channel) UnsetMode(flag byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modes.Remove(flag)
}

// RenderModes returns the channel's mode string, e.g. "+nst".
func (c *Channel) RenderModes() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modes.Render()
}

// Key returns the +k key, "" when unset.
func (c *Channel) Key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// SetKey stores the +k key.
func (c *Channel) SetKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
}

// Limit returns the +l member limit, 0 when unset.
func (c *Channel) Limit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limit
}

// SetLimit stores the +l member limit.
func (c *Channel) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
}

// Invite records an invitation for the user, letting them through +i once.
func (c *Channel) Invite(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invited[id] = struct{}{}
}

// consumeInvite reports and clears a pending invitation.
func (c *Channel) consumeInvite(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.invited[id]
	delete(c.invited, id)
	return ok
}

// MemberCount returns the number of live (non-ghost) members.
func (c *Channel) MemberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, ref := range c.members {
		if !ref.membership.Severed() {
			n++
		}
	}
	return n
}

// HasMember reports whether the user is a live member.
func (c *Channel) HasMember(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	return ok && !ref.membership.Severed()
}

// MembershipOf returns the user's membership, or nil.
func (c *Channel) MembershipOf(id uuid.UUID) *Membership {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	if !ok || ref.membership.Severed() {
		return nil
	}
	return ref.membership
}

// MemberModes returns the user's membership mode string under the channel
// lock, e.g. "+o".
func (c *Channel) MemberModes(id uuid.UUID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	if !ok {
		return ""
	}
	return ref.membership.Modes.Render()
}

// MemberHasMode reports whether the member holds the membership mode flag.
func (c *Channel) MemberHasMode(id uuid.UUID, flag byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	if !ok || ref.membership.Severed() {
		return false
	}
	return ref.membership.Modes.Contains(flag)
}

// MemberIsAtLeast reports whether the member's best membership mode ranks
// at or above the flag.
func (c *Channel) MemberIsAtLeast(id uuid.UUID, flag byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	if !ok || ref.membership.Severed() {
		return false
	}
	return ref.membership.Modes.IsAtLeast(flag)
}

// MemberPrefix returns the NAMES prefix ("@", "+", "") for the member.
func (c *Channel) MemberPrefix(id uuid.UUID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.members[id]
	if !ok {
		return ""
	}
	return memberPrefix(ref.membership.Modes)
}

// SetMemberMode sets or clears a membership mode flag for the member.
func (c *Channel) SetMemberMode(id uuid.UUID, flag byte, set bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.members[id]
	if !ok || ref.membership.Severed() {
		return false
	}
	if set {
		return ref.membership.Modes.Insert(flag)
	}
	return ref.membership.Modes.Remove(flag)
}

// addMember links a user into the channel and returns the new membership.
// Idempotent: a repeat join returns the existing membership.
func (c *Channel) addMember(u *User) (*Membership, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref, ok := c.members[u.ID]; ok && !ref.membership.Severed() {
		return ref.membership, false
	}

	m := &Membership{channel: c, Modes: newMemberModeSet()}
	c.members[u.ID] = &memberRef{user: u, membership: m}
	return m, true
}

// removeMember unlinks a user, severing the membership.
func (c *Channel) removeMember(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ref, ok := c.members[id]; ok {
		ref.membership.sever()
		delete(c.members, id)
	}
}

// Cleanup purges ghost member references left behind by destroyed users.
func (c *Channel) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ref := range c.members {
		if ref.membership.Severed() {
			delete(c.members, id)
		}
	}
}

// ForEachMember calls fn for every live member.
func (c *Channel) ForEachMember(fn func(u *User)) {
	c.mu.RLock()
	members := make([]*User, 0, len(c.members))
	for _, ref := range c.members {
		if !ref.membership.Severed() {
			members = append(members, ref.user)
		}
	}
	c.mu.RUnlock()

	for _, u := range members {
		fn(u)
	}
}

// SendTo enqueues the message on every live member's outbound queue,
// excluding at most one identifier.
func (c *Channel) SendTo(m irc.Message, except uuid.UUID) {
	c.ForEachMember(func(u *User) {
		if u.ID == except {
			return
		}
		u.Queue(m)
	})
}
