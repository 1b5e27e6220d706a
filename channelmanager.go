package main

import (
	"sync"
)

// ChannelManager is the channel registry: folded name to channel.
// Channels are created lazily on first join and destroyed when the last
// member leaves.
type ChannelManager struct {
	mu    sync.RWMutex
	chans map[string]*Channel
}

// NewChannelManager returns an empty registry.
func NewChannelManager() *ChannelManager {
	return &ChannelManager{chans: make(map[string]*Channel)}
}

// Has reports whether the channel exists.
func (m *ChannelManager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.chans[labelToLower(name)]
	return ok
}

// Get returns the channel, or nil. The handle grants inner read/write
// access under the channel's own lock.
func (m *ChannelManager) Get(name string) *Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chans[labelToLower(name)]
}

// JoinOrCreate links the user into the channel, creating it when absent.
// It reports whether the channel was freshly created and whether the user
// actually joined (false on a repeat join).
func (m *ChannelManager) JoinOrCreate(u *User,
	name string) (c *Channel, created, joined bool) {
	folded := labelToLower(name)

	m.mu.Lock()
	c, ok := m.chans[folded]
	if !ok {
		c = newChannel(name)
		m.chans[folded] = c
		created = true
	}
	m.mu.Unlock()

	membership, joined := c.addMember(u)
	if joined {
		u.addMembership(folded, membership)
	}
	return c, created, joined
}

// DestroyIfEmpty removes the channel when it has no live members. Ghosts
// are purged first.
func (m *ChannelManager) DestroyIfEmpty(name string) bool {
	folded := labelToLower(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chans[folded]
	if !ok {
		return false
	}

	c.Cleanup()
	if c.MemberCount() > 0 {
		return false
	}
	delete(m.chans, folded)
	return true
}

// ForEach calls fn for every channel.
func (m *ChannelManager) ForEach(fn func(c *Channel)) {
	m.mu.RLock()
	chans := make([]*Channel, 0, len(m.chans))
	for _, c := range m.chans {
		chans = append(chans, c)
	}
	m.mu.RUnlock()

	for _, c := range chans {
		fn(c)
	}
}

// ForEachMatching calls fn for every channel whose name matches the glob
// mask.
func (m *ChannelManager) ForEachMatching(mask string, fn func(c *Channel)) {
	m.ForEach(func(c *Channel) {
		if matchesMask(c.Name(), mask) {
			fn(c)
		}
	})
}

// Count returns the number of channels.
func (m *ChannelManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chans)
}
