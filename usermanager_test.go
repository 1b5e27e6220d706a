package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserManagerInsert(t *testing.T) {
	m := NewUserManager()

	u, err := m.Insert("alice", "alice", "Alice", "host.example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Nick())
	assert.Equal(t, "alice!alice@host.example.com", u.Fullname())
	assert.Same(t, u, m.ByID(u.ID))
	assert.Same(t, u, m.ByNick("alice"))
	assert.Equal(t, 1, m.Count())

	id, ok := m.IDOfNick("ALICE")
	assert.True(t, ok)
	assert.Equal(t, u.ID, id)
}

func TestUserManagerInsertRejectsIncomplete(t *testing.T) {
	m := NewUserManager()

	_, err := m.Insert("", "alice", "Alice", "host", nil)
	assert.Error(t, err)
	_, err = m.Insert("alice", "", "Alice", "host", nil)
	assert.Error(t, err)
	_, err = m.Insert("alice", "alice", "", "host", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestUserManagerInsertCollision(t *testing.T) {
	m := NewUserManager()

	_, err := m.Insert("nick[a]", "u1", "One", "host", nil)
	require.NoError(t, err)

	// Folded-equal nicks collide: [ ~ {, case-insensitive.
	_, err = m.Insert("NICK{a}", "u2", "Two", "host", nil)
	assert.ErrorIs(t, err, ErrNickInUse)
	assert.Equal(t, 1, m.Count())
}

func TestUserManagerRename(t *testing.T) {
	m := NewUserManager()

	alice, err := m.Insert("alice", "alice", "Alice", "host", nil)
	require.NoError(t, err)
	bob, err := m.Insert("bob", "bob", "Bob", "host", nil)
	require.NoError(t, err)

	// Taken by another user.
	assert.False(t, m.Rename(alice.ID, "BOB"))
	assert.Equal(t, "alice", alice.Nick())

	// Case change of one's own nick is allowed.
	assert.True(t, m.Rename(alice.ID, "Alice"))
	assert.Equal(t, "Alice", alice.Nick())
	assert.Same(t, alice, m.ByNick("alice"))

	assert.True(t, m.Rename(alice.ID, "alyce"))
	assert.Equal(t, "alyce", alice.Nick())
	assert.Nil(t, m.ByNick("alice"))
	assert.Same(t, alice, m.ByNick("alyce"))
	assert.Same(t, bob, m.ByNick("bob"))
}

func TestUserManagerDestroy(t *testing.T) {
	m := NewUserManager()

	alice, err := m.Insert("alice", "alice", "Alice", "host", nil)
	require.NoError(t, err)

	m.Destroy(alice.ID)
	assert.Nil(t, m.ByID(alice.ID))
	assert.Nil(t, m.ByNick("alice"))
	assert.True(t, m.IsEmpty())

	// The nick is free again.
	_, err = m.Insert("alice", "alice2", "Alice II", "host", nil)
	assert.NoError(t, err)
}

func TestUserManagerMatchingMask(t *testing.T) {
	m := NewUserManager()

	for _, nick := range []string{"alice", "alyce", "bob"} {
		_, err := m.Insert(nick, nick, nick, "host", nil)
		require.NoError(t, err)
	}

	nickOf := func(u *User) string { return u.Nick() }

	assert.Len(t, m.MatchingMask("al?ce", nickOf), 2)
	assert.Len(t, m.MatchingMask("*", nickOf), 3)
	assert.Len(t, m.MatchingMask("bob", nickOf), 1)
	assert.Len(t, m.MatchingMask("carol", nickOf), 0)
}
