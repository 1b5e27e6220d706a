package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModeSetInsertRemove(t *testing.T) {
	s := newUserModeSet()

	assert.True(t, s.Empty())
	assert.Equal(t, "", s.Render())

	assert.True(t, s.Insert(UserModeInvisible))
	assert.True(t, s.Insert(UserModeOperator))
	assert.True(t, s.Contains(UserModeInvisible))
	assert.False(t, s.Contains(UserModeAway))
	assert.Equal(t, "+io", s.Render())

	assert.True(t, s.Remove(UserModeInvisible))
	assert.False(t, s.Contains(UserModeInvisible))
	assert.Equal(t, "+o", s.Render())
}

func TestModeSetRejectsUnknownLetters(t *testing.T) {
	s := newChannelModeSet()

	assert.False(t, s.Insert('z'))
	assert.False(t, s.Contains('z'))
	assert.False(t, s.Remove('z'))
	assert.True(t, s.Recognizes(ChanModeSecret))
	assert.False(t, s.Recognizes('z'))
}

func TestModeSetRenderRoundTrip(t *testing.T) {
	s := newChannelModeSet()
	s.Insert(ChanModeTopicLock)
	s.Insert(ChanModeSecret)
	s.Insert(ChanModeNoExternal)

	rendered := s.Render()
	assert.Equal(t, "+nst", rendered)

	parsed := newChannelModeSet()
	for i := 1; i < len(rendered); i++ {
		assert.True(t, parsed.Insert(rendered[i]))
	}
	assert.Equal(t, rendered, parsed.Render())
}

func TestMembershipOrdering(t *testing.T) {
	s := newMemberModeSet()

	_, ok := s.Best()
	assert.False(t, ok)
	assert.False(t, s.IsAtLeast(MemberModeVoice))
	assert.Equal(t, "", memberPrefix(s))

	s.Insert(MemberModeVoice)
	best, ok := s.Best()
	assert.True(t, ok)
	assert.EqualValues(t, MemberModeVoice, best)
	assert.True(t, s.IsAtLeast(MemberModeVoice))
	assert.False(t, s.IsAtLeast(MemberModeOp))
	assert.Equal(t, "+", memberPrefix(s))

	s.Insert(MemberModeOp)
	best, _ = s.Best()
	assert.EqualValues(t, MemberModeOp, best)
	assert.True(t, s.IsAtLeast(MemberModeVoice))
	assert.Equal(t, "@", memberPrefix(s))
}
