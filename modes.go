package main

import (
	"github.com/bits-and-blooms/bitset"
)

// Mode letters in the user namespace.
const (
	UserModeInvisible = 'i'
	UserModeOperator  = 'o'
	UserModeAway      = 'a'
)

// Mode letters in the channel namespace.
const (
	ChanModeSecret     = 's'
	ChanModeNoExternal = 'n'
	ChanModeModerated  = 'm'
	ChanModeTopicLock  = 't'
	ChanModeInviteOnly = 'i'
	ChanModeKey        = 'k'
	ChanModeLimit      = 'l'
)

// Mode letters in the membership namespace.
const (
	MemberModeVoice = 'v'
	MemberModeOp    = 'o'
)

const (
	userModeLetters    = "aio"
	chanModeLetters    = "iklmnst"
	memberModeLetters  = "ov"
	memberModeOrdering = "ov" // highest first
)

// A ModeSet is a set of single-letter flags drawn from one of the three
// mode namespaces. It is not safe for concurrent use; the owning record's
// lock guards it.
type ModeSet struct {
	letters string
	bits    *bitset.BitSet
}

func newModeSet(letters string) *ModeSet {
	return &ModeSet{letters: letters, bits: bitset.New(26)}
}

func newUserModeSet() *ModeSet    { return newModeSet(userModeLetters) }
func newChannelModeSet() *ModeSet { return newModeSet(chanModeLetters) }
func newMemberModeSet() *ModeSet  { return newModeSet(memberModeLetters) }

// Recognizes reports whether the flag letter belongs to this set's
// namespace.
func (s *ModeSet) Recognizes(flag byte) bool {
	for i := 0; i < len(s.letters); i++ {
		if s.letters[i] == flag {
			return true
		}
	}
	return false
}

// Contains reports whether the flag is set.
func (s *ModeSet) Contains(flag byte) bool {
	if flag < 'a' || flag > 'z' {
		return false
	}
	return s.bits.Test(uint(flag - 'a'))
}

// Insert sets the flag. It reports false for letters outside the
// namespace.
func (s *ModeSet) Insert(flag byte) bool {
	if !s.Recognizes(flag) {
		return false
	}
	s.bits.Set(uint(flag - 'a'))
	return true
}

// Remove clears the flag. It reports false for letters outside the
// namespace.
func (s *ModeSet) Remove(flag byte) bool {
	if !s.Recognizes(flag) {
		return false
	}
	s.bits.Clear(uint(flag - 'a'))
	return true
}

// Empty reports whether no flag is set.
func (s *ModeSet) Empty() bool {
	return s.bits.None()
}

// Render returns the set as "+abc" with letters sorted, or "" when empty.
func (s *ModeSet) Render() string {
	if s.Empty() {
		return ""
	}
	out := []byte{'+'}
	for c := byte('a'); c <= 'z'; c++ {
		if s.Contains(c) {
			out = append(out, c)
		}
	}
	return string(out)
}

// Best returns the highest-ranked set flag. Meaningful only for the
// membership namespace, where op outranks voice.
func (s *ModeSet) Best() (byte, bool) {
	for i := 0; i < len(memberModeOrdering); i++ {
		if s.Contains(memberModeOrdering[i]) {
			return memberModeOrdering[i], true
		}
	}
	return 0, false
}

// IsAtLeast reports whether the set holds a flag ranked at or above the
// given one.
func (s *ModeSet) IsAtLeast(flag byte) bool {
	best, ok := s.Best()
	if !ok {
		return false
	}
	return memberRank(best) <= memberRank(flag)
}

func memberRank(flag byte) int {
	for i := 0; i < len(memberModeOrdering); i++ {
		if memberModeOrdering[i] == flag {
			return i
		}
	}
	return len(memberModeOrdering)
}

// memberPrefix returns the NAMES/WHO prefix for the best membership mode:
// "@" for op, "+" for voice, "" for neither.
func memberPrefix(ms *ModeSet) string {
	best, ok := ms.Best()
	if !ok {
		return ""
	}
	switch best {
	case MemberModeOp:
		return "@"
	case MemberModeVoice:
		return "+"
	}
	return ""
}
