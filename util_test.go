package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelToLower(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"ALICE", "alice"},
		{"Nick[a]\\b", "nick{a}|b"},
		{"{}|", "{}|"},
		{"#Chan", "#chan"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, labelToLower(test.input), "%q", test.input)

		// Folding is idempotent.
		folded := labelToLower(test.input)
		assert.Equal(t, folded, labelToLower(folded))
	}
}

func TestIsValidLabel(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"alice", true},
		{"[alice]", true},
		{"a1ice", true},
		{"_underscore", true},
		{"`tick", true},
		{"", false},
		{"1alice", false},
		{"al ice", false},
		{"al,ice", false},
		{"héllo", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, isValidLabel(test.input), "%q", test.input)
	}
}

func TestIsValidChannelName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"#chan", true},
		{"#c", true},
		{"chan", false},
		{"#", false},
		{"#ch an", false},
		{"#1chan", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, isValidChannelName(test.input), "%q",
			test.input)
	}
}

func TestMatchesMask(t *testing.T) {
	tests := []struct {
		s    string
		mask string
		want bool
	}{
		{"alice", "alice", true},
		{"alice", "*", true},
		{"alice", "a*", true},
		{"alice", "a?ice", true},
		{"alice", "*ice", true},
		{"alice", "*z*", false},
		{"alice", "ali", false},
		{"ALICE", "alice", true},
		{"nick[a]", "nick{a}", true},
		{"", "*", true},
		{"", "?", false},
		{"abc", "a*b*c", true},
		{"abc", "a*c*", true},
		{"abc", "*?*", true},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, matchesMask(test.s, test.mask),
			"matchesMask(%q, %q)", test.s, test.mask)
	}
}
