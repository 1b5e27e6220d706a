// Package irc implements the RFC 2812 message grammar: parsing and
// serialising single protocol lines.
package irc

import (
	"github.com/pkg/errors"
)

const (
	// MaxLineLength is the maximum length of a protocol line on the wire,
	// including the trailing CRLF.
	MaxLineLength = 512

	// MaxPayloadLength is MaxLineLength without the terminator.
	MaxPayloadLength = 510

	// MaxArgs is the maximum number of positional arguments. The trailing
	// argument is the 15th parameter.
	MaxArgs = 14
)

var (
	// ErrTruncated is returned by Encode when the message had to be cut to
	// fit MaxLineLength. The returned line is still valid to send.
	ErrTruncated = errors.New("message truncated")

	// ErrEmptyMessage is returned when parsing a blank line.
	ErrEmptyMessage = errors.New("empty message")

	// ErrTooLong is returned when parsing a line exceeding MaxPayloadLength.
	ErrTooLong = errors.New("line too long")

	// ErrIllegalByte is returned when a line contains NUL, CR, or LF.
	ErrIllegalByte = errors.New("illegal byte in message")

	// ErrMalformed is returned for lines that do not fit the grammar.
	ErrMalformed = errors.New("malformed message")
)

// Message is one protocol message: an optional prefix, a command, up to 14
// positional arguments, and an optional trailing argument.
//
// HasTrailing distinguishes an absent trailing argument from an empty one;
// both builders and Parse keep it consistent with Trailing.
type Message struct {
	Prefix      string
	Command     string
	Args        []string
	Trailing    string
	HasTrailing bool
}

// New returns a message with the given command and positional arguments.
func New(command string, args ...string) Message {
	return Message{Command: command, Args: args}
}

// WithPrefix returns a copy of the message carrying the given prefix.
func (m Message) WithPrefix(prefix string) Message {
	m.Prefix = prefix
	return m
}

// WithTrailing returns a copy of the message carrying the given trailing
// argument.
func (m Message) WithTrailing(trailing string) Message {
	m.Trailing = trailing
	m.HasTrailing = true
	return m
}
