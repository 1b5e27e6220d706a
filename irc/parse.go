package irc

import (
	"strings"
)

// Parse parses one protocol line into a Message. The line may carry its
// CRLF terminator; a bare LF or CR is tolerated. Inputs containing NUL or
// an interior CR/LF, or longer than MaxPayloadLength, are rejected.
//
// The command token is preserved as received. Compare it case-insensitively.
func Parse(line string) (Message, error) {
	line = trimLineEnding(line)

	if line == "" {
		return Message{}, ErrEmptyMessage
	}
	if len(line) > MaxPayloadLength {
		return Message{}, ErrTooLong
	}
	if strings.ContainsAny(line, "\x00\r\n") {
		return Message{}, ErrIllegalByte
	}

	var m Message

	rest := line
	if rest[0] == ':' {
		idx := strings.IndexByte(rest, ' ')
		if idx <= 1 {
			return Message{}, ErrMalformed
		}
		m.Prefix = rest[1:idx]
		rest = skipSpaces(rest[idx+1:])
	}

	if rest == "" {
		return Message{}, ErrMalformed
	}
	if idx := strings.IndexByte(rest, ' '); idx >= 0 {
		m.Command = rest[:idx]
		rest = skipSpaces(rest[idx+1:])
	} else {
		m.Command = rest
		rest = ""
	}

	for rest != "" {
		if rest[0] == ':' {
			m.Trailing = rest[1:]
			m.HasTrailing = true
			break
		}

		if len(m.Args) == MaxArgs {
			// The 15th parameter and anything after it collapse into the
			// trailing argument.
			if idx := strings.Index(rest, " :"); idx >= 0 {
				rest = rest[:idx] + " " + rest[idx+2:]
			}
			m.Trailing = rest
			m.HasTrailing = true
			break
		}

		if idx := strings.IndexByte(rest, ' '); idx >= 0 {
			m.Args = append(m.Args, rest[:idx])
			rest = skipSpaces(rest[idx+1:])
		} else {
			m.Args = append(m.Args, rest)
			rest = ""
		}
	}

	return m, nil
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// skipSpaces tolerates runs of separating spaces, which some clients send.
func skipSpaces(s string) string {
	return strings.TrimLeft(s, " ")
}
