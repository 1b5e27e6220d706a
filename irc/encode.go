package irc

import (
	"strings"
)

// Encode serialises the message, terminated with CRLF. If the payload
// exceeds MaxPayloadLength it is cut to fit and ErrTruncated is returned
// alongside the still-sendable line.
func (m Message) Encode() (string, error) {
	if err := m.check(); err != nil {
		return "", err
	}

	payload := m.payload()
	if len(payload) > MaxPayloadLength {
		return payload[:MaxPayloadLength] + "\r\n", ErrTruncated
	}
	return payload + "\r\n", nil
}

// EncodedLength reports the payload length of the serialised message,
// excluding the CRLF terminator. Callers batching replies use it to stay
// within MaxPayloadLength.
func (m Message) EncodedLength() int {
	return len(m.payload())
}

func (m Message) payload() string {
	var sb strings.Builder

	if m.Prefix != "" {
		sb.WriteByte(':')
		sb.WriteString(m.Prefix)
		sb.WriteByte(' ')
	}

	sb.WriteString(m.Command)

	for _, arg := range m.Args {
		sb.WriteByte(' ')
		sb.WriteString(arg)
	}

	if m.HasTrailing || m.Trailing != "" {
		sb.WriteString(" :")
		sb.WriteString(m.Trailing)
	}

	return sb.String()
}

func (m Message) check() error {
	if m.Command == "" || strings.ContainsAny(m.Command, " \x00\r\n") {
		return ErrMalformed
	}
	if strings.ContainsAny(m.Prefix, " \x00\r\n") {
		return ErrMalformed
	}
	if len(m.Args) > MaxArgs {
		return ErrMalformed
	}
	for _, arg := range m.Args {
		if arg == "" || arg[0] == ':' || strings.ContainsAny(arg, " \x00\r\n") {
			return ErrMalformed
		}
	}
	if strings.ContainsAny(m.Trailing, "\x00\r\n") {
		return ErrIllegalByte
	}
	return nil
}
