package main

import (
	"bufio"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/horgh/metallircd/irc"
)

// Conn wraps a client socket with buffered I/O and per-operation
// deadlines. Reads use a short deadline so worker rounds never park on an
// idle socket.
type Conn struct {
	conn   net.Conn
	rw     *bufio.ReadWriter
	ioWait time.Duration

	// partial holds the start of a line whose terminator has not arrived
	// yet. A deadline can expire mid-line with the fragment already
	// consumed from the stream; the next read resumes it.
	partial string

	// IP is the client's address, recorded at accept time.
	IP net.IP
}

// NewConn wraps an accepted socket. ioWait bounds every read and write.
func NewConn(conn net.Conn, ioWait time.Duration) *Conn {
	var ip net.IP
	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		ip = tcpAddr.IP
	}

	return &Conn{
		conn: conn,
		rw: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
		ioWait: ioWait,
		IP:     ip,
	}
}

// ReadLine reads one CRLF-terminated line, raw. A timeout surfaces as an
// error satisfying isTimeout; bytes consumed before the deadline expired
// are kept and the line resumes on the next call.
func (c *Conn) ReadLine() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.ioWait)); err != nil {
		return "", errors.Wrap(err, "unable to set read deadline")
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		c.partial += line
		// An unterminated flood cannot grow the fragment without bound.
		// Anything past the wire limit parses as too-long once the
		// terminator finally arrives, so excess bytes are dropped here.
		if len(c.partial) > irc.MaxLineLength {
			c.partial = c.partial[:irc.MaxLineLength]
		}
		return "", errors.Wrap(err, "unable to read")
	}

	line = c.partial + line
	c.partial = ""
	return line, nil
}

// WriteMessage encodes and writes one message. Truncation to the protocol
// line limit is not an error here; the recipient still gets a valid line.
func (c *Conn) WriteMessage(m irc.Message) error {
	line, err := m.Encode()
	if err != nil && err != irc.ErrTruncated {
		return errors.Wrap(err, "unable to encode message")
	}
	return c.write(line)
}

func (c *Conn) write(s string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioWait)); err != nil {
		return errors.Wrap(err, "unable to set write deadline")
	}

	n, err := c.rw.WriteString(s)
	if err != nil {
		return errors.Wrap(err, "unable to write")
	}
	if n != len(s) {
		return errors.New("short write")
	}

	if err := c.rw.Flush(); err != nil {
		return errors.Wrap(err, "unable to flush")
	}
	return nil
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return errors.Wrap(c.conn.Close(), "unable to close")
}

// isTimeout reports whether err is a read/write deadline expiry rather
// than a real transport failure.
func isTimeout(err error) bool {
	nerr, ok := errors.Cause(err).(net.Error)
	return ok && nerr.Timeout()
}
