package main

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horgh/metallircd/irc"
)

// readLineEventually retries past read timeouts until a full line arrives.
func readLineEventually(t *testing.T, c *Conn) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		line, err := c.ReadLine()
		if err == nil {
			return line
		}
		require.True(t, isTimeout(err), "%s", err)
		require.True(t, time.Now().Before(deadline),
			"line never completed")
	}
}

func TestConnReadLineResumesPartialLine(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = client.Close() }()

	c := NewConn(server, 20*time.Millisecond)
	defer func() { _ = c.Close() }()

	// The line arrives in two segments, further apart than the read
	// deadline. The first fragment must survive the timeout in between.
	go func() {
		_, _ = client.Write([]byte("PRIVMSG #x"))
		time.Sleep(80 * time.Millisecond)
		_, _ = client.Write([]byte(" :hello\r\n"))
	}()

	assert.Equal(t, "PRIVMSG #x :hello\r\n", readLineEventually(t, c))

	// The fragment buffer is spent; the next line reads clean.
	go func() {
		_, _ = client.Write([]byte("PING token\r\n"))
	}()
	assert.Equal(t, "PING token\r\n", readLineEventually(t, c))
}

func TestConnReadLineCapsUnterminatedFragment(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = client.Close() }()

	c := NewConn(server, 20*time.Millisecond)
	defer func() { _ = c.Close() }()

	go func() {
		_, _ = client.Write([]byte("PRIVMSG #x :" +
			strings.Repeat("y", 600)))
		time.Sleep(80 * time.Millisecond)
		_, _ = client.Write([]byte("\r\n"))
	}()

	line := readLineEventually(t, c)
	assert.LessOrEqual(t, len(line), irc.MaxLineLength+2)

	_, err := irc.Parse(line)
	assert.ErrorIs(t, err, irc.ErrTooLong)
}
