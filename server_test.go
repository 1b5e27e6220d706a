package main

import (
	"bufio"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horgh/metallircd/irc"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	s := newTestServer(t)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		s.Shutdown()
		s.Wait()
	})
	return s
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	rd   *bufio.Reader
}

func dialClient(t *testing.T, s *Server) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{t: t, conn: conn, rd: bufio.NewReader(conn)}
}

func (c *testClient) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\r\n"))
	require.NoError(c.t, err)
}

func (c *testClient) readMessage() irc.Message {
	c.t.Helper()

	require.NoError(c.t,
		c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.rd.ReadString('\n')
	require.NoError(c.t, err, "expected a message before the deadline")

	m, err := irc.Parse(line)
	require.NoError(c.t, err)
	return m
}

// waitFor reads messages until one with the given command arrives.
func (c *testClient) waitFor(command string) irc.Message {
	c.t.Helper()
	for {
		m := c.readMessage()
		if m.Command == command {
			return m
		}
	}
}

// register performs the NICK/USER handshake and waits out the welcome
// burst.
func (c *testClient) register(nick string) {
	c.t.Helper()
	c.send("NICK " + nick)
	c.send("USER " + nick + " 0 * :" + nick)
	c.waitFor(rplEndOfMotd)
}

func TestServerRegistration(t *testing.T) {
	s := startTestServer(t)
	c := dialClient(t, s)

	c.send("NICK alice")
	c.send("USER alice 0 * :Alice A")

	m := c.waitFor(rplWelcome)
	require.Equal(t, []string{"alice"}, m.Args)
	assert.Contains(t, m.Trailing, "alice!alice@")

	c.waitFor(rplYourHost)
	c.waitFor(rplCreated)
	c.waitFor(rplMyInfo)

	m = c.waitFor(rplISupport)
	assert.Contains(t, m.Args, "CASEMAPPING=rfc1459")

	c.waitFor(rplMotdStart)
	c.waitFor(rplEndOfMotd)

	require.Eventually(t, func() bool {
		return s.Users.ByNick("alice") != nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServerRegistrationErrors(t *testing.T) {
	s := startTestServer(t)

	c1 := dialClient(t, s)
	c1.register("alice")

	// Commands before registration draw 451.
	c2 := dialClient(t, s)
	c2.send("PRIVMSG alice :too early")
	m := c2.waitFor(errNotRegistered)
	assert.Equal(t, []string{"*"}, m.Args)

	// A taken nick draws 433 and negotiation continues.
	c2.send("NICK alice")
	c2.send("USER bob 0 * :Bob")
	m = c2.waitFor(errNicknameInUse)
	assert.Equal(t, []string{"*", "alice"}, m.Args)

	c2.send("NICK bob")
	c2.waitFor(rplWelcome)
}

func TestServerChannelConversation(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")

	alice.send("JOIN #test")
	alice.waitFor(rplEndOfNames)

	bob.send("JOIN #test")
	bob.waitFor(rplEndOfNames)

	// Alice sees bob's join.
	m := alice.waitFor("JOIN")
	assert.True(t, strings.HasPrefix(m.Prefix, "bob!"))

	alice.send("PRIVMSG #test :hello bob")
	m = bob.waitFor("PRIVMSG")
	assert.True(t, strings.HasPrefix(m.Prefix, "alice!"))
	assert.Equal(t, []string{"#test"}, m.Args)
	assert.Equal(t, "hello bob", m.Trailing)
}

func TestServerSecretChannelHidden(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")

	alice.send("JOIN #hidden")
	alice.waitFor(rplEndOfNames)
	alice.send("MODE #hidden +s")
	alice.waitFor("MODE")

	bob.send("LIST")
	m := bob.readMessage()
	// 323 RPL_LISTEND with no 322 entries
	assert.Equal(t, rplListEnd, m.Command)
}

func TestServerAwayReply(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")

	bob.send("AWAY :at lunch")
	bob.waitFor(rplNowAway)

	alice.send("PRIVMSG bob :you there?")

	m := alice.waitFor(rplAway)
	assert.Equal(t, []string{"alice", "bob"}, m.Args)
	assert.Equal(t, "at lunch", m.Trailing)

	// The message is still delivered.
	m = bob.waitFor("PRIVMSG")
	assert.Equal(t, "you there?", m.Trailing)
}

func TestServerChannelLifecycle(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")

	alice.send("JOIN #tmp")
	alice.waitFor(rplEndOfNames)
	alice.send("PART #tmp :done")
	alice.waitFor("PART")

	require.Eventually(t, func() bool {
		return !s.Channels.Has("#tmp")
	}, 5*time.Second, 10*time.Millisecond)

	// A new joiner recreates it with a single member.
	bob := dialClient(t, s)
	bob.register("bob")
	bob.send("JOIN #tmp")
	m := bob.waitFor(rplNameReply)
	require.Len(t, strings.Fields(m.Trailing), 1)
	assert.Contains(t, m.Trailing, "bob")
}

func TestServerNickChangeFanout(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")
	dave := dialClient(t, s)
	dave.register("dave")

	alice.send("JOIN #a")
	alice.waitFor(rplEndOfNames)
	bob.send("JOIN #a")
	bob.waitFor(rplEndOfNames)
	alice.waitFor("JOIN")

	alice.send("NICK alyce")

	for _, c := range []*testClient{alice, bob} {
		m := c.waitFor("NICK")
		assert.True(t, strings.HasPrefix(m.Prefix, "alice!"))
		assert.Equal(t, []string{"alyce"}, m.Args)
	}

	require.Eventually(t, func() bool {
		return s.Users.ByNick("alyce") != nil && s.Users.ByNick("alice") == nil
	}, 5*time.Second, 10*time.Millisecond)

	// Dave shares no channel and hears nothing; a PING round-trip proves
	// the silence rather than a bare timeout.
	dave.send("PING :sync")
	m := dave.waitFor("PONG")
	assert.Equal(t, "sync", m.Trailing)
}

func TestServerQuit(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")

	alice.send("JOIN #test")
	alice.waitFor(rplEndOfNames)
	bob.send("JOIN #test")
	bob.waitFor(rplEndOfNames)
	alice.waitFor("JOIN")

	bob.send("QUIT :good night")

	m := alice.waitFor("QUIT")
	assert.True(t, strings.HasPrefix(m.Prefix, "bob!"))
	assert.Equal(t, "good night", m.Trailing)

	m = bob.waitFor("ERROR")
	assert.Contains(t, m.Trailing, "Closing Link")

	require.Eventually(t, func() bool {
		return s.Users.ByNick("bob") == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServerReassemblesFragmentedLines(t *testing.T) {
	s := startTestServer(t)

	alice := dialClient(t, s)
	alice.register("alice")
	bob := dialClient(t, s)
	bob.register("bob")

	alice.send("JOIN #test")
	alice.waitFor(rplEndOfNames)
	bob.send("JOIN #test")
	bob.waitFor(rplEndOfNames)
	alice.waitFor("JOIN")

	// One command split across two TCP segments, with a pause well past
	// the per-read deadline in between.
	_, err := alice.conn.Write([]byte("PRIVMSG #test"))
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	_, err = alice.conn.Write([]byte(" :split across segments\r\n"))
	require.NoError(t, err)

	m := bob.waitFor("PRIVMSG")
	assert.Equal(t, "split across segments", m.Trailing)
}

func TestWaitForShutdownQuiescesSignalHandler(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start())

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM

	waitForShutdown(s, s.Logger, signals)

	// The handler goroutine has exited and the channel is closed, so
	// nothing can reach the logger after this point.
	_, open := <-signals
	assert.False(t, open)
	assert.True(t, s.Users.IsEmpty())
}

func TestServerShutdownNotifiesUsers(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		s.Shutdown()
		s.Wait()
	})

	alice := dialClient(t, s)
	alice.register("alice")

	s.Shutdown()

	m := alice.waitFor("NOTICE")
	assert.Contains(t, m.Trailing, "Server shutdown")

	s.Wait()
	assert.True(t, s.Users.IsEmpty())
}
