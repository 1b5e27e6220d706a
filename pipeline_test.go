package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horgh/metallircd/irc"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger, err := NewLogger("Error", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Close() })

	cfg := &Config{
		ServerName: "irc.test.example.com",
		Address:    "127.0.0.1",
		Port:       0,
		Workers:    2,
		IOWait:     50 * time.Millisecond,
		Opers:      map[string]string{"root": "hunter2"},
	}
	return NewServer(cfg, logger)
}

type recordingHandler struct {
	match  bool
	called int
}

func (h *recordingHandler) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	h.called++
	return h.match, actionNothing()
}

type consumingMessageHandler struct {
	consume bool
	called  int
}

func (h *consumingMessageHandler) HandleMessage(s *Server, sender *User,
	m irc.Message) (irc.Message, bool) {
	h.called++
	return m, !h.consume
}

func TestPipelineDispatchReverseOrder(t *testing.T) {
	s := newTestServer(t)
	u := testUser(t, s.Users, "alice")

	p := NewPipeline()
	first := &recordingHandler{match: true}
	second := &recordingHandler{match: true}
	p.Register(first)
	p.Register(second)

	p.DispatchCommand(s, u, irc.New("FOO"))

	// Last registered wins.
	assert.Equal(t, 0, first.called)
	assert.Equal(t, 1, second.called)
}

func TestPipelineDispatchFallsThrough(t *testing.T) {
	s := newTestServer(t)
	u := testUser(t, s.Users, "alice")

	p := NewPipeline()
	miss := &recordingHandler{match: false}
	hit := &recordingHandler{match: true}
	p.Register(hit)
	p.Register(miss)

	p.DispatchCommand(s, u, irc.New("FOO"))

	assert.Equal(t, 1, miss.called)
	assert.Equal(t, 1, hit.called)
}

func TestPipelineUnknownCommand(t *testing.T) {
	s := newTestServer(t)
	u := testUser(t, s.Users, "alice")

	s.Pipeline.DispatchCommand(s, u, irc.New("bogus"))

	got := drainQueue(u)
	require.Len(t, got, 1)
	// 421 ERR_UNKNOWNCOMMAND, with the command uppercased.
	assert.Equal(t, errUnknownCommand, got[0].Command)
	assert.Equal(t, []string{"alice", "BOGUS"}, got[0].Args)
}

func TestPipelineMessageChainConsumes(t *testing.T) {
	s := newTestServer(t)
	u := testUser(t, s.Users, "alice")

	p := NewPipeline()
	pass := &consumingMessageHandler{}
	eat := &consumingMessageHandler{consume: true}
	after := &consumingMessageHandler{}
	p.Register(pass)
	p.Register(eat)
	p.Register(after)

	p.DispatchMessage(s, u, irc.New("PRIVMSG", "#x").WithTrailing("hi"))

	// Forward order, stopping at the consumer.
	assert.Equal(t, 1, pass.called)
	assert.Equal(t, 1, eat.called)
	assert.Equal(t, 0, after.called)
}

func TestPipelineRegisterSortsIntoChains(t *testing.T) {
	p := NewPipeline()

	// The modes bundle serves three chains at once.
	p.Register(&modesBundle{})
	assert.Len(t, p.commands, 1)
	assert.Len(t, p.userModes, 1)
	assert.Len(t, p.chanModes, 1)
	assert.Len(t, p.messages, 0)

	// The away bundle serves commands and the message chain.
	p.Register(&awayBundle{})
	assert.Len(t, p.commands, 2)
	assert.Len(t, p.messages, 1)
}

func TestModeArgsCursor(t *testing.T) {
	cursor := newModeArgs([]string{"a", "b"})

	v, ok := cursor.Next()
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = cursor.Next()
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = cursor.Next()
	assert.False(t, ok)
}

func TestParseAndRenderModeChanges(t *testing.T) {
	changes := parseModeChanges("+sn-m+t")
	require.Len(t, changes, 4)
	assert.Equal(t, modeChange{set: true, flag: 's'}, changes[0])
	assert.Equal(t, modeChange{set: false, flag: 'm'}, changes[2])

	assert.Equal(t, "+sn-m+t", renderModeChanges(changes))

	// Default sign is +.
	assert.Equal(t, "+i", renderModeChanges(parseModeChanges("i")))
}
