package main

import (
	"strings"

	"github.com/horgh/metallircd/irc"
)

// ActionKind discriminates RecyclingAction.
type ActionKind int

const (
	// ActionNothing: re-inject the user into the work pool.
	ActionNothing ActionKind = iota

	// ActionChangeNick: the recycler applies a nickname change under
	// exclusive registry access.
	ActionChangeNick

	// ActionZombify: the user is to be torn down.
	ActionZombify
)

// RecyclingAction is a handler's request to the recycler. Only these
// operations need exclusive access to the user registry; everything else
// handlers do runs under shared access.
type RecyclingAction struct {
	Kind ActionKind
	Nick string
}

func actionNothing() RecyclingAction {
	return RecyclingAction{Kind: ActionNothing}
}

func actionChangeNick(nick string) RecyclingAction {
	return RecyclingAction{Kind: ActionChangeNick, Nick: nick}
}

func actionZombify() RecyclingAction {
	return RecyclingAction{Kind: ActionZombify}
}

// ModeVerdict is a mode handler's answer for one flag letter.
type ModeVerdict int

const (
	// ModeUnknown: this handler does not know the flag; ask the next one.
	ModeUnknown ModeVerdict = iota

	// ModeAccepted: the flag change was applied.
	ModeAccepted

	// ModeRefused: the flag is known but the change was denied. The
	// handler has already sent any error numeric.
	ModeRefused
)

// A CommandHandler handles one or more protocol verbs. It reports whether
// it matched the command, and if so which recycling action to take.
type CommandHandler interface {
	HandleCommand(s *Server, u *User, m irc.Message) (bool, RecyclingAction)
}

// A MessageHandler sits on the outbound text-message chain (PRIVMSG and
// NOTICE). It returns the possibly modified message and true to continue
// the chain, or false to consume the message.
type MessageHandler interface {
	HandleMessage(s *Server, sender *User, m irc.Message) (irc.Message, bool)
}

// A UserModeHandler decides one user mode flag change.
type UserModeHandler interface {
	HandleUserMode(s *Server, actor, target *User, flag byte,
		set bool) ModeVerdict
}

// A ChannelModeHandler decides one channel mode flag change. Flags taking
// a parameter pull it from the cursor.
type ChannelModeHandler interface {
	HandleChannelMode(s *Server, actor *User, c *Channel, flag byte,
		set bool, args *modeArgs) ModeVerdict
}

// modeArgs is a cursor over the parameters following a MODE flag string.
type modeArgs struct {
	args []string
	next int
}

func newModeArgs(args []string) *modeArgs {
	return &modeArgs{args: args}
}

// Next returns the next unconsumed parameter.
func (a *modeArgs) Next() (string, bool) {
	if a.next >= len(a.args) {
		return "", false
	}
	arg := a.args[a.next]
	a.next++
	return arg, true
}

// Pipeline holds the registered handler chains. A single bundle may
// participate in several chains; Register sorts it into each one it
// implements.
type Pipeline struct {
	commands  []CommandHandler
	messages  []MessageHandler
	userModes []UserModeHandler
	chanModes []ChannelModeHandler
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Register adds the bundle to every chain whose interface it implements.
func (p *Pipeline) Register(bundle interface{}) {
	if h, ok := bundle.(CommandHandler); ok {
		p.commands = append(p.commands, h)
	}
	if h, ok := bundle.(MessageHandler); ok {
		p.messages = append(p.messages, h)
	}
	if h, ok := bundle.(UserModeHandler); ok {
		p.userModes = append(p.userModes, h)
	}
	if h, ok := bundle.(ChannelModeHandler); ok {
		p.chanModes = append(p.chanModes, h)
	}
}

// DispatchCommand tries command handlers in reverse registration order and
// stops at the first match. An unmatched command draws 421.
func (p *Pipeline) DispatchCommand(s *Server, u *User,
	m irc.Message) RecyclingAction {
	for i := len(p.commands) - 1; i >= 0; i-- {
		if matched, action := p.commands[i].HandleCommand(s, u, m); matched {
			return action
		}
	}

	// 421 ERR_UNKNOWNCOMMAND
	s.numericReply(u, errUnknownCommand, "Unknown command",
		strings.ToUpper(m.Command))
	return actionNothing()
}

// DispatchMessage runs an outbound text message through the message chain
// in registration order. A message nobody consumes is dropped.
func (p *Pipeline) DispatchMessage(s *Server, sender *User, m irc.Message) {
	for _, h := range p.messages {
		var ok bool
		m, ok = h.HandleMessage(s, sender, m)
		if !ok {
			return
		}
	}
}

// DispatchUserMode asks the user-mode chain about one flag, in reverse
// registration order; the first non-unknown verdict wins.
func (p *Pipeline) DispatchUserMode(s *Server, actor, target *User,
	flag byte, set bool) ModeVerdict {
	for i := len(p.userModes) - 1; i >= 0; i-- {
		if v := p.userModes[i].HandleUserMode(s, actor, target, flag,
			set); v != ModeUnknown {
			return v
		}
	}
	return ModeUnknown
}

// DispatchChannelMode asks the channel-mode chain about one flag, in
// reverse registration order; the first non-unknown verdict wins.
func (p *Pipeline) DispatchChannelMode(s *Server, actor *User, c *Channel,
	flag byte, set bool, args *modeArgs) ModeVerdict {
	for i := len(p.chanModes) - 1; i >= 0; i-- {
		if v := p.chanModes[i].HandleChannelMode(s, actor, c, flag, set,
			args); v != ModeUnknown {
			return v
		}
	}
	return ModeUnknown
}
