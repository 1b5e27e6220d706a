package main

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/horgh/metallircd/irc"
)

// modesBundle carries the MODE command plus the baseline user-mode and
// channel-mode policies. Additional flags plug in through further
// ChannelModeHandler/UserModeHandler registrations.
type modesBundle struct{}

// modeChange is one +x / -x step parsed from a MODE flag string.
type modeChange struct {
	set  bool
	flag byte
}

func parseModeChanges(flags string) []modeChange {
	set := true
	var out []modeChange
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case '+':
			set = true
		case '-':
			set = false
		default:
			out = append(out, modeChange{set: set, flag: flags[i]})
		}
	}
	return out
}

// renderModeChanges turns accepted changes back into a "+ab-c" string.
func renderModeChanges(changes []modeChange) string {
	var sb strings.Builder
	var sign byte
	for _, ch := range changes {
		want := byte('-')
		if ch.set {
			want = '+'
		}
		if sign != want {
			sb.WriteByte(want)
			sign = want
		}
		sb.WriteByte(ch.flag)
	}
	return sb.String()
}

func (b *modesBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	if strings.ToUpper(m.Command) != "MODE" {
		return false, actionNothing()
	}

	if len(m.Args) == 0 {
		s.needMoreParams(u, "MODE")
		return true, actionNothing()
	}

	if isValidChannelName(m.Args[0]) {
		b.channelMode(s, u, m)
	} else {
		b.userMode(s, u, m)
	}
	return true, actionNothing()
}

func (b *modesBundle) userMode(s *Server, u *User, m irc.Message) {
	target := s.Users.ByNick(m.Args[0])
	if target == nil {
		// 401 ERR_NOSUCHNICK
		s.numericReply(u, errNoSuchNick, "No such nick/channel", m.Args[0])
		return
	}

	if len(m.Args) == 1 {
		if target.ID != u.ID && !u.IsOperator() {
			// 502 ERR_USERSDONTMATCH
			s.numericReply(u, errUsersDontMatch,
				"Cannot change mode for other users")
			return
		}
		// 221 RPL_UMODEIS
		s.numericArgs(u, rplUModeIs, renderOrPlus(target.RenderModes()))
		return
	}

	if target.ID != u.ID {
		// 502 ERR_USERSDONTMATCH
		s.numericReply(u, errUsersDontMatch,
			"Cannot change mode for other users")
		return
	}

	var accepted []modeChange
	for _, change := range parseModeChanges(m.Args[1]) {
		switch s.Pipeline.DispatchUserMode(s, u, target, change.flag,
			change.set) {
		case ModeAccepted:
			accepted = append(accepted, change)
		case ModeUnknown:
			// 501 ERR_UMODEUNKNOWNFLAG
			s.numericReply(u, errUModeUnknownFlag, "Unknown MODE flag")
		}
	}

	if len(accepted) > 0 {
		u.Queue(irc.New("MODE", u.Nick(), renderModeChanges(accepted)).
			WithPrefix(u.Fullname()))
	}
}

func (b *modesBundle) channelMode(s *Server, u *User, m irc.Message) {
	c := s.Channels.Get(m.Args[0])
	if c == nil {
		// 403 ERR_NOSUCHCHANNEL
		s.numericReply(u, errNoSuchChannel, "No such channel", m.Args[0])
		return
	}

	member := c.HasMember(u.ID)

	if len(m.Args) == 1 {
		if !member && !u.IsOperator() {
			// 442 ERR_NOTONCHANNEL
			s.numericReply(u, errNotOnChannel,
				"You're not on that channel", c.Name())
			return
		}

		args := []string{c.Name(), renderOrPlus(c.RenderModes())}
		if c.HasMode(ChanModeLimit) {
			args = append(args, strconv.Itoa(c.Limit()))
		}
		if c.HasMode(ChanModeKey) {
			args = append(args, c.Key())
		}
		// 324 RPL_CHANNELMODEIS
		s.numericArgs(u, rplChannelModeIs, args...)
		// 329 RPL_CREATIONTIME
		s.numericArgs(u, rplCreationTime, c.Name(),
			strconv.FormatInt(c.Created(), 10))
		return
	}

	if !u.IsOperator() {
		if !member {
			// 442 ERR_NOTONCHANNEL
			s.numericReply(u, errNotOnChannel,
				"You're not on that channel", c.Name())
			return
		}
		if !c.MemberHasMode(u.ID, MemberModeOp) {
			// 482 ERR_CHANOPRIVSNEEDED
			s.numericReply(u, errChanOpPrivsNeeded,
				"You're not channel operator", c.Name())
			return
		}
	}

	cursor := newModeArgs(m.Args[2:])
	var accepted []modeChange
	var params []string

	for _, change := range parseModeChanges(m.Args[1]) {
		before := cursor.next
		verdict := s.Pipeline.DispatchChannelMode(s, u, c, change.flag,
			change.set, cursor)
		switch verdict {
		case ModeAccepted:
			accepted = append(accepted, change)
			params = append(params, cursor.args[before:cursor.next]...)
		case ModeUnknown:
			// 472 ERR_UNKNOWNMODE
			s.numericReply(u, errUnknownMode, "is unknown mode char to me",
				string(change.flag))
		}
	}

	if len(accepted) > 0 {
		args := append([]string{c.Name(), renderModeChanges(accepted)},
			params...)
		c.SendTo(irc.New("MODE", args...).WithPrefix(u.Fullname()),
			uuid.Nil)
	}
}

// HandleUserMode is the baseline user-mode policy: +i is self-toggled, +o
// is granted only via OPER (dropping it is allowed), +a only via AWAY.
func (b *modesBundle) HandleUserMode(s *Server, actor, target *User,
	flag byte, set bool) ModeVerdict {
	switch flag {
	case UserModeInvisible:
		if set {
			target.SetMode(flag)
		} else {
			target.UnsetMode(flag)
		}
		return ModeAccepted
	case UserModeOperator:
		if set {
			return ModeRefused
		}
		target.UnsetMode(flag)
		return ModeAccepted
	case UserModeAway:
		return ModeRefused
	}
	return ModeUnknown
}

// HandleChannelMode is the baseline channel-mode policy: the s/n/m/t
// toggles and the v/o membership modes.
func (b *modesBundle) HandleChannelMode(s *Server, actor *User, c *Channel,
	flag byte, set bool, args *modeArgs) ModeVerdict {
	switch flag {
	case ChanModeSecret, ChanModeNoExternal, ChanModeModerated,
		ChanModeTopicLock:
		if set {
			c.SetMode(flag)
		} else {
			c.UnsetMode(flag)
		}
		return ModeAccepted

	case MemberModeVoice, MemberModeOp:
		nick, ok := args.Next()
		if !ok {
			s.needMoreParams(actor, "MODE")
			return ModeRefused
		}
		target := s.Users.ByNick(nick)
		if target == nil || !c.HasMember(target.ID) {
			// 441 ERR_USERNOTINCHANNEL
			s.numericReply(actor, errUserNotInChannel,
				"They aren't on that channel", nick, c.Name())
			return ModeRefused
		}
		c.SetMemberMode(target.ID, flag, set)
		return ModeAccepted
	}
	return ModeUnknown
}

func renderOrPlus(modes string) string {
	if modes == "" {
		return "+"
	}
	return modes
}
