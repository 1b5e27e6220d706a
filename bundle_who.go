package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/horgh/metallircd/irc"
)

// whoBundle carries WHO and WHOIS.
type whoBundle struct{}

func (b *whoBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	switch strings.ToUpper(m.Command) {
	case "WHO":
		b.who(s, u, m)
	case "WHOIS":
		b.whois(s, u, m)
	default:
		return false, actionNothing()
	}
	return true, actionNothing()
}

// sharesChannel reports whether two users have at least one channel in
// common. Invisible users are visible only through shared channels.
func sharesChannel(a, b *User) bool {
	for _, m := range a.Memberships() {
		if m.Severed() {
			continue
		}
		if m.Channel().HasMember(b.ID) {
			return true
		}
	}
	return false
}

func (b *whoBundle) who(s *Server, u *User, m irc.Message) {
	mask := "*"
	if len(m.Args) > 0 {
		mask = m.Args[0]
	}

	if isValidChannelName(mask) {
		b.whoChannel(s, u, mask)
		return
	}

	for _, target := range s.Users.MatchingMask(mask,
		func(t *User) string { return t.Nick() }) {
		if target.HasMode(UserModeInvisible) && target.ID != u.ID &&
			!sharesChannel(u, target) {
			continue
		}
		b.whoReply(s, u, target, "*", "")
	}

	// 315 RPL_ENDOFWHO
	s.numericReply(u, rplEndOfWho, "End of WHO list", mask)
}

func (b *whoBundle) whoChannel(s *Server, u *User, name string) {
	c := s.Channels.Get(name)
	visible := c != nil &&
		(!c.HasMode(ChanModeSecret) || c.HasMember(u.ID))

	if visible {
		requesterIsMember := c.HasMember(u.ID)
		c.ForEachMember(func(target *User) {
			if target.HasMode(UserModeInvisible) && target.ID != u.ID &&
				!requesterIsMember {
				return
			}
			b.whoReply(s, u, target, c.Name(), c.MemberPrefix(target.ID))
		})
	}

	// 315 RPL_ENDOFWHO
	s.numericReply(u, rplEndOfWho, "End of WHO list", name)
}

func (b *whoBundle) whoReply(s *Server, u, target *User, channel,
	prefix string) {
	flags := "H"
	if _, away := target.Away(); away {
		flags = "G"
	}
	if target.IsOperator() {
		flags += "*"
	}
	flags += prefix

	// 352 RPL_WHOREPLY
	s.numericReply(u, rplWhoReply, "0 "+target.RealName(), channel,
		target.Username(), target.Hostname(), s.Config.ServerName,
		target.Nick(), flags)
}

func (b *whoBundle) whois(s *Server, u *User, m irc.Message) {
	if len(m.Args) == 0 {
		// 431 ERR_NONICKNAMEGIVEN
		s.numericReply(u, errNoNicknameGiven, "No nickname given")
		return
	}
	nick := m.Args[0]

	// Exact nick lookup finds invisible users too.
	target := s.Users.ByNick(nick)
	if target == nil {
		// 401 ERR_NOSUCHNICK
		s.numericReply(u, errNoSuchNick, "No such nick/channel", nick)
		// 318 RPL_ENDOFWHOIS
		s.numericReply(u, rplEndOfWhois, "End of WHOIS list", nick)
		return
	}

	// 311 RPL_WHOISUSER
	s.numericReply(u, rplWhoisUser, target.RealName(), target.Nick(),
		target.Username(), target.Hostname(), "*")

	if channels := b.whoisChannels(u, target); channels != "" {
		// 319 RPL_WHOISCHANNELS
		s.numericReply(u, rplWhoisChannels, channels, target.Nick())
	}

	// 312 RPL_WHOISSERVER
	s.numericReply(u, rplWhoisServer, s.Config.ServerName,
		target.Nick(), s.Config.ServerName)

	if target.IsOperator() {
		// 313 RPL_WHOISOPERATOR
		s.numericReply(u, rplWhoisOperator, "is an IRC operator",
			target.Nick())
	}

	if _, away := target.Away(); away {
		message, _ := target.Away()
		// 301 RPL_AWAY
		s.numericReply(u, rplAway, message, target.Nick())
	}

	// Idle time is seconds since registration: zero at signon, growing
	// monotonically.
	idle := int64(time.Since(target.RegisteredAt()) / time.Second)
	// 317 RPL_WHOISIDLE
	s.numericReply(u, rplWhoisIdle, "seconds idle, signon time",
		target.Nick(), strconv.FormatInt(idle, 10),
		strconv.FormatInt(target.RegisteredAt().Unix(), 10))

	// 318 RPL_ENDOFWHOIS
	s.numericReply(u, rplEndOfWhois, "End of WHOIS list", target.Nick())
}

// whoisChannels renders the target's channel list, hiding secret channels
// the requester is not on.
func (b *whoBundle) whoisChannels(u, target *User) string {
	var parts []string
	for _, m := range target.Memberships() {
		if m.Severed() {
			continue
		}
		c := m.Channel()
		if c.HasMode(ChanModeSecret) && !c.HasMember(u.ID) {
			continue
		}
		parts = append(parts, c.MemberPrefix(target.ID)+c.Name())
	}
	return strings.Join(parts, " ")
}
