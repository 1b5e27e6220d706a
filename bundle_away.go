package main

import (
	"strings"

	"github.com/horgh/metallircd/irc"
)

// awayBundle carries the AWAY command and the away auto-reply on the
// outbound message chain.
type awayBundle struct{}

func (b *awayBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	if strings.ToUpper(m.Command) != "AWAY" {
		return false, actionNothing()
	}

	message := m.Trailing
	if !m.HasTrailing && len(m.Args) > 0 {
		message = m.Args[0]
	}

	if message == "" {
		u.ClearAway()
		// 305 RPL_UNAWAY
		s.numericReply(u, rplUnaway,
			"You are no longer marked as being away")
		return true, actionNothing()
	}

	u.SetAway(message)
	// 306 RPL_NOWAWAY
	s.numericReply(u, rplNowAway, "You have been marked as being away")
	return true, actionNothing()
}

// HandleMessage sends RPL_AWAY back to the sender of a PRIVMSG targeting
// an away user, before the message is delivered.
func (b *awayBundle) HandleMessage(s *Server, sender *User,
	m irc.Message) (irc.Message, bool) {
	if strings.ToUpper(m.Command) != "PRIVMSG" {
		return m, true
	}

	target := m.Args[0]
	if isValidChannelName(target) {
		return m, true
	}

	if u := s.Users.ByNick(target); u != nil {
		if message, away := u.Away(); away {
			// 301 RPL_AWAY
			s.numericReply(sender, rplAway, message, u.Nick())
		}
	}
	return m, true
}
