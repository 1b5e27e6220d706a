package main

import (
	"strings"

	"github.com/horgh/metallircd/irc"
)

// textBundle carries PRIVMSG and NOTICE. Delivery itself happens on the
// outbound message chain: the command handler validates the target and
// hands the message to the chain, where the away auto-reply, the channel
// gates, and the final fan-out compose.
type textBundle struct{}

func (b *textBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	command := strings.ToUpper(m.Command)
	if command != "PRIVMSG" && command != "NOTICE" {
		return false, actionNothing()
	}

	// NOTICE never draws automatic replies, numerics included.
	notice := command == "NOTICE"

	if len(m.Args) == 0 {
		if !notice {
			// 411 ERR_NORECIPIENT
			s.numericReply(u, errNoRecipient,
				"No recipient given ("+command+")")
		}
		return true, actionNothing()
	}

	text := m.Trailing
	if !m.HasTrailing {
		if len(m.Args) < 2 {
			if !notice {
				// 412 ERR_NOTEXTTOSEND
				s.numericReply(u, errNoTextToSend, "No text to send")
			}
			return true, actionNothing()
		}
		text = m.Args[1]
	}

	target := m.Args[0]

	if isValidChannelName(target) {
		if s.Channels.Get(target) == nil {
			if !notice {
				// 403 ERR_NOSUCHCHANNEL
				s.numericReply(u, errNoSuchChannel, "No such channel",
					target)
			}
			return true, actionNothing()
		}
	} else if s.Users.ByNick(target) == nil {
		if !notice {
			// 401 ERR_NOSUCHNICK
			s.numericReply(u, errNoSuchNick, "No such nick/channel", target)
		}
		return true, actionNothing()
	}

	s.Pipeline.DispatchMessage(s, u,
		irc.New(command, target).
			WithPrefix(u.Fullname()).
			WithTrailing(text))

	return true, actionNothing()
}

// chanGateHandler sits on the message chain and enforces the
// no-external-messages and moderated gates for channel targets. Channel
// operators and network operators bypass both.
type chanGateHandler struct{}

func (h *chanGateHandler) HandleMessage(s *Server, sender *User,
	m irc.Message) (irc.Message, bool) {
	target := m.Args[0]
	if !isValidChannelName(target) {
		return m, true
	}
	c := s.Channels.Get(target)
	if c == nil {
		return m, true
	}

	bypass := sender.IsOperator() ||
		c.MemberHasMode(sender.ID, MemberModeOp)
	if bypass {
		return m, true
	}

	member := c.HasMember(sender.ID)

	if c.HasMode(ChanModeNoExternal) && !member {
		h.cannotSend(s, sender, m, c.Name())
		return m, false
	}
	if c.HasMode(ChanModeModerated) &&
		!c.MemberIsAtLeast(sender.ID, MemberModeVoice) {
		h.cannotSend(s, sender, m, c.Name())
		return m, false
	}
	return m, true
}

func (h *chanGateHandler) cannotSend(s *Server, sender *User,
	m irc.Message, name string) {
	if strings.ToUpper(m.Command) == "NOTICE" {
		return
	}
	// 404 ERR_CANNOTSENDTOCHAN
	s.numericReply(sender, errCannotSendToChan, "Cannot send to channel",
		name)
}

// queryDeliverHandler consumes messages targeting a single user.
type queryDeliverHandler struct{}

func (h *queryDeliverHandler) HandleMessage(s *Server, sender *User,
	m irc.Message) (irc.Message, bool) {
	target := m.Args[0]
	if isValidChannelName(target) {
		return m, true
	}

	if u := s.Users.ByNick(target); u != nil {
		u.Queue(m)
		return m, false
	}
	return m, true
}

// chanFanoutHandler terminates the chain for channel targets, enqueueing
// the message on every member except the sender.
type chanFanoutHandler struct{}

func (h *chanFanoutHandler) HandleMessage(s *Server, sender *User,
	m irc.Message) (irc.Message, bool) {
	target := m.Args[0]
	if !isValidChannelName(target) {
		return m, true
	}

	if c := s.Channels.Get(target); c != nil {
		c.SendTo(m, sender.ID)
		return m, false
	}
	return m, true
}
