package main

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/horgh/metallircd/irc"
)

// channelsBundle carries JOIN, PART, NAMES, LIST, and TOPIC.
type channelsBundle struct{}

func (b *channelsBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	switch strings.ToUpper(m.Command) {
	case "JOIN":
		b.join(s, u, m)
	case "PART":
		b.part(s, u, m)
	case "NAMES":
		b.names(s, u, m)
	case "LIST":
		b.list(s, u, m)
	case "TOPIC":
		b.topic(s, u, m)
	default:
		return false, actionNothing()
	}
	return true, actionNothing()
}

func (b *channelsBundle) join(s *Server, u *User, m irc.Message) {
	if len(m.Args) == 0 {
		s.needMoreParams(u, "JOIN")
		return
	}

	names := strings.Split(m.Args[0], ",")
	var keys []string
	if len(m.Args) > 1 {
		keys = strings.Split(m.Args[1], ",")
	}

	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		b.joinOne(s, u, name, key)
	}
}

func (b *channelsBundle) joinOne(s *Server, u *User, name, key string) {
	if !isValidChannelName(name) {
		// 476 ERR_BADCHANMASK
		s.numericReply(u, errBadChanMask, "Bad Channel Mask", name)
		return
	}

	if c := s.Channels.Get(name); c != nil && !c.HasMember(u.ID) {
		if !b.mayJoin(s, u, c, key) {
			return
		}
	}

	c, created, joined := s.Channels.JoinOrCreate(u, name)
	if !joined {
		return
	}
	if created {
		c.SetMemberMode(u.ID, MemberModeOp, true)
	}

	c.SendTo(irc.New("JOIN", c.Name()).WithPrefix(u.Fullname()), uuid.Nil)

	if topic := c.Topic(); topic != "" {
		// 332 RPL_TOPIC
		s.numericReply(u, rplTopic, topic, c.Name())
	} else {
		// 331 RPL_NOTOPIC
		s.numericReply(u, rplNoTopic, "No topic is set", c.Name())
	}

	s.namesReply(u, c)
}

// mayJoin enforces the invite-only, key, and limit gates on an existing
// channel.
func (b *channelsBundle) mayJoin(s *Server, u *User, c *Channel,
	key string) bool {
	if c.HasMode(ChanModeInviteOnly) && !c.consumeInvite(u.ID) {
		// 473 ERR_INVITEONLYCHAN
		s.numericReply(u, errInviteOnlyChan,
			"Cannot join channel (+i)", c.Name())
		return false
	}
	if c.HasMode(ChanModeKey) && c.Key() != key {
		// 475 ERR_BADCHANNELKEY
		s.numericReply(u, errBadChannelKey,
			"Cannot join channel (+k)", c.Name())
		return false
	}
	if c.HasMode(ChanModeLimit) && c.MemberCount() >= c.Limit() {
		// 471 ERR_CHANNELISFULL
		s.numericReply(u, errChannelIsFull,
			"Cannot join channel (+l)", c.Name())
		return false
	}
	return true
}

func (b *channelsBundle) part(s *Server, u *User, m irc.Message) {
	if len(m.Args) == 0 {
		s.needMoreParams(u, "PART")
		return
	}

	reason := u.Nick()
	if m.HasTrailing {
		reason = m.Trailing
	}

	for _, name := range strings.Split(m.Args[0], ",") {
		b.partOne(s, u, name, reason)
	}
}

func (b *channelsBundle) partOne(s *Server, u *User, name, reason string) {
	c := s.Channels.Get(name)
	if c == nil {
		// 403 ERR_NOSUCHCHANNEL
		s.numericReply(u, errNoSuchChannel, "No such channel", name)
		return
	}
	if !c.HasMember(u.ID) {
		// 442 ERR_NOTONCHANNEL
		s.numericReply(u, errNotOnChannel,
			"You're not on that channel", name)
		return
	}

	c.SendTo(irc.New("PART", c.Name()).
		WithPrefix(u.Fullname()).
		WithTrailing(reason), uuid.Nil)

	c.removeMember(u.ID)
	u.removeMembership(labelToLower(name))
	s.Channels.DestroyIfEmpty(name)
}

func (b *channelsBundle) names(s *Server, u *User, m irc.Message) {
	if len(m.Args) > 0 {
		for _, name := range strings.Split(m.Args[0], ",") {
			c := s.Channels.Get(name)
			if c == nil ||
				(c.HasMode(ChanModeSecret) && !c.HasMember(u.ID)) {
				// 366 RPL_ENDOFNAMES
				s.numericReply(u, rplEndOfNames, "End of NAMES list", name)
				continue
			}
			s.namesReply(u, c)
		}
		return
	}

	s.Channels.ForEach(func(c *Channel) {
		if c.HasMode(ChanModeSecret) && !c.HasMember(u.ID) {
			return
		}
		s.namesReply(u, c)
	})
}

func (b *channelsBundle) list(s *Server, u *User, m irc.Message) {
	mask := "*"
	if len(m.Args) > 0 {
		mask = m.Args[0]
	}

	s.Channels.ForEachMatching(mask, func(c *Channel) {
		if c.HasMode(ChanModeSecret) && !c.HasMember(u.ID) {
			return
		}
		// 322 RPL_LIST
		s.numericReply(u, rplList, c.Topic(), c.Name(),
			strconv.Itoa(c.MemberCount()))
	})

	// 323 RPL_LISTEND
	s.numericReply(u, rplListEnd, "End of LIST")
}

func (b *channelsBundle) topic(s *Server, u *User, m irc.Message) {
	if len(m.Args) == 0 {
		s.needMoreParams(u, "TOPIC")
		return
	}
	name := m.Args[0]

	c := s.Channels.Get(name)
	if c == nil {
		// 403 ERR_NOSUCHCHANNEL
		s.numericReply(u, errNoSuchChannel, "No such channel", name)
		return
	}

	member := c.HasMember(u.ID)

	if !m.HasTrailing && len(m.Args) < 2 {
		if c.HasMode(ChanModeSecret) && !member {
			s.numericReply(u, errNoSuchChannel, "No such channel", name)
			return
		}
		if topic := c.Topic(); topic != "" {
			s.numericReply(u, rplTopic, topic, c.Name())
		} else {
			s.numericReply(u, rplNoTopic, "No topic is set", c.Name())
		}
		return
	}

	if !member {
		// 442 ERR_NOTONCHANNEL
		s.numericReply(u, errNotOnChannel,
			"You're not on that channel", name)
		return
	}

	if c.HasMode(ChanModeTopicLock) && !u.IsOperator() &&
		!c.MemberHasMode(u.ID, MemberModeOp) {
		// 482 ERR_CHANOPRIVSNEEDED
		s.numericReply(u, errChanOpPrivsNeeded,
			"You're not channel operator", c.Name())
		return
	}

	topic := m.Trailing
	if !m.HasTrailing {
		topic = m.Args[1]
	}
	c.SetTopic(topic)

	c.SendTo(irc.New("TOPIC", c.Name()).
		WithPrefix(u.Fullname()).
		WithTrailing(topic), uuid.Nil)
}

// namesReply queues the 353/366 chain for the channel, batching member
// names so no line exceeds the wire limit.
func (s *Server) namesReply(u *User, c *Channel) {
	base := irc.New(rplNameReply, u.Nick(), "=", c.Name()).
		WithPrefix(s.Config.ServerName)

	var names []string
	flush := func() {
		if len(names) == 0 {
			return
		}
		u.Queue(base.WithTrailing(strings.Join(names, " ")))
		names = names[:0]
	}

	budget := irc.MaxPayloadLength - base.WithTrailing("").EncodedLength()
	used := 0

	c.ForEachMember(func(member *User) {
		name := c.MemberPrefix(member.ID) + member.Nick()
		if used > 0 && used+1+len(name) > budget {
			flush()
			used = 0
		}
		names = append(names, name)
		if used > 0 {
			used++
		}
		used += len(name)
	})
	flush()

	// 366 RPL_ENDOFNAMES
	s.numericReply(u, rplEndOfNames, "End of NAMES list", c.Name())
}
