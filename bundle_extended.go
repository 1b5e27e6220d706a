package main

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/horgh/metallircd/irc"
)

// extendedModesBundle adds the invite-only (+i), key (+k), and member
// limit (+l) channel modes, plus the INVITE command that pairs with +i.
// It registers behind the core bundles, so its flags are consulted first.
type extendedModesBundle struct{}

func newExtendedModesBundle(s *Server,
	prim toml.Primitive) (interface{}, error) {
	// No options yet; the table only has to name the bundle.
	return &extendedModesBundle{}, nil
}

func (b *extendedModesBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	if strings.ToUpper(m.Command) != "INVITE" {
		return false, actionNothing()
	}
	b.invite(s, u, m)
	return true, actionNothing()
}

func (b *extendedModesBundle) invite(s *Server, u *User, m irc.Message) {
	if len(m.Args) < 2 {
		s.needMoreParams(u, "INVITE")
		return
	}
	nick, name := m.Args[0], m.Args[1]

	target := s.Users.ByNick(nick)
	if target == nil {
		// 401 ERR_NOSUCHNICK
		s.numericReply(u, errNoSuchNick, "No such nick/channel", nick)
		return
	}

	c := s.Channels.Get(name)
	if c == nil {
		// 403 ERR_NOSUCHCHANNEL
		s.numericReply(u, errNoSuchChannel, "No such channel", name)
		return
	}
	if !c.HasMember(u.ID) {
		// 442 ERR_NOTONCHANNEL
		s.numericReply(u, errNotOnChannel,
			"You're not on that channel", c.Name())
		return
	}
	if c.HasMode(ChanModeInviteOnly) && !u.IsOperator() &&
		!c.MemberHasMode(u.ID, MemberModeOp) {
		// 482 ERR_CHANOPRIVSNEEDED
		s.numericReply(u, errChanOpPrivsNeeded,
			"You're not channel operator", c.Name())
		return
	}

	c.Invite(target.ID)

	// 341 RPL_INVITING
	s.numericArgs(u, rplInviting, target.Nick(), c.Name())
	target.Queue(irc.New("INVITE", target.Nick(), c.Name()).
		WithPrefix(u.Fullname()))
}

func (b *extendedModesBundle) HandleChannelMode(s *Server, actor *User,
	c *Channel, flag byte, set bool, args *modeArgs) ModeVerdict {
	switch flag {
	case ChanModeInviteOnly:
		if set {
			c.SetMode(flag)
		} else {
			c.UnsetMode(flag)
		}
		return ModeAccepted

	case ChanModeKey:
		if !set {
			c.UnsetMode(flag)
			c.SetKey("")
			return ModeAccepted
		}
		key, ok := args.Next()
		if !ok {
			s.needMoreParams(actor, "MODE")
			return ModeRefused
		}
		c.SetKey(key)
		c.SetMode(flag)
		return ModeAccepted

	case ChanModeLimit:
		if !set {
			c.UnsetMode(flag)
			c.SetLimit(0)
			return ModeAccepted
		}
		arg, ok := args.Next()
		if !ok {
			s.needMoreParams(actor, "MODE")
			return ModeRefused
		}
		limit, err := strconv.Atoi(arg)
		if err != nil || limit <= 0 {
			s.needMoreParams(actor, "MODE")
			return ModeRefused
		}
		c.SetLimit(limit)
		c.SetMode(flag)
		return ModeAccepted
	}
	return ModeUnknown
}
