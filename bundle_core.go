package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/horgh/metallircd/irc"
)

// coreBundle carries the connection-level commands: NICK, USER, QUIT,
// PING, MOTD, TIME, OPER, DIE.
type coreBundle struct{}

func (b *coreBundle) HandleCommand(s *Server, u *User,
	m irc.Message) (bool, RecyclingAction) {
	switch strings.ToUpper(m.Command) {
	case "NICK":
		return true, b.nick(s, u, m)
	case "USER":
		// 462 ERR_ALREADYREGISTRED
		s.numericReply(u, errAlreadyRegistred,
			"Unauthorized command (already registered)")
		return true, actionNothing()
	case "QUIT":
		return true, b.quit(s, u, m)
	case "PING":
		return true, b.ping(s, u, m)
	case "MOTD":
		s.motd(u)
		return true, actionNothing()
	case "TIME":
		// 391 RPL_TIME
		s.numericReply(u, rplTime, time.Now().Format(time.RFC822),
			s.Config.ServerName)
		return true, actionNothing()
	case "OPER":
		return true, b.oper(s, u, m)
	case "DIE":
		return true, b.die(s, u)
	}
	return false, actionNothing()
}

func (b *coreBundle) nick(s *Server, u *User,
	m irc.Message) RecyclingAction {
	if len(m.Args) == 0 && !m.HasTrailing {
		// 431 ERR_NONICKNAMEGIVEN
		s.numericReply(u, errNoNicknameGiven, "No nickname given")
		return actionNothing()
	}

	nick := m.Trailing
	if len(m.Args) > 0 {
		nick = m.Args[0]
	}

	if !isValidLabel(nick) {
		// 432 ERR_ERRONEUSNICKNAME
		s.numericReply(u, errErroneusNickname, "Erroneous nickname", nick)
		return actionNothing()
	}

	if nick == u.Nick() {
		return actionNothing()
	}

	// The rename itself needs the registry's exclusive section, so it goes
	// through the recycler.
	return actionChangeNick(nick)
}

func (b *coreBundle) quit(s *Server, u *User,
	m irc.Message) RecyclingAction {
	reason := "Client Quit"
	if m.HasTrailing {
		reason = m.Trailing
	}

	u.sendToKnown(irc.New("QUIT").
		WithPrefix(u.Fullname()).
		WithTrailing(reason), false)

	u.Queue(irc.New("ERROR").WithTrailing(
		fmt.Sprintf("Closing Link: %s (Quit: %s)", u.Nick(), reason)))

	return actionZombify()
}

func (b *coreBundle) ping(s *Server, u *User,
	m irc.Message) RecyclingAction {
	token := m.Trailing
	if len(m.Args) > 0 {
		token = m.Args[0]
	}
	if token == "" {
		s.needMoreParams(u, "PING")
		return actionNothing()
	}

	u.Queue(s.serverMessage("PONG", s.Config.ServerName).
		WithTrailing(token))
	return actionNothing()
}

func (b *coreBundle) oper(s *Server, u *User,
	m irc.Message) RecyclingAction {
	if len(m.Args) < 2 {
		s.needMoreParams(u, "OPER")
		return actionNothing()
	}

	password, ok := s.Config.Opers[m.Args[0]]
	if !ok || password != m.Args[1] {
		// 464 ERR_PASSWDMISMATCH
		s.numericReply(u, errPasswdMismatch, "Password incorrect")
		return actionNothing()
	}

	u.SetMode(UserModeOperator)
	// 381 RPL_YOUREOPER
	s.numericReply(u, rplYoureOper, "You are now an IRC operator")
	u.Queue(s.serverMessage("MODE", u.Nick(), "+o"))

	s.Logger.Info("%s became an operator", u.Fullname())
	return actionNothing()
}

func (b *coreBundle) die(s *Server, u *User) RecyclingAction {
	if !u.IsOperator() {
		// 481 ERR_NOPRIVILEGES
		s.numericReply(u, errNoPrivileges,
			"Permission Denied- You're not an IRC operator")
		return actionNothing()
	}

	s.Logger.Info("%s issued DIE, shutting down", u.Fullname())
	s.Shutdown()
	return actionNothing()
}
