package main

import (
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/horgh/metallircd/irc"
)

// acceptWait bounds each accept call so the acceptor can poll negotiating
// connections and the shutdown flag.
const acceptWait = 100 * time.Millisecond

// PendingUser is a connection in the Negotiating state: accepted, not yet
// registered. The acceptor owns it exclusively, so no locking is needed.
type PendingUser struct {
	conn     *Conn
	hostname string

	nick     string
	username string
	realName string

	dead bool
}

func newPendingUser(conn *Conn) *PendingUser {
	hostname := "unknown"
	if conn.IP != nil {
		hostname = conn.IP.String()
	}
	return &PendingUser{conn: conn, hostname: hostname}
}

// ready reports whether both NICK and USER have been accepted.
func (p *PendingUser) ready() bool {
	return p.nick != "" && p.username != ""
}

// acceptLoop accepts new connections and walks every negotiating
// connection one step per pass, registering those that complete the
// handshake.
func (s *Server) acceptLoop() {
	var pending []*PendingUser

	for {
		if s.isShuttingDown() {
			for _, p := range pending {
				_ = p.conn.Close()
			}
			return
		}

		if tl, ok := s.listener.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptWait))
		}
		conn, err := s.listener.Accept()
		if err == nil {
			s.Logger.Debug("accepted connection from %s",
				conn.RemoteAddr().String())
			pending = append(pending,
				newPendingUser(NewConn(conn, s.Config.IOWait)))
		} else if !isTimeout(err) && !s.isShuttingDown() {
			s.Logger.Error("accept error: %s", err)
		}

		var notFinished []*PendingUser
		for _, p := range pending {
			s.stepNegotiate(p)

			if p.dead {
				_ = p.conn.Close()
				continue
			}

			if p.ready() {
				if s.registerUser(p) {
					continue
				}
			}
			notFinished = append(notFinished, p)
		}
		pending = notFinished
	}
}

// negotiateLinesPerStep caps how many lines one connection may feed the
// acceptor per pass, so a floody client cannot starve the others.
const negotiateLinesPerStep = 10

// stepNegotiate reads and handles lines from a negotiating connection
// until the read times out.
func (s *Server) stepNegotiate(p *PendingUser) {
	for i := 0; i < negotiateLinesPerStep && !p.dead && !p.ready(); i++ {
		line, err := p.conn.ReadLine()
		if err != nil {
			if !isTimeout(err) {
				p.dead = true
			}
			return
		}

		if !utf8.ValidString(line) {
			p.dead = true
			return
		}

		m, err := irc.Parse(line)
		if err != nil {
			s.Logger.Debug("malformed line during negotiation: %s", err)
			continue
		}

		s.handleNegotiateMessage(p, m)
	}
}

func (s *Server) handleNegotiateMessage(p *PendingUser, m irc.Message) {
	switch strings.ToUpper(m.Command) {
	case "NICK":
		if len(m.Args) == 0 && !m.HasTrailing {
			// 431 ERR_NONICKNAMEGIVEN
			s.pendingReply(p, errNoNicknameGiven, "No nickname given")
			return
		}
		nick := m.Trailing
		if len(m.Args) > 0 {
			nick = m.Args[0]
		}
		if !isValidLabel(nick) {
			// 432 ERR_ERRONEUSNICKNAME
			s.pendingReply(p, errErroneusNickname, "Erroneous nickname",
				nick)
			return
		}
		p.nick = nick

	case "USER":
		args := m.Args
		if m.HasTrailing {
			args = append(args, m.Trailing)
		}
		if len(args) < 4 {
			// 461 ERR_NEEDMOREPARAMS
			s.pendingReply(p, errNeedMoreParams, "Not enough parameters",
				"USER")
			return
		}
		p.username = args[0]
		p.realName = args[3]

	case "QUIT":
		p.dead = true

	default:
		// 451 ERR_NOTREGISTERED
		s.pendingReply(p, errNotRegistered, "You have not registered")
	}
}

// registerUser attempts the atomic registry insertion. On a nickname
// collision the connection stays in Negotiating with its nick cleared.
func (s *Server) registerUser(p *PendingUser) bool {
	u, err := s.Users.Insert(p.nick, p.username, p.realName, p.hostname,
		p.conn)
	if err != nil {
		// 433 ERR_NICKNAMEINUSE
		s.pendingReply(p, errNicknameInUse, "Nickname is already in use",
			p.nick)
		p.nick = ""
		return false
	}

	s.welcome(u)
	s.Logger.Info("new user %s with id %s", u.Fullname(), u.ID)

	s.pool <- u.ID
	return true
}

// pendingReply writes a numeric directly to a negotiating connection. The
// target nickname is "*" until registration completes.
func (s *Server) pendingReply(p *PendingUser, code, trailing string,
	args ...string) {
	m := irc.New(code, append([]string{"*"}, args...)...).
		WithPrefix(s.Config.ServerName).
		WithTrailing(trailing)
	if err := p.conn.WriteMessage(m); err != nil && !isTimeout(err) {
		p.dead = true
	}
}

// welcome queues the registration burst: 001-005 and the MOTD chain.
func (s *Server) welcome(u *User) {
	nick := u.Nick()

	// 001 RPL_WELCOME
	s.numericReply(u, rplWelcome,
		"Welcome to the "+s.Config.ServerName+" IRC Network "+u.Fullname())
	// 002 RPL_YOURHOST
	s.numericReply(u, rplYourHost,
		"Your host is "+s.Config.ServerName+", running version metallircd-1")
	// 003 RPL_CREATED
	s.numericReply(u, rplCreated,
		"This server was created "+s.startedAt.Format(time.RFC1123))
	// 004 RPL_MYINFO
	s.numericArgs(u, rplMyInfo, s.Config.ServerName, "metallircd-1",
		userModeLetters, chanModeLetters)
	// 005 RPL_ISUPPORT
	u.Queue(irc.New(rplISupport, nick, "CASEMAPPING=rfc1459", "CHANTYPES=#",
		"PREFIX=(ov)@+").
		WithPrefix(s.Config.ServerName).
		WithTrailing("are supported by this server"))

	s.motd(u)
}

// motd queues the 375/372/376 chain.
func (s *Server) motd(u *User) {
	// 375 RPL_MOTDSTART
	s.numericReply(u, rplMotdStart, "- "+s.Config.ServerName+
		" Message of the day - ")
	// 372 RPL_MOTD
	s.numericReply(u, rplMotd, "- Welcome to "+s.Config.ServerName)
	// 376 RPL_ENDOFMOTD
	s.numericReply(u, rplEndOfMotd, "End of MOTD command")
}
