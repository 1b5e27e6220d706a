package main

import (
	"github.com/google/uuid"

	"github.com/horgh/metallircd/irc"
)

// linesPerRound caps inbound lines handled in one worker round so a
// flooding client cannot hold a worker indefinitely.
const linesPerRound = 10

// worker claims user identifiers from the pool, performs one round of
// outbound drain plus inbound handling, and hands the identifier to the
// recycler.
func (s *Server) worker() {
	for {
		select {
		case <-s.shutdownChan:
			return
		case id := <-s.pool:
			action := s.handleUser(id)
			s.recycleChan <- recycleItem{id: id, action: action}
		}
	}
}

func (s *Server) handleUser(id uuid.UUID) RecyclingAction {
	u := s.Users.ByID(id)
	if u == nil {
		return actionNothing()
	}

	s.drainOutbound(u)
	if u.isDead() {
		return actionNothing()
	}
	return s.readInbound(u)
}

// drainOutbound writes the user's queued messages to their socket.
func (s *Server) drainOutbound(u *User) {
	u.socketMu.Lock()
	defer u.socketMu.Unlock()

	if u.conn == nil {
		return
	}

	for {
		m, ok := u.nextQueued()
		if !ok {
			return
		}
		if err := u.conn.WriteMessage(m); err != nil {
			if !isTimeout(err) {
				s.quitDead(u, "Connection closed.")
			}
			return
		}
	}
}

// readInbound reads, parses, and dispatches inbound lines until the read
// times out, the user dies, or a handler asks for the recycler.
func (s *Server) readInbound(u *User) RecyclingAction {
	for i := 0; i < linesPerRound; i++ {
		u.socketMu.Lock()
		line, err := u.conn.ReadLine()
		u.socketMu.Unlock()

		if err != nil {
			if !isTimeout(err) {
				s.quitDead(u, "Connection closed.")
			}
			return actionNothing()
		}

		m, err := irc.Parse(line)
		if err != nil {
			s.Logger.Debug("malformed line from %s: %s", u.Nick(), err)
			continue
		}

		action := s.Pipeline.DispatchCommand(s, u, m)
		switch action.Kind {
		case ActionZombify:
			u.markDead()
			return actionNothing()
		case ActionChangeNick:
			return action
		}
	}
	return actionNothing()
}

// quitDead advertises a transport failure to the user's channel peers and
// flags the user for teardown.
func (s *Server) quitDead(u *User, reason string) {
	if u.isDead() {
		return
	}
	u.markDead()
	u.sendToKnown(irc.New("QUIT").
		WithPrefix(u.Fullname()).
		WithTrailing(reason), false)
}
