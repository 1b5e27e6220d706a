package main

import (
	"github.com/horgh/metallircd/irc"
)

// recycler is the single task allowed to take exclusive write access to
// the user registry: it applies nickname changes, tears down dead users,
// and garbage-collects emptied channels.
func (s *Server) recycler() {
	for {
		select {
		case item := <-s.recycleChan:
			s.recycleOne(item)
		case <-s.shutdownChan:
			s.shutdownTeardown()
			return
		}
	}
}

func (s *Server) recycleOne(item recycleItem) {
	u := s.Users.ByID(item.id)
	if u == nil {
		return
	}

	if s.isShuttingDown() || u.isDead() {
		s.destroyUser(u)
		return
	}

	if item.action.Kind == ActionChangeNick {
		s.applyNickChange(u, item.action.Nick)
	}

	s.pool <- item.id
}

// applyNickChange performs the rename under the registry's exclusive
// section and advertises it, exactly once, to every user sharing a
// channel with the renamed user (and to the user themselves).
func (s *Server) applyNickChange(u *User, newNick string) {
	oldFullname := u.Fullname()

	if !s.Users.Rename(u.ID, newNick) {
		// 433 ERR_NICKNAMEINUSE
		s.numericReply(u, errNicknameInUse, "Nickname is already in use",
			newNick)
		return
	}

	s.Logger.Debug("%s is now known as %s", oldFullname, newNick)
	u.sendToKnown(irc.New("NICK", newNick).WithPrefix(oldFullname), true)
}

// destroyUser removes the user from the registry, purges the ghost
// references their memberships leave behind, and destroys any channel
// that became empty. Queued outbound messages are flushed to the socket
// on a best-effort basis before it closes.
func (s *Server) destroyUser(u *User) {
	memberships := u.Memberships()
	for _, m := range memberships {
		m.sever()
	}
	for _, m := range memberships {
		c := m.Channel()
		c.Cleanup()
		s.Channels.DestroyIfEmpty(c.Name())
	}

	s.Users.Destroy(u.ID)
	s.flushAndClose(u)
	s.Logger.Debug("recycled user %s", u.ID)
}

func (s *Server) flushAndClose(u *User) {
	u.socketMu.Lock()
	defer u.socketMu.Unlock()

	if u.conn == nil {
		return
	}
	for {
		m, ok := u.nextQueued()
		if !ok {
			break
		}
		if err := u.conn.WriteMessage(m); err != nil {
			break
		}
	}
	_ = u.conn.Close()
}

// shutdownTeardown disconnects every remaining user with a notice,
// destroys them all, and drains the work queues.
func (s *Server) shutdownTeardown() {
	s.Users.ForEach(func(u *User) {
		u.Queue(s.serverMessage("NOTICE", u.Nick()).WithTrailing(
			"You will be disconnected for the reason: Server shutdown."))
		s.destroyUser(u)
	})

	for {
		select {
		case <-s.recycleChan:
		case <-s.pool:
		default:
			return
		}
	}
}
