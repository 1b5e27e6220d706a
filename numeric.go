package main

import (
	"github.com/horgh/metallircd/irc"
)

// Numeric reply codes, RFC 2812 values.
const (
	rplWelcome       = "001"
	rplYourHost      = "002"
	rplCreated       = "003"
	rplMyInfo        = "004"
	rplISupport      = "005"
	rplUModeIs       = "221"
	rplAway          = "301"
	rplUnaway        = "305"
	rplNowAway       = "306"
	rplWhoisUser     = "311"
	rplWhoisServer   = "312"
	rplWhoisOperator = "313"
	rplEndOfWho      = "315"
	rplWhoisIdle     = "317"
	rplEndOfWhois    = "318"
	rplWhoisChannels = "319"
	rplList          = "322"
	rplListEnd       = "323"
	rplChannelModeIs = "324"
	rplCreationTime  = "329"
	rplNoTopic       = "331"
	rplTopic         = "332"
	rplInviting      = "341"
	rplWhoReply      = "352"
	rplNameReply     = "353"
	rplEndOfNames    = "366"
	rplMotd          = "372"
	rplMotdStart     = "375"
	rplEndOfMotd     = "376"
	rplYoureOper     = "381"
	rplTime          = "391"

	errNoSuchNick        = "401"
	errNoSuchChannel     = "403"
	errCannotSendToChan  = "404"
	errNoRecipient       = "411"
	errNoTextToSend      = "412"
	errUnknownCommand    = "421"
	errNoNicknameGiven   = "431"
	errErroneusNickname  = "432"
	errNicknameInUse     = "433"
	errUserNotInChannel  = "441"
	errNotOnChannel      = "442"
	errNotRegistered     = "451"
	errNeedMoreParams    = "461"
	errAlreadyRegistred  = "462"
	errPasswdMismatch    = "464"
	errChannelIsFull     = "471"
	errUnknownMode       = "472"
	errInviteOnlyChan    = "473"
	errBannedFromChan    = "474"
	errBadChannelKey     = "475"
	errBadChanMask       = "476"
	errNoChanModes       = "477"
	errBanListFull       = "478"
	errNoPrivileges      = "481"
	errChanOpPrivsNeeded = "482"
	errUModeUnknownFlag  = "501"
	errUsersDontMatch    = "502"
)

// numericReply queues a numeric reply with a trailing argument to the
// user. The user's nickname is always the first argument.
func (s *Server) numericReply(u *User, code, trailing string,
	args ...string) {
	m := irc.New(code, append([]string{u.Nick()}, args...)...).
		WithPrefix(s.Config.ServerName).
		WithTrailing(trailing)
	u.Queue(m)
}

// numericArgs queues a numeric reply carrying positional arguments only,
// e.g. 324 RPL_CHANNELMODEIS.
func (s *Server) numericArgs(u *User, code string, args ...string) {
	m := irc.New(code, append([]string{u.Nick()}, args...)...).
		WithPrefix(s.Config.ServerName)
	u.Queue(m)
}

// needMoreParams queues 461 for the command.
func (s *Server) needMoreParams(u *User, command string) {
	// 461 ERR_NEEDMOREPARAMS
	s.numericReply(u, errNeedMoreParams, "Not enough parameters", command)
}
