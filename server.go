package main

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"

	"github.com/horgh/metallircd/irc"
)

// workPoolSize bounds the pool of user identifiers waiting for a worker
// round. Each live user occupies at most one slot.
const workPoolSize = 4096

// Server owns the shared state and the tasks operating on it: one
// acceptor, N workers, one recycler. The logger is owned by main and torn
// down after the server joins.
type Server struct {
	Config   *Config
	Logger   *Logger
	Users    *UserManager
	Channels *ChannelManager
	Pipeline *Pipeline

	listener     net.Listener
	pool         chan uuid.UUID
	recycleChan  chan recycleItem
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	wg        conc.WaitGroup
	startedAt time.Time
}

type recycleItem struct {
	id     uuid.UUID
	action RecyclingAction
}

// NewServer wires up the registries and the handler pipeline.
func NewServer(cfg *Config, logger *Logger) *Server {
	s := &Server{
		Config:       cfg,
		Logger:       logger,
		Users:        NewUserManager(),
		Channels:     NewChannelManager(),
		Pipeline:     NewPipeline(),
		pool:         make(chan uuid.UUID, workPoolSize),
		recycleChan:  make(chan recycleItem, workPoolSize),
		shutdownChan: make(chan struct{}),
		startedAt:    time.Now(),
	}
	registerBundles(s)
	return s
}

// Start binds the listen socket and spawns the acceptor, the workers, and
// the recycler.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp",
		fmt.Sprintf("%s:%d", s.Config.Address, s.Config.Port))
	if err != nil {
		return errors.Wrap(err, "unable to bind port")
	}
	s.listener = ln

	s.Logger.Info("%s listening on %s", s.Config.ServerName,
		ln.Addr().String())

	s.wg.Go(s.acceptLoop)
	for i := 0; i < s.Config.Workers; i++ {
		s.wg.Go(s.worker)
	}
	s.wg.Go(s.recycler)

	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown signals every task to stop. Idempotent.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		_ = s.listener.Close()
	})
}

// Wait blocks until every server task has exited.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) isShuttingDown() bool {
	select {
	case <-s.shutdownChan:
		return true
	default:
		return false
	}
}

// serverMessage builds a message originating from the server itself.
func (s *Server) serverMessage(command string, args ...string) irc.Message {
	return irc.New(command, args...).WithPrefix(s.Config.ServerName)
}
