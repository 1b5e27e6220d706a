// metallircd is a multi-user IRC server implementing the client protocol
// of RFC 2812.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "./metallirc.toml",
		"Path to the configuration file.")
	flag.Parse()

	cfg, err := checkAndParseConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	server := NewServer(cfg, logger)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		_ = logger.Close()
		os.Exit(1)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	waitForShutdown(server, logger, signals)
	_ = logger.Close()
}

// waitForShutdown blocks until every server task exits, shutting the
// server down on the first signal. It returns only once the signal
// handler has quiesced, so the logger may be closed afterwards.
func waitForShutdown(server *Server, logger *Logger,
	signals chan os.Signal) {
	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		for sig := range signals {
			logger.Info("received signal %s, shutting down", sig)
			server.Shutdown()
		}
	}()

	server.Wait()
	signal.Stop(signals)
	close(signals)
	<-handlerDone
}
