package main

import (
	"fmt"
	"os"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger is the server's log sink: producers push formatted lines onto a
// queue and a dedicated goroutine drains them to the log file. Close
// drains whatever remains, so the logger must be the last component shut
// down.
type Logger struct {
	log   *logrus.Logger
	file  *os.File
	queue chan logEntry
	done  chan struct{}
}

type logEntry struct {
	level logrus.Level
	text  string
}

const (
	logQueueSize    = 4096
	logSyncInterval = 30 * time.Second
)

// NewLogger opens the log file in append mode (standard error when path is
// empty) and starts the sink goroutine.
func NewLogger(level, path string) (*Logger, error) {
	parsed, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}

	out := os.Stderr
	var file *os.File
	if path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY,
			0644)
		if err != nil {
			return nil, errors.Wrap(err, "unable to open log file")
		}
		out = file
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(parsed)
	log.SetFormatter(&nested.Formatter{
		TimestampFormat: "02/Jan/2006:15:04:05 -0700",
		ShowFullLevel:   true,
		NoColors:        true,
	})

	l := &Logger{
		log:   log,
		file:  file,
		queue: make(chan logEntry, logQueueSize),
		done:  make(chan struct{}),
	}
	go l.sink()

	return l, nil
}

func parseLogLevel(level string) (logrus.Level, error) {
	switch level {
	case "", "Info":
		return logrus.InfoLevel, nil
	case "Debug":
		return logrus.DebugLevel, nil
	case "Warning":
		return logrus.WarnLevel, nil
	case "Error":
		return logrus.ErrorLevel, nil
	}
	return 0, errors.Errorf("unknown log level: %s", level)
}

func (l *Logger) sink() {
	ticker := time.NewTicker(logSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-l.queue:
			if !ok {
				close(l.done)
				return
			}
			l.log.Log(entry.level, entry.text)
		case <-ticker.C:
			l.sync()
		}
	}
}

func (l *Logger) sync() {
	if l.file != nil {
		_ = l.file.Sync()
	}
}

func (l *Logger) push(level logrus.Level, format string,
	args ...interface{}) {
	l.queue <- logEntry{level: level, text: fmt.Sprintf(format, args...)}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.push(logrus.DebugLevel, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.push(logrus.InfoLevel, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.push(logrus.WarnLevel, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.push(logrus.ErrorLevel, format, args...)
}

// Close drains the queue and closes the log file. Callers must have
// stopped every producer first.
func (l *Logger) Close() error {
	close(l.queue)
	<-l.done

	if l.file != nil {
		if err := l.file.Sync(); err != nil {
			return errors.Wrap(err, "unable to sync log file")
		}
		return errors.Wrap(l.file.Close(), "unable to close log file")
	}
	return nil
}
