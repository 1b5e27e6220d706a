package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the parsed server configuration.
type Config struct {
	// ServerName is the identity used as the prefix on server-originated
	// messages.
	ServerName string

	Address string
	Port    int

	LogLevel string
	LogFile  string

	// Workers is the number of client handler tasks.
	Workers int

	// IOWait bounds socket reads and writes so handler loops stay
	// responsive.
	IOWait time.Duration

	// Opers maps operator name to password for OPER.
	Opers map[string]string

	// Modules holds the raw [module.<name>] tables, decoded lazily by the
	// bundle they configure.
	Modules map[string]toml.Primitive

	// Meta is needed to decode the module primitives.
	Meta toml.MetaData
}

type fileConfig struct {
	Metallircd serverSection             `toml:"metallircd"`
	Opers      map[string]string         `toml:"opers"`
	Module     map[string]toml.Primitive `toml:"module"`
}

type serverSection struct {
	ServerName string `toml:"server_name"`
	Address    string `toml:"address"`
	Port       int    `toml:"port"`
	LogLevel   string `toml:"loglevel"`
	LogFile    string `toml:"logfile"`
	Workers    int    `toml:"workers"`
}

const (
	defaultWorkers = 2
	defaultIOWait  = 50 * time.Millisecond
)

// checkAndParseConfig reads the TOML configuration and validates the
// required keys.
func checkAndParseConfig(path string) (*Config, error) {
	var raw fileConfig
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration file")
	}

	if raw.Metallircd.ServerName == "" {
		return nil, errors.New("configuration problem: you must set server_name")
	}
	if raw.Metallircd.Address == "" {
		return nil, errors.New("configuration problem: you must set address")
	}
	if raw.Metallircd.Port <= 0 || raw.Metallircd.Port > 65535 {
		return nil, errors.New("configuration problem: you must set a valid port")
	}

	if _, err := parseLogLevel(raw.Metallircd.LogLevel); err != nil {
		return nil, errors.Wrap(err, "configuration problem")
	}

	workers := raw.Metallircd.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	opers := raw.Opers
	if opers == nil {
		opers = make(map[string]string)
	}

	return &Config{
		ServerName: raw.Metallircd.ServerName,
		Address:    raw.Metallircd.Address,
		Port:       raw.Metallircd.Port,
		LogLevel:   raw.Metallircd.LogLevel,
		LogFile:    raw.Metallircd.LogFile,
		Workers:    workers,
		IOWait:     defaultIOWait,
		Opers:      opers,
		Modules:    raw.Module,
		Meta:       md,
	}, nil
}
