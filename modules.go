package main

import (
	"github.com/BurntSushi/toml"
)

// optionalBundles maps [module.<name>] table names to their initialisers.
// Each initialiser receives the table's raw TOML to decode as it sees fit.
var optionalBundles = map[string]func(s *Server,
	prim toml.Primitive) (interface{}, error){
	"extended-modes": newExtendedModesBundle,
}

// registerBundles installs the handler bundles. Registration order
// matters twice over: command and mode dispatch walk the chains in
// reverse (later bundles win), while the outbound message chain runs
// forward (the away auto-reply must precede the gates, which precede
// delivery and fan-out).
func registerBundles(s *Server) {
	s.Pipeline.Register(&coreBundle{})
	s.Pipeline.Register(&channelsBundle{})
	s.Pipeline.Register(&textBundle{})
	s.Pipeline.Register(&modesBundle{})
	s.Pipeline.Register(&awayBundle{})
	s.Pipeline.Register(&whoBundle{})

	s.Pipeline.Register(&chanGateHandler{})
	s.Pipeline.Register(&queryDeliverHandler{})
	s.Pipeline.Register(&chanFanoutHandler{})

	configured := make(map[string]bool)
	for name, prim := range s.Config.Modules {
		configured[name] = true

		var table struct {
			Path string `toml:"path"`
		}
		if err := s.Config.Meta.PrimitiveDecode(prim,
			&table); err != nil || table.Path == "" {
			s.Logger.Error("module %q has no path, skipping", name)
			continue
		}

		init, ok := optionalBundles[name]
		if !ok {
			s.Logger.Error("unknown module %q in configuration, skipping",
				name)
			continue
		}
		bundle, err := init(s, prim)
		if err != nil {
			s.Logger.Error("module %q failed to initialise, skipping: %s",
				name, err)
			continue
		}
		s.Pipeline.Register(bundle)
	}

	// Bundles not mentioned in the configuration load with defaults.
	for name, init := range optionalBundles {
		if configured[name] {
			continue
		}
		bundle, err := init(s, toml.Primitive{})
		if err != nil {
			s.Logger.Error("module %q failed to initialise, skipping: %s",
				name, err)
			continue
		}
		s.Pipeline.Register(bundle)
	}
}
