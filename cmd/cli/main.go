// Command dm-engine reads a SimulationInput from a file argument (or stdin), runs the
// distance matching simulation, and writes the SimulationLog JSON to stdout.
//
// Files ending in .toml are read as TOML, everything else as JSON.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cxd309/dm-engine/internal/engine"
)

func main() {
	var (
		level  = flag.String("log-level", "warn", "log level written to stderr (debug, info, warn, error)")
		asTOML = flag.Bool("toml", false, "read the input as TOML regardless of its extension")
	)
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", *level, err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var data []byte
	if path := flag.Arg(0); path != "" {
		data, err = os.ReadFile(path)
		*asTOML = *asTOML || strings.EqualFold(filepath.Ext(path), ".toml")
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("error reading input")
	}

	run := engine.RunJSON
	if *asTOML {
		run = engine.RunTOML
	}
	result, err := run(string(data))
	if err != nil {
		log.Fatal().Err(err).Msg("simulation error")
	}

	fmt.Println(result)
}
