// Command effectshost is the CLI entry point (§4.I / §6): it takes
// one positional argument, the path to a YAML configuration document,
// builds and starts the processor described by it, and runs the
// supervisor loop until the audio server shuts down or a fatal event
// is reported. Grounded on the teacher pack's cmd/*/main.go
// convention of pflag for flag parsing even when the only required
// argument is positional (_examples/doismellburning-samoyed's
// cmd/kissutil and friends).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/soundgraph/effectshost/internal/config"
	"github.com/soundgraph/effectshost/internal/eventbus"
	"github.com/soundgraph/effectshost/internal/logging"
	"github.com/soundgraph/effectshost/internal/processor"
	"github.com/soundgraph/effectshost/internal/supervisor"
)

const (
	defaultSampleRate    = 44100
	defaultMaxBufferSize = 512
)

func main() {
	os.Exit(run())
}

func run() int {
	sampleRate := pflag.Float64("sample-rate", defaultSampleRate, "audio server sample rate, Hz")
	maxBufferSize := pflag.Int("max-buffer-size", defaultMaxBufferSize, "audio server max buffer size, frames")
	pflag.Usage = usage
	pflag.Parse()

	if pflag.NArg() != 1 {
		usage()
		return 1
	}
	configPath := pflag.Arg(0)

	logger := logging.New()

	doc, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", configPath, "err", err)
		return 1
	}

	bus := eventbus.New()
	proc := processor.New(*sampleRate, *maxBufferSize, bus, logger)
	defer proc.Close()

	if err := proc.Start(doc); err != nil {
		logger.Error("failed to start processor", "err", err)
		return 1
	}

	return supervisor.Run(bus, proc, logger)
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: effectshost [flags] <config.yaml>")
	pflag.PrintDefaults()
}
