// Package supervisor implements the event-bus consumer loop (§4.J):
// it reacts to audio_client_change by re-running auto-connect, to a
// fatal Unrecoverable event by logging and returning a non-zero exit
// code, and to audio_stopped by returning cleanly. Grounded on the
// original driver loop (_examples/original_source's main.cxx), which
// blocks on the same kind of bounded event queue waiting for the
// audio thread to report lifecycle transitions.
package supervisor

import (
	"github.com/charmbracelet/log"

	"github.com/soundgraph/effectshost/internal/eventbus"
	"github.com/soundgraph/effectshost/internal/herr"
)

// autoConnector is the subset of *processor.Processor the loop needs.
// Declared locally (rather than importing internal/processor) so the
// supervisor depends only on the narrow capability it actually uses.
type autoConnector interface {
	RunAutoConnect()
}

// Run consumes bus until it closes, a fatal event arrives, or
// audio_stopped is observed. Returns the process exit code: 0 on a
// clean audio_stopped, 1 on any Fatal event or an unexpectedly closed
// bus.
func Run(bus *eventbus.Bus, proc autoConnector, logger *log.Logger) int {
	for {
		event, ok := bus.Recv()
		if !ok {
			logger.Error("event bus closed unexpectedly")
			return 1
		}

		switch event.Kind {
		case eventbus.AudioStarted:
			logger.Info("audio started")
		case eventbus.AudioProcessed:
			// No per-cycle diagnostic; logging every callback would
			// itself violate the realtime/non-realtime boundary this
			// bus exists to preserve.
		case eventbus.AudioClientChange:
			logger.Info("audio client graph changed, re-running auto-connect")
			proc.RunAutoConnect()
		case eventbus.AudioStopped:
			logger.Info("audio stopped, shutting down")
			return 0
		case eventbus.Fatal:
			kind := herr.Unrecoverable
			if he, ok := event.Err.(*herr.Error); ok {
				kind = he.Kind
			}
			logger.Error("fatal event received", "kind", kind, "err", event.Err)
			return 1
		}
	}
}
