// Package logging wraps charmbracelet/log for the host's non-realtime
// diagnostics. Never imported by internal/effect or internal/chain's
// realtime path — only the supervisor's and processor's
// configuration-time code log anything.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New constructs a logger writing structured, leveled output to
// stderr, the same destination every cmd/ binary in this corpus uses.
func New() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
}
