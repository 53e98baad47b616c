// Package logging provides structured logging for the CLI driver
// layer (manifest loading, dependency fetching, script execution),
// following the slog idiom the wider example pack reaches for rather
// than a bespoke line-formatting log wrapper.
package logging

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// New returns a text-handler slog.Logger writing to stderr, tagged with a
// fresh run id so concurrent invocations (e.g. `golua deps install`
// racing a `golua run` in CI) can be told apart in aggregated logs.
func New() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler).With("run_id", uuid.NewString())
}
