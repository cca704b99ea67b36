package pool

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// logger is the package-level logger used for the ambient operational
// logging spec'd in §4.4 ("out-of-memory is logged"). It follows the
// global-logger idiom used across the retrieval pack (e.g.
// flashring/external/cache, go-sdk/pkg/metric) rather than threading a
// logger through every constructor.
var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "pool").Logger()

// SetLogOutput redirects the package logger's writer. Tests use this to
// capture output instead of writing to stderr.
func SetLogOutput(w io.Writer) {
	logger = zerolog.New(w).With().Timestamp().Str("component", "pool").Logger()
}

// SetLogLevel adjusts the minimum level the package logger emits at.
func SetLogLevel(level zerolog.Level) {
	logger = logger.Level(level)
}
