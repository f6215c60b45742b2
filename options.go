package lottieschema

import (
	"io"
	"log/slog"

	"github.com/reoring/lottieschema/augment"
)

// Dialect names the schema vocabulary the validator relies on.
type Dialect = augment.Dialect

// DefaultDialect returns the Lottie vocabulary.
func DefaultDialect() Dialect { return augment.DefaultDialect() }

// Options configures a Validator.
type Options struct {
	// DocsURL is the base of the documentation links attached to findings.
	DocsURL string
	// Dialect overrides the schema vocabulary; nil means DefaultDialect().
	Dialect *Dialect
	// Duplicates is the severity of duplicated object keys. Ignore skips
	// the token scan entirely.
	Duplicates Severity
	// MaxDepth rejects documents nested deeper than this; 0 disables.
	MaxDepth int
	// Language selects the message catalog ("en", "ja"). Empty uses the
	// process-wide i18n translator.
	Language string
	// Logger receives Debug records; nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the command line tool.
func DefaultOptions() Options {
	return Options{Duplicates: Warn, MaxDepth: 512}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}
