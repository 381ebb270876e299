package rtf

import (
	"log/slog"

	"github.com/FocuswithJustin/rtftree/internal/logging"
)

// Config contains decoder configuration options.
type Config struct {
	// FallbackCharset decodes hex runs whose charset has no single-byte
	// table, such as double-byte codepages.
	FallbackCharset Charset

	// Logger receives every diagnostic at debug level. Nil uses the
	// process-wide logger.
	Logger *slog.Logger

	// SkipUnicodeFallback drops the \uc replacement characters that follow
	// each \u escape.
	SkipUnicodeFallback bool
}

// DefaultConfig returns the default decoder configuration.
func DefaultConfig() Config {
	return Config{
		FallbackCharset:     CharsetCP1252,
		SkipUnicodeFallback: true,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.GetLogger()
}

func (c Config) fallback() Charset {
	if c.FallbackCharset.Supported() {
		return c.FallbackCharset
	}
	return CharsetCP1252
}
