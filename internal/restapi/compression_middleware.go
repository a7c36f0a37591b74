package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// CompressionConfig holds configuration options for response compression
type CompressionConfig struct {
	// MinSize is the smallest body in bytes worth compressing.
	MinSize int
	// Level is the gzip level, 1-9.
	Level int
}

func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{MinSize: 1024, Level: 6}
}

// NewCompressionMiddleware gzips responses for clients that accept it.
// An invalid config falls back to gzhttp defaults.
func NewCompressionMiddleware(config CompressionConfig) func(http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(config.MinSize),
		gzhttp.CompressionLevel(config.Level),
	)
	if err != nil {
		return func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) }
	}
	return func(next http.Handler) http.Handler { return wrapper(next) }
}

// CompressionMiddleware applies gzip compression with default settings
func CompressionMiddleware(next http.Handler) http.Handler {
	return NewCompressionMiddleware(DefaultCompressionConfig())(next)
}
