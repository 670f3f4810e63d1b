package http

import "time"

const DefaultReadTimeout = 200 * time.Millisecond

// Config holds the per-connection tunables. Zero fields take their defaults.
type Config struct {
	// ReadBufferSize bounds a single read from the connection.
	ReadBufferSize  int
	WriteBufferSize int

	// ReadTimeout bounds a single read. A read that times out without data
	// counts as an idle read.
	ReadTimeout time.Duration
	// MaxIdleReads is the number of consecutive idle reads after which the
	// connection is closed.
	MaxIdleReads int

	MaxHeaderBytes int
	MaxBodyBytes   int
}

func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  DefaultReadBufferSize,
		WriteBufferSize: DefaultWriteBufferSize,
		ReadTimeout:     DefaultReadTimeout,
		MaxIdleReads:    DefaultMaxIdleReads,
		MaxHeaderBytes:  DefaultMaxHeaderBytes,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

func (config Config) withDefaults() Config {
	defaults := DefaultConfig()

	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = defaults.ReadBufferSize
	}
	if config.WriteBufferSize <= 0 {
		config.WriteBufferSize = defaults.WriteBufferSize
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.MaxIdleReads <= 0 {
		config.MaxIdleReads = defaults.MaxIdleReads
	}
	if config.MaxHeaderBytes <= 0 {
		config.MaxHeaderBytes = defaults.MaxHeaderBytes
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}

	return config
}
