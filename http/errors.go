package http

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest reports an empty input or a malformed request line.
	ErrBadRequest = errors.New("http: bad request")

	// ErrMissingHost reports a request without a Host header.
	ErrMissingHost = fmt.Errorf("%w: missing host header", ErrBadRequest)

	// ErrRequestTooLarge reports headers or a declared body beyond the
	// configured limits.
	ErrRequestTooLarge = fmt.Errorf("%w: request too large", ErrBadRequest)

	// ErrURLParse reports a target that cannot be resolved into a URL.
	ErrURLParse = errors.New("http: unable to parse request url")

	ErrRead  = errors.New("http: read failed")
	ErrWrite = errors.New("http: write failed")

	// ErrIdle reports a connection that stayed silent for too many reads.
	ErrIdle = errors.New("http: connection idle")

	// ErrNoStatus reports a response without a status code reaching the
	// writer.
	ErrNoStatus = errors.New("http: response has no status")

	ErrNoCacheEntry = errors.New("http: no cache entry")
	ErrZeroWorkers  = errors.New("http: worker pool needs at least one worker")
	ErrPoolClosed   = errors.New("http: worker pool closed")
	ErrServerClosed = errors.New("http: server closed")
)
