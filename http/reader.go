package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

type readState uint8

const (
	stateAwaitingHeaders readState = iota
	stateReadingBody
	stateComplete
)

func (state readState) String() string {
	switch state {
	case stateAwaitingHeaders:
		return "awaiting headers"
	case stateReadingBody:
		return "reading body"
	case stateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// requestReader frames requests on a connection. It collects bytes until the
// head is complete, then keeps reading raw bytes until the declared
// Content-Length is satisfied.
type requestReader struct {
	conn   net.Conn
	config Config

	buf   []byte
	chunk []byte

	state     readState
	headEnd   int
	remaining int
	total     int

	idleReads int
	eof       bool
}

func newRequestReader(conn net.Conn, config Config) *requestReader {
	return &requestReader{
		conn:   conn,
		config: config,
		buf:    make([]byte, 0, config.ReadBufferSize),
		chunk:  make([]byte, config.ReadBufferSize),
	}
}

// Next returns the raw bytes of the next request. It returns io.EOF once the
// peer has closed and nothing is buffered, and ErrIdle after too many idle
// reads.
func (rr *requestReader) Next() ([]byte, error) {
	rr.state = stateAwaitingHeaders
	rr.headEnd, rr.remaining, rr.total = 0, 0, 0

	for {
		if err := rr.advance(); err != nil {
			return nil, err
		}
		if rr.state == stateComplete {
			return rr.take(), nil
		}

		if rr.eof {
			if rr.state == stateAwaitingHeaders && len(rr.buf) == 0 {
				return nil, io.EOF
			}
			// The peer closed mid request; hand over what arrived.
			rr.total = len(rr.buf)
			rr.state = stateComplete
			return rr.take(), nil
		}

		if err := rr.read(); err != nil {
			return nil, err
		}
	}
}

func (rr *requestReader) advance() error {
	if rr.state == stateAwaitingHeaders {
		headEnd := findHeadEnd(rr.buf)
		if headEnd < 0 {
			if len(rr.buf) > rr.config.MaxHeaderBytes {
				return fmt.Errorf("%w: head exceeds %d bytes", ErrRequestTooLarge, rr.config.MaxHeaderBytes)
			}
			return nil
		}

		contentLength, declared, err := declaredContentLength(rr.buf[:headEnd])
		if err != nil {
			return err
		}
		if !declared && carriesBody(rr.buf) {
			// Without a length the body is whatever arrived with the head.
			contentLength = len(rr.buf) - headEnd
		}
		if contentLength > rr.config.MaxBodyBytes {
			return fmt.Errorf("%w: body of %d bytes exceeds %d", ErrRequestTooLarge, contentLength, rr.config.MaxBodyBytes)
		}

		rr.headEnd = headEnd
		rr.remaining = contentLength
		rr.state = stateReadingBody
	}

	if rr.state == stateReadingBody {
		received := len(rr.buf) - rr.headEnd
		if received >= rr.remaining {
			rr.total = rr.headEnd + rr.remaining
			rr.remaining = 0
			rr.state = stateComplete
		}
	}

	return nil
}

func (rr *requestReader) read() error {
	if err := rr.conn.SetReadDeadline(time.Now().Add(rr.config.ReadTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrRead, err)
	}

	n, err := rr.conn.Read(rr.chunk)
	if n > 0 {
		rr.buf = append(rr.buf, rr.chunk[:n]...)
		rr.idleReads = 0
	}

	if err == nil {
		if n == 0 {
			return rr.idle()
		}
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if n > 0 {
			return nil
		}
		return rr.idle()
	}

	if errors.Is(err, io.EOF) {
		rr.eof = true
		return nil
	}

	return fmt.Errorf("%w: %w", ErrRead, err)
}

// idle counts an empty read. At the threshold a partial head is handed over
// as is; anything else ends the connection.
func (rr *requestReader) idle() error {
	rr.idleReads++
	if rr.idleReads < rr.config.MaxIdleReads {
		return nil
	}

	if rr.state == stateAwaitingHeaders && len(rr.buf) > 0 {
		rr.idleReads = 0
		rr.total = len(rr.buf)
		rr.state = stateComplete
		return nil
	}

	return fmt.Errorf("%w: %d empty reads while %s", ErrIdle, rr.idleReads, rr.state)
}

// take removes the completed request from the buffer. Bytes past it stay
// buffered for the next request.
func (rr *requestReader) take() []byte {
	request := bytes.Clone(rr.buf[:rr.total])
	rr.buf = append(rr.buf[:0], rr.buf[rr.total:]...)
	return request
}

// findHeadEnd returns the offset just past the blank line ending the head,
// or -1.
func findHeadEnd(buf []byte) int {
	end := -1
	if idx := bytes.Index(buf, headerTerminator); idx >= 0 {
		end = idx + len(headerTerminator)
	}
	if idx := bytes.Index(buf, headerTerminatorBare); idx >= 0 && (end < 0 || idx+len(headerTerminatorBare) < end) {
		end = idx + len(headerTerminatorBare)
	}
	return end
}

// declaredContentLength returns the Content-Length of a head and whether one
// is declared at all.
func declaredContentLength(head []byte) (int, bool, error) {
	for _, l := range splitLines(head)[1:] {
		name, value, found := bytes.Cut(l.text, []byte{':'})
		if !found || !strings.EqualFold(string(bytes.TrimSpace(name)), "Content-Length") {
			continue
		}

		n, err := atoi(bytes.TrimSpace(value))
		if err != nil {
			return 0, true, fmt.Errorf("%w: invalid content-length %q", ErrBadRequest, value)
		}
		return n, true, nil
	}
	return 0, false, nil
}

// carriesBody reports whether a request may send a body without declaring
// its length. GET requests never do.
func carriesBody(buf []byte) bool {
	return !bytes.HasPrefix(buf, []byte("GET "))
}
