package http

import (
	"bufio"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/freekieb7/weblet/filesystem"
)

const notFoundBody = "<!DOCTYPE html><html><head><title>404 File not found</title></head><body><h1>404 File not found</h1></body></html>"

// Result is what a handler hands back to the connection loop: either a
// *Response written as is, or a CacheLookup served from the response cache.
type Result interface {
	result()
}

// Response is a standard HTTP response. It is written exactly once.
type Response struct {
	Status Status
	// Text overrides the reason phrase of Status when set.
	Text string
	// Mime is sent as Content-Type when non-empty.
	Mime string
	Body []byte
}

func (*Response) result() {}

// CacheLookup asks the server to answer with the cached entry stored under Key.
type CacheLookup struct {
	Key string
}

func (CacheLookup) result() {}

func OK(text string) *Response {
	return &Response{Status: StatusOK, Body: []byte(text)}
}

func OKBytes(data []byte) *Response {
	return &Response{Status: StatusOK, Body: data}
}

func OKMime(text, mime string) *Response {
	return &Response{Status: StatusOK, Mime: mime, Body: []byte(text)}
}

func NotFound() *Response {
	return &Response{Status: StatusNotFound, Body: []byte(notFoundBody)}
}

func InternalError() *Response {
	return &Response{Status: StatusInternalServerError, Body: []byte{}}
}

func Cached(key string) CacheLookup {
	return CacheLookup{Key: key}
}

// contentResponse builds a 200 response for file content. Binary classes are
// sent as an octet stream, everything else as text with its own MIME type.
func contentResponse(content []byte, mimeType string) *Response {
	if mimeType == "" || filesystem.Classify(mimeType).Binary() {
		return &Response{Status: StatusOK, Mime: filesystem.DefaultMimeType, Body: content}
	}

	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), string(utf8.RuneError)))
	}
	return OKMime(string(content), mimeType)
}

// Write frames the response as
//
//	HTTP/1.1 <code> <text>
//	Content-Length: <len(body)>
//	Content-Type: <mime>        (only when Mime is set)
//
// followed by the body, then flushes bw.
func (res *Response) Write(bw *bufio.Writer) error {
	if res.Status == StatusNone {
		return ErrNoStatus
	}

	text := res.Text
	if text == "" {
		text = res.Status.Text()
	}

	var numBuf [20]byte

	bw.Write(protocolHttp11)
	n := writeIntToBuffer(int(res.Status), numBuf[:])
	bw.Write(numBuf[:n])
	bw.WriteByte(' ')
	bw.WriteString(text)
	bw.Write(crlf)

	bw.Write(headerContentLength)
	n = writeIntToBuffer(len(res.Body), numBuf[:])
	bw.Write(numBuf[:n])
	bw.Write(crlf)

	if res.Mime != "" {
		bw.Write(headerContentType)
		bw.WriteString(res.Mime)
		bw.Write(crlf)
	}

	bw.Write(crlf)

	if _, err := bw.Write(res.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}
