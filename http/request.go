package http

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPut
	MethodPost
)

func ParseMethod(token string) Method {
	switch token {
	case "GET":
		return MethodGet
	case "PUT":
		return MethodPut
	case "POST":
		return MethodPost
	default:
		return MethodUnknown
	}
}

func (method Method) String() string {
	switch method {
	case MethodGet:
		return "GET"
	case MethodPut:
		return "PUT"
	case MethodPost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

const schemeHttp = "http"

// Request is a parsed HTTP/1.1 request. It is built once by ParseRequest and
// must not be modified by handlers.
type Request struct {
	ID         string
	RemoteAddr string

	Method   Method
	Protocol string
	Target   string
	Path     string
	RawQuery string

	// Headers keeps names exactly as received.
	Headers map[string]string
	Query   map[string]string
	// Form holds the decoded urlencoded body of a POST request.
	Form map[string]string
	Body []byte

	ctx context.Context
}

// Context returns the request context, which carries the request span.
func (req *Request) Context() context.Context {
	if req.ctx == nil {
		return context.Background()
	}
	return req.ctx
}

// WithContext returns a shallow copy of req using ctx.
func (req *Request) WithContext(ctx context.Context) *Request {
	clone := *req
	clone.ctx = ctx
	return &clone
}

// Header returns the value for name, matched exactly.
func (req *Request) Header(name string) (string, bool) {
	value, found := req.Headers[name]
	return value, found
}

// HeaderFold returns the value for name, ignoring case.
func (req *Request) HeaderFold(name string) (string, bool) {
	return headerFold(req.Headers, name)
}

func (req *Request) String() string {
	return "Request: " + req.Path
}

func headerFold(headers map[string]string, name string) (string, bool) {
	if value, found := headers[name]; found {
		return value, true
	}
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return "", false
}

// ParseRequest parses a complete request, head and body, from data.
//
// Lines end at "\n" with an optional "\r" before it. Headers start on the
// second line and end at the first line without a colon. Everything after
// that line, when it is blank, or starting at that line otherwise, is the
// body.
func ParseRequest(data []byte) (*Request, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty request", ErrBadRequest)
	}

	words := strings.Split(lossyString(lines[0].text), " ")
	if len(words) < 3 {
		return nil, fmt.Errorf("%w: malformed request line %q", ErrBadRequest, lossyString(lines[0].text))
	}

	req := &Request{
		Method:   ParseMethod(words[0]),
		Protocol: schemeHttp,
		Target:   words[1],
		Headers:  make(map[string]string),
		Query:    make(map[string]string),
		Body:     []byte{},
	}

	bodyStart := len(data)
	current := 1
	for ; current < len(lines); current++ {
		line := lossyString(lines[current].text)
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			break
		}
		req.Headers[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	if current < len(lines) {
		if isBlank(lines[current].text) {
			bodyStart = lines[current].end
		} else {
			bodyStart = lines[current].start
		}
	}
	if bodyStart < len(data) {
		req.Body = data[bodyStart:]
	}

	if req.Method == MethodPost && formEncoded(req.Headers) {
		if line, found := firstContentLine(req.Body); found {
			req.Form = DecodeForm(lossyString(line))
		}
	}

	host, found := req.HeaderFold("Host")
	if !found {
		return nil, ErrMissingHost
	}

	u, err := url.Parse(req.Protocol + "://" + host + req.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrURLParse, req.Target, err)
	}

	req.Path = u.Path
	if req.Path == "" {
		req.Path = "/"
	}
	req.RawQuery = u.RawQuery
	if req.RawQuery != "" {
		req.Query = DecodeForm(req.RawQuery)
	}

	return req, nil
}

// formEncoded reports whether a body should be decoded as a form. Bodies
// without a Content-Type are assumed to be urlencoded.
func formEncoded(headers map[string]string) bool {
	contentType, found := headerFold(headers, "Content-Type")
	if !found {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/x-www-form-urlencoded")
}

type line struct {
	text       []byte
	start, end int // end includes the line terminator
}

func splitLines(data []byte) []line {
	lines := make([]line, 0, 16)
	start := 0
	for start < len(data) {
		end := len(data)
		next := end
		if idx := bytes.IndexByte(data[start:], '\n'); idx >= 0 {
			end = start + idx
			next = end + 1
		}
		text := data[start:end]
		text = bytes.TrimSuffix(text, []byte{'\r'})
		lines = append(lines, line{text: text, start: start, end: next})
		start = next
	}
	return lines
}

func firstContentLine(body []byte) ([]byte, bool) {
	for _, l := range splitLines(body) {
		if !isBlank(l.text) {
			return l.text, true
		}
	}
	return nil, false
}

func isBlank(text []byte) bool {
	return len(bytes.TrimSpace(text)) == 0
}

func lossyString(text []byte) string {
	if utf8.Valid(text) {
		return string(text)
	}
	return strings.ToValidUTF8(string(text), string(utf8.RuneError))
}
