package http

import "regexp"

type Route struct {
	Pattern    string
	Handler    Handler
	Middleware []Middleware

	re *regexp.Regexp
}

var NotFoundHandler Handler = HandlerFunc(func(request *Request) Result {
	return NotFound()
})
