package http

import (
	"fmt"
	"regexp"
)

// Router collects routes while the server is being set up. Patterns are
// regular expressions matched against the request path; the first route in
// registration order whose pattern matches handles the request.
type Router struct {
	Routes     []Route
	Middleware []Middleware
}

func NewRouter() *Router {
	return &Router{
		Routes:     make([]Route, 0),
		Middleware: make([]Middleware, 0),
	}
}

// Route registers handler for pattern. Registering an identical pattern
// again replaces the earlier handler in place. Route panics when pattern is
// not a valid regular expression.
func (router *Router) Route(pattern string, handler Handler, middleware ...Middleware) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		panic(fmt.Sprintf("http: invalid route pattern %q: %v", pattern, err))
	}

	route := Route{
		Pattern:    pattern,
		Handler:    handler,
		Middleware: middleware,
		re:         re,
	}

	for i := range router.Routes {
		if router.Routes[i].Pattern == pattern {
			router.Routes[i] = route
			return
		}
	}

	router.Routes = append(router.Routes, route)
}

func (router *Router) RouteFunc(pattern string, handler HandlerFunc, middleware ...Middleware) {
	router.Route(pattern, handler, middleware...)
}

// Use adds middleware applied to every route.
func (router *Router) Use(middleware ...Middleware) {
	router.Middleware = append(router.Middleware, middleware...)
}

// routeTable is the frozen form of a Router shared by every worker.
type routeTable struct {
	routes []compiledRoute
}

type compiledRoute struct {
	pattern string
	re      *regexp.Regexp
	handler Handler
}

// snapshot freezes the router. Later changes to the router do not affect the
// returned table. Outer middleware wraps every handler last.
func (router *Router) snapshot(outer ...Middleware) *routeTable {
	table := &routeTable{routes: make([]compiledRoute, 0, len(router.Routes))}

	for _, route := range router.Routes {
		handler := route.Handler
		for _, middleware := range route.Middleware {
			handler = middleware(handler)
		}
		for _, middleware := range router.Middleware {
			handler = middleware(handler)
		}
		for _, middleware := range outer {
			handler = middleware(handler)
		}

		table.routes = append(table.routes, compiledRoute{
			pattern: route.Pattern,
			re:      route.re,
			handler: handler,
		})
	}

	return table
}

func (table *routeTable) match(path string) (Handler, string, bool) {
	for _, route := range table.routes {
		if route.re.MatchString(path) {
			return route.handler, route.pattern, true
		}
	}
	return nil, "", false
}
