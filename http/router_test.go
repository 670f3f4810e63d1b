package http

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/freekieb7/weblet/test"
)

func textHandler(text string) HandlerFunc {
	return func(request *Request) Result {
		return OK(text)
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	router := NewRouter()

	calls := make(map[string]int)
	counting := func(name string) HandlerFunc {
		return func(request *Request) Result {
			calls[name]++
			return OK(name)
		}
	}

	router.RouteFunc("^/$", counting("root"))
	router.RouteFunc("^/api/", counting("api"))
	router.RouteFunc("^/api/users$", counting("users"))
	router.RouteFunc(".*", counting("any"))

	table := router.snapshot()

	tests := []struct {
		path    string
		handler string
		pattern string
	}{
		{"/", "root", "^/$"},
		{"/api/users", "api", "^/api/"},
		{"/index.html", "any", ".*"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			handler, pattern, found := table.match(tt.path)
			if !found {
				t.Fatalf("no route matched %s", tt.path)
			}
			test.Equal(t, tt.pattern, pattern)

			res := handler.ServeHTTP(&Request{Path: tt.path}).(*Response)
			test.Equal(t, tt.handler, string(res.Body))
		})
	}

	test.Equal(t, 1, calls["root"])
	test.Equal(t, 1, calls["api"])
	test.Equal(t, 0, calls["users"])
	test.Equal(t, 1, calls["any"])
}

func TestRouterNoMatch(t *testing.T) {
	router := NewRouter()
	router.RouteFunc("^/only$", textHandler("only"))

	if _, _, found := router.snapshot().match("/other"); found {
		t.Error("unexpected match for /other")
	}
}

func TestRouterDuplicatePatternReplaces(t *testing.T) {
	router := NewRouter()
	router.RouteFunc("^/a$", textHandler("first"))
	router.RouteFunc("^/b$", textHandler("b"))
	router.RouteFunc("^/a$", textHandler("second"))

	test.Equal(t, 2, len(router.Routes))
	test.Equal(t, "^/a$", router.Routes[0].Pattern)

	handler, _, _ := router.snapshot().match("/a")
	res := handler.ServeHTTP(&Request{Path: "/a"}).(*Response)
	test.Equal(t, "second", string(res.Body))
}

func TestRouterInvalidPatternPanics(t *testing.T) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatal("expected a panic for an invalid pattern")
		}
		if !strings.Contains(recovered.(string), "invalid route pattern") {
			t.Errorf("unexpected panic: %v", recovered)
		}
	}()

	NewRouter().RouteFunc("^/(unclosed$", textHandler("never"))
}

func TestRouterSnapshotIsImmutable(t *testing.T) {
	router := NewRouter()
	router.RouteFunc("^/a$", textHandler("a"))

	table := router.snapshot()

	router.RouteFunc("^/a$", textHandler("changed"))
	router.RouteFunc("^/b$", textHandler("b"))

	test.Equal(t, 1, len(table.routes))
	handler, _, _ := table.match("/a")
	res := handler.ServeHTTP(&Request{Path: "/a"}).(*Response)
	test.Equal(t, "a", string(res.Body))

	if _, _, found := table.match("/b"); found {
		t.Error("route added after the snapshot is visible")
	}
}

func TestRouterMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(request *Request) Result {
				order = append(order, name)
				return next.ServeHTTP(request)
			})
		}
	}

	router := NewRouter()
	router.Use(tag("router"))
	router.RouteFunc("^/$", func(request *Request) Result {
		order = append(order, "handler")
		return OK("")
	}, tag("route"))

	handler, _, _ := router.snapshot(tag("outer")).match("/")
	handler.ServeHTTP(&Request{Path: "/"})

	test.Equal(t, "outer,router,route,handler", strings.Join(order, ","))
}

func TestRecoverMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	handler := RecoverMiddleware(logger)(HandlerFunc(func(request *Request) Result {
		panic("boom")
	}))

	res := handler.ServeHTTP(&Request{ID: "req-1", Path: "/panic"}).(*Response)
	test.Equal(t, StatusInternalServerError, res.Status)

	if !strings.Contains(logs.String(), "handler panic") || !strings.Contains(logs.String(), "req-1") {
		t.Errorf("panic was not logged: %s", logs.String())
	}
}

func TestLogMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := LogMiddleware(logger)(textHandler("logged"))
	res := handler.ServeHTTP(&Request{Method: MethodGet, Path: "/logged"}).(*Response)

	test.Equal(t, "logged", string(res.Body))
	if !strings.Contains(logs.String(), "path=/logged") {
		t.Errorf("request was not logged: %s", logs.String())
	}
}
