package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/freekieb7/weblet/http"
	"github.com/freekieb7/weblet/telemetry"
)

const name = "weblet"

type stringList []string

func (list *stringList) String() string {
	return strings.Join(*list, ",")
}

func (list *stringList) Set(value string) error {
	*list = append(*list, value)
	return nil
}

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) error {
	var cached stringList

	addr := flag.String("addr", "0.0.0.0:8080", "address to listen on")
	threads := flag.Int("threads", http.DefaultWorkers, "number of worker threads, at least 1")
	webroot := flag.String("webroot", "client/", "directory static files are served from")
	readTimeout := flag.Duration("read-timeout", http.DefaultReadTimeout, "timeout of a single read")
	idleReads := flag.Int("idle-reads", http.DefaultMaxIdleReads, "consecutive idle reads before a connection is closed")
	bufferSize := flag.Int("buffer-size", http.DefaultReadBufferSize, "bytes per read")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Var(&cached, "cache", "file to preload into the response cache (repeatable)")
	flag.Parse()

	if *threads <= 0 {
		return http.ErrZeroWorkers
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if telemetry.Enabled() {
		shutdown, err := telemetry.Setup(ctx, name)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Println(err)
			}
		}()
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := telemetry.NewLogger(name, level)

	server := http.NewServer(name,
		http.WithWorkers(*threads),
		http.WithWebroot(*webroot),
		http.WithLogger(logger),
		http.WithConfig(http.Config{
			ReadBufferSize: *bufferSize,
			ReadTimeout:    *readTimeout,
			MaxIdleReads:   *idleReads,
		}),
	)

	for _, path := range cached {
		if err := server.CacheFile(path); err != nil {
			return err
		}
	}

	if *debug {
		server.Router.Use(http.LogMiddleware(logger))
	}

	server.Route("^/$", func(req *http.Request) http.Result {
		return http.OK("fine")
	})

	server.Route("^/echo$", func(req *http.Request) http.Result {
		var sb strings.Builder
		sb.WriteString(req.Method.String() + " " + req.Path + "\n")
		writeValues(&sb, "query", req.Query)
		writeValues(&sb, "form", req.Form)
		return http.OKMime(sb.String(), "text/plain")
	})

	server.Route("^/cached/", func(req *http.Request) http.Result {
		return http.Cached(strings.TrimPrefix(req.Path, "/cached/"))
	})

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", *addr, "threads", *threads, "webroot", *webroot)
		serverErrCh <- server.ListenAndServe(ctx, *addr)
	}()

	select {
	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func writeValues(sb *strings.Builder, label string, values map[string]string) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(label + " " + key + "=" + values[key] + "\n")
	}
}
