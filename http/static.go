package http

import (
	"errors"
	"log/slog"

	"github.com/freekieb7/weblet/filesystem"
)

// StaticResolver serves files below a webroot. It is the fallback for
// requests no route matches.
type StaticResolver struct {
	fs     filesystem.Filesystem
	logger *slog.Logger
}

func NewStaticResolver(webroot string, logger *slog.Logger) (*StaticResolver, error) {
	fs, err := filesystem.NewRootFileSystem(webroot)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StaticResolver{fs: fs, logger: logger}, nil
}

// Webroot returns the absolute directory files are served from.
func (resolver *StaticResolver) Webroot() string {
	return resolver.fs.Root()
}

func (resolver *StaticResolver) ServeHTTP(request *Request) Result {
	return resolver.Resolve(request.Path)
}

// Resolve answers 404 when the file cannot be opened and 500 when it opens
// but cannot be read.
func (resolver *StaticResolver) Resolve(path string) *Response {
	full, err := resolver.fs.Lookup(path)
	if err != nil {
		resolver.logger.Warn("rejected static path", "path", path, "error", err)
		return NotFound()
	}

	content, err := filesystem.ReadFile(full)
	switch {
	case errors.Is(err, filesystem.ErrReadFailure):
		resolver.logger.Error("reading static file failed", "path", full, "error", err)
		return InternalError()
	case err != nil:
		return NotFound()
	}

	return contentResponse(content, filesystem.MimeType(full))
}
