package http

import (
	"log/slog"
	"runtime/debug"
)

type Middleware func(next Handler) Handler

// RecoverMiddleware turns a panicking handler into a 500 response.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(request *Request) (result Result) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.ErrorContext(request.Context(), "handler panic",
						"request_id", request.ID,
						"path", request.Path,
						"panic", recovered,
						"stack", string(debug.Stack()),
					)

					result = InternalError()
				}
			}()

			return next.ServeHTTP(request)
		})
	}
}

// LogMiddleware logs every request passing through the wrapped handler at
// debug level.
func LogMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(request *Request) Result {
			logger.DebugContext(request.Context(), "handling request",
				"request_id", request.ID,
				"method", request.Method.String(),
				"path", request.Path,
			)

			return next.ServeHTTP(request)
		})
	}
}
