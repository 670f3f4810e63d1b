package http

const (
	DefaultReadBufferSize  = 8 * 1024 // per read
	DefaultWriteBufferSize = 4 * 1024
	DefaultMaxIdleReads    = 5
	DefaultMaxHeaderBytes  = 64 * 1024
	DefaultMaxBodyBytes    = 2 * 1024 * 1024 // 2MB
	ChannelBufferSize      = 2000            // pending connection jobs
)

var (
	protocolHttp11       = []byte("HTTP/1.1 ")
	headerContentLength  = []byte("Content-Length: ")
	headerContentType    = []byte("Content-Type: ")
	crlf                 = []byte("\r\n")
	headerTerminator     = []byte("\r\n\r\n")
	headerTerminatorBare = []byte("\n\n")
)

// Handler produces the result for a single request.
type Handler interface {
	ServeHTTP(request *Request) Result
}

type HandlerFunc func(request *Request) Result

func (f HandlerFunc) ServeHTTP(request *Request) Result {
	return f(request)
}
