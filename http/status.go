package http

import "strconv"

type Status uint16

const (
	// StatusNone is the zero Status. It is never written to the wire.
	StatusNone Status = 0

	StatusOK                  Status = 200 // RFC 7231, 6.3.1
	StatusNotFound            Status = 404 // RFC 7231, 6.5.4
	StatusInternalServerError Status = 500 // RFC 7231, 6.6.1
)

var (
	unknownStatusCode = "Unknown Status Code"

	statusMessages = map[Status]string{
		StatusOK:                  "OK",
		StatusNotFound:            "File not found",
		StatusInternalServerError: "INTERNAL SERVER ERROR",
	}
)

// Text returns the reason phrase written after the status code.
func (status Status) Text() string {
	if message, found := statusMessages[status]; found {
		return message
	}
	return unknownStatusCode
}

func (status Status) String() string {
	return strconv.Itoa(int(status)) + " " + status.Text()
}
