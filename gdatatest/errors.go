package gdatatest

import (
	"fmt"
	"net/http"
)

// statusError is a failure a handler reports to the client.
type statusError struct {
	code   int
	msg    string
	header map[string]string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d: %s", e.code, e.msg)
}

func fail(code int, format string, args ...any) *statusError {
	msg := http.StatusText(code)
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}

	return &statusError{code: code, msg: msg}
}

// conflict is a 412 carrying the resource's current ETag.
func conflict(etag string) *statusError {
	return &statusError{
		code:   http.StatusPreconditionFailed,
		msg:    "Mismatch: etags = [" + etag + "]",
		header: map[string]string{"ETag": etag},
	}
}
