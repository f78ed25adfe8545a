package log

import (
	"fmt"
	"math/rand"

	"github.com/go-kratos/kratos/v2/log"
)

// LogHelper extends the Kratos log.Helper with request-oriented helpers
// used by the HTTP middleware.
type LogHelper struct {
	*log.Helper
}

// NewLogHelper creates the extended helper.
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{Helper: log.NewHelper(logger)}
}

// Request logs one completed HTTP request.
func (h *LogHelper) Request(method, path string, status int, durationMs int64, kvs ...interface{}) {
	all := append([]interface{}{
		"msg", fmt.Sprintf("%s %s - %d (%dms)", method, path, status, durationMs),
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", durationMs,
	}, kvs...)
	h.Infow(all...)
}

const requestIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRequestID returns a short random id for request correlation.
func GenerateRequestID() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = requestIDAlphabet[rand.Intn(len(requestIDAlphabet))]
	}
	return string(b)
}
