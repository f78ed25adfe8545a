package middleware

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

type contextKey string

const operatorContextKey contextKey = "operator"

// Operator returns a middleware that extracts the X-Operator header and
// makes it available to handlers for audit attribution.
func Operator() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if tr, ok := transport.FromServerContext(ctx); ok {
				if ht, ok := tr.(http.Transporter); ok {
					if op := strings.TrimSpace(ht.Request().Header.Get("X-Operator")); op != "" {
						ctx = context.WithValue(ctx, operatorContextKey, op)
					}
				}
			}
			return handler(ctx, req)
		}
	}
}

// OperatorFromContext returns the operator identity attached by the
// Operator middleware, or "" when the request carried none.
func OperatorFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operatorContextKey).(string); ok {
		return op
	}
	return ""
}
