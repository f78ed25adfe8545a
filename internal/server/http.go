package server

import (
	"context"

	"SwitchBoard/internal/conf"
	"SwitchBoard/internal/server/middleware"
	"SwitchBoard/internal/service"
	pkglog "SwitchBoard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, svc *service.BreakerService, logger log.Logger) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Operator(),
			middleware.Logging(logHelper),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, svc)

	return srv
}

func registerRoutes(srv *http.Server, svc *service.BreakerService) {
	r := srv.Route("/v1")

	r.POST("/master/on", post(svc.MasterOn))
	r.POST("/master/off", post(svc.MasterOff))
	r.POST("/master/emergency", post(svc.EmergencyShutdown))

	r.POST("/panels", post(svc.AddPanel))
	r.GET("/panels/{id}", get(svc.GetPanel))
	r.POST("/panels/{id}/state", post(svc.SetPanelState))
	r.POST("/panels/{id}/lockout", post(svc.LockoutPanel))
	r.POST("/panels/{id}/lockout/reset", post(svc.ResetPanelLockout))

	r.POST("/circuits", post(svc.AddCircuit))
	r.GET("/circuits/{id}", get(svc.GetCircuit))
	r.GET("/circuits/{id}/panel", get(svc.GetCircuitPanel))
	r.POST("/circuits/{id}/state", post(svc.SetCircuitState))
	r.POST("/circuits/{id}/trip", post(svc.TripCircuit))
	r.POST("/circuits/{id}/reset", post(svc.ResetCircuit))
	r.POST("/circuits/{id}/errors", post(svc.ReportError))
	r.POST("/circuits/{id}/requests", post(svc.RecordRequest))

	r.GET("/state", get(svc.GetState))
	r.GET("/alerts", get(svc.GetAlerts))
	r.POST("/alerts/{id}/ack", post(svc.AcknowledgeAlert))
	r.GET("/audit", get(svc.GetAuditLog))
}

// post adapts a service method to a raw route handler, binding the JSON
// body plus path vars and running the server middleware chain.
func post[Req any, Res any](fn func(context.Context, *Req) (*Res, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return fn(c, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// get is the query-parameter counterpart of post.
func get[Req any, Res any](fn func(context.Context, *Req) (*Res, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, req interface{}) (interface{}, error) {
			return fn(c, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
