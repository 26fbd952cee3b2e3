package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that writes one record per
// settlement RPC with the caller's identity and tenant link, the result code
// and the duration. Install it after RequireAuth so the principal is known.
// A nil logger means slog.Default().
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			log := logger
			if log == nil {
				log = slog.Default()
			}

			attrs := []any{"procedure", req.Spec().Procedure}
			if p := PrincipalFromContext(ctx); p != nil {
				attrs = append(attrs, "user_id", p.UserID, "role", string(p.Role))
				if p.LinkedWholesalerID != "" {
					attrs = append(attrs, "wholesaler_id", p.LinkedWholesalerID)
				}
			}
			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

			if err == nil {
				log.Info("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			if serverFault(code) {
				log.Error("RPC failed", attrs...)
			} else {
				log.Warn("RPC rejected", attrs...)
			}
			return resp, err
		}
	}
}

// serverFault reports codes that point at this service rather than the caller.
func serverFault(code connect.Code) bool {
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeUnavailable,
		connect.CodeDataLoss, connect.CodeDeadlineExceeded:
		return true
	}
	return false
}
