package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/settlement"
	"github.com/mmynk/settlements/internal/storage"
)

var (
	errSettlementNotAvailable = errors.New("settlement not available")
	errStoreUnavailable       = errors.New("settlement store unavailable")
)

// toConnectError maps engine errors to Connect codes. Missing and
// out-of-scope settlements share one message so callers cannot probe for
// other tenants' IDs.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, errSettlementNotAvailable)
	case errors.Is(err, auth.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, auth.ErrNotOnboarded):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, settlement.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, settlement.ErrTimeout):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, settlement.ErrCancelled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, storage.ErrStorage):
		return connect.NewError(connect.CodeUnavailable, errStoreUnavailable)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
