package handoff

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/types"
)

// BestEffort runs calls whose failure must never fail the caller, such as UI
// notifications. Errors and panics are converted to NOTIFICATION_FAILED,
// logged, and handed to OnFailure.
type BestEffort struct {
	Logger    *zap.Logger
	OnFailure func(op string, err error)
}

// Do runs fn and reports whether it succeeded.
func (b BestEffort) Do(ctx context.Context, op string, fn func(context.Context) error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.report(op, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		b.report(op, err)
		return false
	}
	return true
}

func (b BestEffort) report(op string, cause error) {
	err := types.Errorf(types.ErrNotificationFailed, "%s failed", op).WithCause(cause)
	if b.Logger != nil {
		b.Logger.Warn("best-effort call failed", zap.String("op", op), zap.Error(err))
	}
	if b.OnFailure != nil {
		b.OnFailure(op, err)
	}
}
