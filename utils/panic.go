package utils

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// PanicRecovery must be deferred directly. onPanic runs after the panic is
// logged, e.g. to write an error response.
func PanicRecovery(log *zap.Logger, onPanic ...func(recovered any)) {
	r := recover()
	if r == nil {
		return
	}

	log.With(
		zap.Any("panic", r),
		zap.String("stack", string(debug.Stack())),
	).Error("recovered panic")

	for _, f := range onPanic {
		f(r)
	}
}
