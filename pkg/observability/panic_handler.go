package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with its stack.
// Must be called directly in a defer statement. The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

// RecoverPanicWithCallback is RecoverPanic plus a cleanup run only after a panic
func RecoverPanicWithCallback(logger *Logger, where string, callback func(err error)) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
		if callback != nil {
			callback(MustRecover(r))
		}
	}
}

// MustRecover converts a recovered value to an error; nil stays nil
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}

func logPanic(logger *Logger, where string, r interface{}) {
	logger.WithFields(map[string]interface{}{
		"panic":   fmt.Sprint(r),
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")
}
