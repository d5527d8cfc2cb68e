package common

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger so SetLogger may race with logging from any goroutine.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger shared by every engine package.
// By default nothing is logged. Passing nil restores the silent default.
//
// Log levels used by the engine:
//   - Debug: backend resource creation and pipeline cache misses
//   - Info: lifecycle events and profiler statistics
//   - Warn: refused slot or cluster allocations, recoverable backend failures
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
func Logger() *zap.Logger {
	return loggerPtr.Load()
}
