// SPDX-License-Identifier: Unlicense OR MIT

package kosmic

import (
	"log/slog"
	"sync/atomic"
)

var (
	discard = slog.New(slog.DiscardHandler)
	logger  atomic.Pointer[slog.Logger]
)

// SetLogger routes the diagnostics of every kosmic package to l. A nil
// l silences them again, which is also the initial state.
//
// Failures are logged at error level where they are returned, missing
// optional features such as timer queries at warn, device and renderer
// lifecycle at info and resource allocations at debug.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	logger.Store(l)
}

// Logger returns the logger installed by SetLogger. It may be called
// from any goroutine.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return discard
}
