package engine

import (
	"log/slog"
	"sync"
)

// The preferred API is an explicit Engine value owned by the caller. The
// package-level default engine exists for binding hosts that need a
// handle-free entry point.
var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Init opens the default engine. A second Init replaces the previous default
// after closing it.
func Init(dbPath string, logger *slog.Logger) error {
	eng, err := New(dbPath, logger)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	prev := defaultEngine
	defaultEngine = eng
	defaultMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return nil
}

// Shutdown closes the default engine, if any.
func Shutdown() {
	defaultMu.Lock()
	eng := defaultEngine
	defaultEngine = nil
	defaultMu.Unlock()

	if eng != nil {
		eng.Close()
	}
}

// Default returns the default engine, or nil before Init.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultEngine
}
