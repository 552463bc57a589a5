package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalHandler turns OS signals into daemon actions: SIGINT and SIGTERM
// stop the daemon, SIGHUP asks for a reschedule.
type SignalHandler struct {
	signals chan os.Signal
}

// NewSignalHandler creates a signal handler and registers it.
func NewSignalHandler() *SignalHandler {
	h := &SignalHandler{signals: make(chan os.Signal, 1)}
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	return h
}

// Run calls reload on every SIGHUP and returns the first stop signal, or
// nil once ctx is done.
func (h *SignalHandler) Run(ctx context.Context, reload func()) os.Signal {
	for {
		select {
		case sig := <-h.signals:
			if sig == syscall.SIGHUP {
				reload()
				continue
			}
			return sig
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop unregisters the handler.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
}
