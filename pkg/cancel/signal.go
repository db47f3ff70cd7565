package cancel

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdejongh/camarchive/pkg/logging"
)

// DefaultSignals are the signals that request a graceful stop
var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// Watch routes the given signals (DefaultSignals when none) into the token
// until ctx is done or the returned stop function is called. Every signal
// after the first is logged and otherwise ignored: the current step still
// finishes cleanly.
func Watch(ctx context.Context, token *Token, logger logging.Logger, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = DefaultSignals
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	quit := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				if logger != nil {
					if token.ShouldExit() {
						logger.Warn(ctx, "Stop already requested, waiting for the current step to finish", logging.Fields{
							"signal": sig.String(),
						})
					} else {
						logger.Warn(ctx, "Received signal, finishing current step before exiting", logging.Fields{
							"signal": sig.String(),
						})
					}
				}
				token.RequestExit("signal: " + sig.String())
			case <-ctx.Done():
				return
			case <-quit:
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		signal.Stop(ch)
		close(quit)
	}
}
