package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context cancelled on SIGINT or SIGTERM, and its cancel func.
func New() (context.Context, func()) {
	ctx, done := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			done()
		case <-ctx.Done():
		}
	}()
	return ctx, done
}
