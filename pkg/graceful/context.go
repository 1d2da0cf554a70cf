package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Context creates a context that is canceled when an OS interrupt signal is received.
// This allows for a clean shutdown of the application.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Println("Received termination signal, starting graceful shutdown...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// OnSignal calls fn every time sig is received until ctx is done. The
// client uses it to map SIGUSR1 onto a manual refresh.
func OnSignal(ctx context.Context, sig os.Signal, fn func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sig)

	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-sigChan:
				log.Printf("Received %s", s)
				fn()
			}
		}
	}()
}
