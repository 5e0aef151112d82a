package pprof

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"
)

// ListenAndServe serves the default pprof mux on its own port, away from the
// playback listener. It blocks until the listener fails or ctx is cancelled.
func ListenAndServe(ctx context.Context, port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	server := http.Server{Addr: addr, Handler: http.DefaultServeMux}
	ctx, cancel := context.WithCancel(ctx)

	var err error
	go func() {
		err = server.ListenAndServe()
		cancel()
	}()

	<-ctx.Done()
	if err != nil {
		return fmt.Errorf("pprof server stopped: %w", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
