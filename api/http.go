package api

import (
	"context"
	"net/http"
	"os"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/julienschmidt/httprouter"
	"github.com/vodstream/jit-api/catalog"
	"github.com/vodstream/jit-api/config"
	"github.com/vodstream/jit-api/handlers"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/middleware"
	"github.com/vodstream/jit-api/stream"
)

func ListenAndServe(ctx context.Context, cli config.Cli, engine *stream.Engine, library *catalog.Catalog) error {
	router := NewJITAPIRouter(engine, library)
	server := http.Server{Addr: cli.HTTPAddr, Handler: router}
	ctx, cancel := context.WithCancel(ctx)

	log.LogNoRequestID(
		"Starting JIT streaming API!",
		"version", config.Version,
		"host", cli.HTTPAddr,
		"media_dir", cli.MediaDir,
		"cache_dir", cli.HLSTempDir,
		"encoder", cli.EncoderMode,
	)

	var err error
	go func() {
		err = server.ListenAndServe()
		cancel()
	}()

	<-ctx.Done()
	if err != nil {
		return err
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func NewJITAPIRouter(engine *stream.Engine, library *catalog.Catalog) *httprouter.Router {
	router := httprouter.New()
	router.GlobalOPTIONS = middleware.Preflight()

	logger := kitlog.With(
		kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr)),
		"ts", kitlog.DefaultTimestampUTC,
	)
	withLogging := middleware.LogRequest(logger)
	withCORS := middleware.AllowCORS()

	jitApiHandlers := handlers.NewJITAPIHandlersCollection(engine, library)

	// Simple endpoints for healthchecks
	router.GET("/ok", withLogging(jitApiHandlers.Ok()))
	router.GET("/healthz", withLogging(jitApiHandlers.Healthcheck()))

	// Media catalog API
	router.GET("/api/media", withLogging(withCORS(jitApiHandlers.ListMedia())))
	router.POST("/api/refresh", withLogging(jitApiHandlers.RefreshCatalog()))
	router.POST("/api/prewarm", withLogging(jitApiHandlers.Prewarm()))

	// HLS delivery. One wildcard route per method; overlapping static and
	// parameterised paths are not allowed by the router, so the handler
	// dispatches on the tail itself.
	router.GET("/hls/*filepath", withLogging(withCORS(jitApiHandlers.HLSGet())))
	router.DELETE("/hls/*filepath", withLogging(jitApiHandlers.HLSDelete()))

	return router
}
