package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/docdesk/internal/client/config"
	"github.com/dmitrijs2005/docdesk/internal/gate"
	"github.com/dmitrijs2005/docdesk/internal/logging"
	"golang.org/x/sync/errgroup"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	var upstream http.Handler
	if cfg.GateUpstream != "" {
		u, err := url.Parse(cfg.GateUpstream)
		if err != nil {
			log.Fatalf("invalid upstream %q: %v", cfg.GateUpstream, err)
		}
		upstream = httputil.NewSingleHostReverseProxy(u)
	}

	srv := &http.Server{
		Addr:              cfg.GateAddr,
		Handler:           gate.NewRouter(upstream, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "gate listening", "addr", cfg.GateAddr, "upstream", cfg.GateUpstream)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
}
