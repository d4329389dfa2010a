package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moveout-labs/moveout-backend/internal/di"
)

func main() {
	a, err := di.InitializeApp()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.Config.SweepEnabled {
		g.Go(func() error {
			a.Logger.Info("inactivity sweeper starting", "interval", a.Config.SweepInterval.String())
			a.Sweeper.Start(gctx)
			return nil
		})
	}

	<-gctx.Done()
	stop()

	totalTimeout := a.Config.ShutdownTimeout
	if totalTimeout <= 0 {
		totalTimeout = 20 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), totalTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
