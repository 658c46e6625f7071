package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/app"
	"github.com/abdulmunimjemal/ai-interviewer/internal/httpapi"
	"github.com/getsentry/sentry-go"
)

func main() {
	cfg := app.LoadConfigFromEnv()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	// Initialize Sentry for error monitoring
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2, // 20% of requests for performance monitoring
			Environment:      cfg.Environment,
		})
		if err != nil {
			logger.Printf("sentry init failed: %v", err)
		} else {
			logger.Printf("sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		if cfg.SentryDSN != "" {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		logger.Fatalf("init app: %v", err)
	}

	drain := httpapi.NewDrain()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.Router(drain),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.StartJobs()

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()

	// Turn away new interview operations and let running ones finish.
	drain.Start()
	logger.Printf("draining, in flight: %v", drain.InFlight())

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 2*cfg.ProviderTimeout)
	if err := drain.Wait(drainCtx); err != nil {
		logger.Printf("drain timed out, still in flight: %v", drain.InFlight())
	}
	cancelDrain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	a.StopJobs()
	if err := a.Close(); err != nil {
		logger.Printf("close: %v", err)
	}
}
