package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appHeartbeat "github.com/Zhima-Mochi/delegate-expiry/internal/application/heartbeat"
	"github.com/Zhima-Mochi/delegate-expiry/internal/application/subscription"
	"github.com/Zhima-Mochi/delegate-expiry/internal/config"
	"github.com/Zhima-Mochi/delegate-expiry/internal/domain/delegate"
	domheartbeat "github.com/Zhima-Mochi/delegate-expiry/internal/domain/heartbeat"
	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/eventbus"
	heartbeatworker "github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/heartbeat"
	infraobs "github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/delegate-expiry/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/delegate-expiry/internal/observability"
	httppresentation "github.com/Zhima-Mochi/delegate-expiry/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	baseLogger, err := zaplogger.New(zaplogger.Options{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Logging.File,
		Fields: []observability.Field{
			observability.F("service", cfg.Service.Name),
			observability.F("env", cfg.Service.Env),
		},
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = zaplogger.Sync(baseLogger) }()

	counters, histograms := infraobs.Instruments(prometrics.New("", ""))
	tel := infraobs.New(oteltrace.New(cfg.Service.Name), baseLogger, counters, histograms)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewBus[domheartbeat.Beat](baseLogger, tel,
		eventbus.WithQueueSize(cfg.Bus.QueueSize),
		eventbus.WithPruneInterval(cfg.Bus.PruneInterval),
	)
	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := bus.Stop(stopCtx); err != nil {
			baseLogger.Error("event_bus_stop_error", observability.F("error", err))
		}
	}()

	register := subscription.NewRegisterUseCase[domheartbeat.Beat](bus, delegate.SystemClock{}, tel)

	// A permanent subscription counts every beat; the watcher only sees beats
	// for heartbeat.watch_ttl.
	auditor := appHeartbeat.NewWatcher("audit", baseLogger)
	if _, err := register.Execute(ctx, subscription.Command[domheartbeat.Beat]{
		Event:    domheartbeat.EventName,
		Delegate: auditor.Delegate(),
	}); err != nil {
		return err
	}
	watcher := appHeartbeat.NewWatcher("watch", baseLogger)
	if _, err := register.Execute(ctx, subscription.Command[domheartbeat.Beat]{
		Event:    domheartbeat.EventName,
		Delegate: watcher.Delegate(),
		Expires:  true,
		TTL:      cfg.Heartbeat.WatchTTL,
	}); err != nil {
		return err
	}

	beats := heartbeatworker.New(bus, cfg.Heartbeat.Interval, cfg.Service.Name, baseLogger)
	beats.Start(ctx)
	defer beats.Stop()

	handler := httppresentation.NewHandler(bus, baseLogger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	go func() {
		baseLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", observability.F("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		baseLogger.Info("http_server_stopped",
			observability.F("beats_audited", auditor.Seen()),
			observability.F("beats_watched", watcher.Seen()),
		)
	}
	return nil
}
