package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"formgate/internal/abuse/admin"
	abuseconfig "formgate/internal/abuse/config"
	"formgate/internal/abuse/detector"
	"formgate/internal/abuse/gate"
	"formgate/internal/abuse/metrics"
	"formgate/internal/abuse/service/ratelimit"
	allowlistStore "formgate/internal/abuse/store/allowlist"
	budgetStore "formgate/internal/abuse/store/budget"
	"formgate/internal/abuse/tracer"
	"formgate/internal/abuse/workers/sweep"
	"formgate/internal/platform/config"
	"formgate/internal/platform/logger"
	httptransport "formgate/internal/transport/http"
	"formgate/pkg/platform/audit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	srvCfg := config.FromEnv()
	log := logger.New()

	abuseCfg, err := loadAbuseConfig(srvCfg.PolicyFile)
	if err != nil {
		log.Error("failed to load abuse policy", "error", err, "path", srvCfg.PolicyFile)
		os.Exit(1)
	}

	log.Info("initializing formgate",
		"addr", srvCfg.Addr,
		"budget_capacity", abuseCfg.RateLimit.Capacity,
		"refill_interval", abuseCfg.RateLimit.RefillInterval,
	)

	m := metrics.New()
	auditPublisher := audit.NewLogEmitter(log)

	budgets := budgetStore.New(abuseCfg.RateLimit.Capacity, abuseCfg.RateLimit.RefillInterval)
	allowlist := allowlistStore.New()

	limiter, err := ratelimit.New(budgets, allowlist,
		ratelimit.WithLogger(log),
		ratelimit.WithAuditPublisher(auditPublisher),
		ratelimit.WithMetrics(m),
	)
	if err != nil {
		log.Error("failed to build rate limit service", "error", err)
		os.Exit(1)
	}

	g, err := gate.New(limiter,
		[]gate.Detector{
			detector.NewHoneypot(abuseCfg.Honeypot),
			detector.NewTiming(),
			detector.NewContent(abuseCfg.Content),
		},
		gate.WithLogger(log),
		gate.WithAuditPublisher(auditPublisher),
		gate.WithMetrics(m),
		gate.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		log.Error("failed to build abuse gate", "error", err)
		os.Exit(1)
	}

	adminSvc, err := admin.New(allowlist, budgets,
		admin.WithLogger(log),
		admin.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("failed to build admin service", "error", err)
		os.Exit(1)
	}

	sweeper := sweep.New(budgets, abuseCfg.SweepIdleAfter(),
		sweep.WithLogger(log),
		sweep.WithInterval(srvCfg.SweepInterval),
		sweep.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Gate:   g,
		Admin:  adminSvc,
		Server: srvCfg,
		Logger: log,
	})

	srv := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting http server", "addr", srvCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		err := sweeper.Start(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// loadAbuseConfig falls back to defaults when no policy file is configured.
func loadAbuseConfig(path string) (*abuseconfig.Config, error) {
	if path == "" {
		return abuseconfig.DefaultConfig(), nil
	}
	return abuseconfig.LoadFile(path)
}
