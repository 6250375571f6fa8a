package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"go.uber.org/zap"
	"wanwatch/clients"
	"wanwatch/config"
	"wanwatch/models"
	"wanwatch/notify"
	"wanwatch/presence"
	"wanwatch/source"
	"wanwatch/traffic"
	"wanwatch/web"
)

// Functionality:
//   INPUT
//     AdapterSource  - interface counter samples per cycle
//     ClientSource   - raw client tables per hardware device
//     PresenceOracle - optional authoritative online/offline view
//   DOES STUFF
//     Accountant     - reset-safe traffic accounting and rolling stats
//     Reconciler     - merges clients across sources, arbitrates presence
//     TriggerEngine  - fires at-most-once actions per online/offline episode
//     Notifier/Web   - delivers events and serves the status API

type cleanupFunc func() error

func recoverFunc(logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Error("Recovered from panic",
			zap.Any("message", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup logger.
	logger := config.MustGetLogger()
	defer func(logger *zap.SugaredLogger) {
		_ = logger.Sync()
	}(logger)

	logger.Infof("Build version %v", config.BuildVersion)

	// Recovery.
	defer recoverFunc(logger.Desugar())

	// Cleanup functions.
	var cleanupFuncs []cleanupFunc

	// Gateway config: provider bindings and hardware endpoints.
	gatewayCfg, err := config.Gateway.GetConfig(logger)
	if err != nil {
		logger.Fatalf("Failed to load gateway config: %v", err)
	}

	// Action rules and substitute names.
	rulesCfg, err := config.ActionRules.GetConfig(logger)
	if err != nil {
		logger.Fatalf("Failed to load action rules: %v", err)
	}
	logger.Infof("Loaded %d action rules and %d substitute names", len(rulesCfg.Rules), len(rulesCfg.Substitutes))

	// Core engines.
	accountant := traffic.NewAccountant(logger, config.AppCfg.PollConfig.StepsToShow, gatewayCfg.Providers)
	reconciler := clients.NewReconciler(logger)
	engine := clients.NewTriggerEngine(logger, rulesCfg.Rules)
	engine.SetPinger(presence.ExecPinger{Timeout: config.AppCfg.NotifyConfig.PingTimeout})
	logger.Info("Engines created")

	// Collaborators.
	adapterSource := source.NewNetlinkAdapterSource(logger)
	clientSource := source.NewHTTPClientSource(logger, gatewayCfg.Hardware)

	var oracle models.ReliablePresenceSource
	if config.AppCfg.OracleConfig.UseLocalNeighbors {
		oracle = presence.NewNeighborScanner(logger)
		logger.Info("Using local neighbor tables as presence source")
	} else if config.AppCfg.OracleConfig.Host != "" {
		oracle = presence.NewOracleClient(logger,
			config.AppCfg.OracleConfig.Host,
			config.AppCfg.OracleConfig.Port,
			config.AppCfg.OracleConfig.RefreshRate)
		logger.Infof("Using presence oracle at %v:%v", config.AppCfg.OracleConfig.Host, config.AppCfg.OracleConfig.Port)
	}

	notifier := notify.New(logger, &config.AppCfg.NotifyConfig, config.AppCfg.Demo)

	// Status cache and web server.
	cache := web.NewStatusCache()
	if config.AppCfg.WebConfig.WebEnabled {
		s := web.NewServer(logger, cache)
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalln("Error starting web server:", err)
			}
			logger.Info("Web server quit")
		}()
		logger.Info("Web server started")

		cleanupFuncs = append(cleanupFuncs, func() error {
			ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelSrv()
			if err := s.Shutdown(ctxSrv); err != nil {
				return fmt.Errorf("error shutting down web server: %w", err)
			}
			return nil
		})
	}

	// Polling loop.
	loop := &pollLoop{
		logger:        logger,
		accountant:    accountant,
		reconciler:    reconciler,
		engine:        engine,
		adapterSource: adapterSource,
		clientSource:  clientSource,
		oracle:        oracle,
		notifier:      notifier,
		cache:         cache,
		rulesCfg:      rulesCfg,
		forcedKinds:   clients.ForcedKinds(rulesCfg.Rules),
	}
	go loop.run(ctx, config.AppCfg.PollConfig.Interval)
	logger.Infof("Polling loop started (interval %v)", config.AppCfg.PollConfig.Interval)

	// Capture SIGINT and SIGTERM to shut down gracefully.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info("Signal received, shutting down...")
	cancel()

	// Clean up and exit.
	failure := false
	for _, f := range cleanupFuncs {
		if err := f(); err != nil {
			logger.Errorf("Error during cleanup: %v", err)
			failure = true
		}
	}
	if failure {
		os.Exit(1)
	}
}

type pollLoop struct {
	logger        *zap.SugaredLogger
	accountant    *traffic.Accountant
	reconciler    *clients.Reconciler
	engine        *clients.TriggerEngine
	adapterSource models.AdapterSnapshotSource
	clientSource  models.ClientSnapshotSource
	oracle        models.ReliablePresenceSource
	notifier      *notify.Notifier
	cache         *web.StatusCache
	rulesCfg      config.ActionRulesConfig
	forcedKinds   map[models.MAC]models.ConnectionKind
	lastCycle     time.Time
}

// run drives one refresh cycle per tick. Stage ordering matters: adapters
// before clients, clients before arbitration, arbitration before duration
// advancement, durations before action evaluation.
func (l *pollLoop) run(ctx context.Context, interval time.Duration) {
	defer recoverFunc(l.logger.Desugar())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var now time.Time
		select {
		case <-ctx.Done():
			return
		case now = <-ticker.C:
		}
		l.cycle(ctx, now)
	}
}

func (l *pollLoop) cycle(ctx context.Context, now time.Time) {
	samples, err := l.adapterSource.Read(ctx)
	if err != nil {
		l.logger.Errorf("Adapter read failed, skipping cycle: %v", err)
		return
	}

	if !l.accountant.Initialized() {
		l.accountant.Initialize(samples)
		l.lastCycle = now
		return
	}

	elapsed := now.Sub(l.lastCycle)
	l.lastCycle = now

	speeds, ipChanges := l.accountant.Refresh(samples, elapsed)
	l.logger.Debugf("Cycle speeds: %v", speeds)
	for _, ch := range ipChanges {
		l.notifier.HandleIPChange(ctx, ch)
	}

	l.reconciler.BeginCycle()
	for _, hw := range l.clientSource.Hardware() {
		raw, err := l.clientSource.Read(ctx, hw)
		if err != nil {
			l.logger.Warnf("Client table for %v unavailable this cycle: %v", hw, err)
			continue
		}
		l.reconciler.Merge(hw, raw)
	}
	l.reconciler.ApplyOverrides(l.rulesCfg.Substitutes, l.forcedKinds)

	var entries []models.ReliablePresenceEntry
	if l.oracle != nil {
		entries, err = l.oracle.Query(ctx)
		if err != nil {
			l.logger.Warnf("Presence oracle unavailable, falling back to router status: %v", err)
		}
	}
	l.reconciler.Arbitrate(entries)
	l.reconciler.AdvanceDurations(now)

	for _, ev := range l.engine.Evaluate(l.reconciler.Records(), now) {
		l.notifier.HandleAction(ctx, ev)
	}

	l.cache.Update(l.accountant.Stats(), l.accountant.GlobalMaxSpeed(), l.reconciler.Snapshot(), l.reconciler.Counts())
}
