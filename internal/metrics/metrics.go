// Package metrics provides New Relic APM integration for the mining node
// and RPC surface.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/randomx-labs/p2pool-node/internal/config"
	"github.com/randomx-labs/p2pool-node/internal/logging"
)

// Agent wraps New Relic APM functionality.
type Agent struct {
	cfg *config.NewRelicConfig
	mu  sync.RWMutex
	app *newrelic.Application
}

// NewAgent creates a new agent bound to cfg.
func NewAgent(cfg *config.NewRelicConfig) *Agent {
	return &Agent{cfg: cfg}
}

// Start initializes the New Relic agent, a no-op if disabled or unconfigured.
func (a *Agent) Start() error {
	if !a.cfg.Enabled {
		logging.Info("New Relic APM disabled")
		return nil
	}
	if a.cfg.LicenseKey == "" {
		logging.Warn("New Relic license key not configured, APM disabled")
		return nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(a.cfg.AppName),
		newrelic.ConfigLicense(a.cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return err
	}
	if err := app.WaitForConnection(5 * time.Second); err != nil {
		logging.Warnf("New Relic connection timeout: %v (will retry in background)", err)
	}

	a.mu.Lock()
	a.app = app
	a.mu.Unlock()

	logging.Infof("New Relic APM enabled for app: %s", a.cfg.AppName)
	return nil
}

// Stop shuts down the agent.
func (a *Agent) Stop() {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()
	if app != nil {
		logging.Info("shutting down New Relic agent")
		app.Shutdown(10 * time.Second)
	}
}

// Application returns the underlying application, for RPC middleware.
func (a *Agent) Application() *newrelic.Application {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.app
}

// IsEnabled reports whether New Relic is enabled and connected.
func (a *Agent) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.app != nil
}

func (a *Agent) recordCustomEvent(eventType string, params map[string]interface{}) {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()
	if app != nil {
		app.RecordCustomEvent(eventType, params)
	}
}

func (a *Agent) recordCustomMetric(name string, value float64) {
	a.mu.RLock()
	app := a.app
	a.mu.RUnlock()
	if app != nil {
		app.RecordCustomMetric(name, value)
	}
}

// NewContext attaches txn to ctx.
func (a *Agent) NewContext(ctx context.Context, txn *newrelic.Transaction) context.Context {
	if txn == nil {
		return ctx
	}
	return newrelic.NewContext(ctx, txn)
}

// FromContext retrieves a transaction from ctx.
func (a *Agent) FromContext(ctx context.Context) *newrelic.Transaction {
	return newrelic.FromContext(ctx)
}

// RecordShareAccepted records a PPLNS share difficulty credit.
func (a *Agent) RecordShareAccepted(author string, difficulty uint64) {
	a.recordCustomEvent("ShareAccepted", map[string]interface{}{
		"author":     author,
		"difficulty": difficulty,
	})
}

// RecordMainchainBlockSubmitted records a mainchain-difficulty hit forwarded
// to miner_submitBlock.
func (a *Agent) RecordMainchainBlockSubmitted(height uint64, author string) {
	a.recordCustomEvent("MainchainBlockSubmitted", map[string]interface{}{
		"height": height,
		"author": author,
	})
}

// RecordSidechainReorg records a p2pool sidechain fork-choice flip.
func (a *Agent) RecordSidechainReorg(fromHeight, toHeight uint64) {
	a.recordCustomEvent("SidechainReorg", map[string]interface{}{
		"from_height": fromHeight,
		"to_height":   toHeight,
	})
}

// UpdateMiningMetrics updates hashrate/difficulty gauges.
func (a *Agent) UpdateMiningMetrics(hashrate float64, difficulty uint64) {
	a.recordCustomMetric("Custom/Mining/Hashrate", hashrate)
	a.recordCustomMetric("Custom/Mining/Difficulty", float64(difficulty))
}

// UpdateMainchainMetrics updates mirrored mainchain height/difficulty gauges.
func (a *Agent) UpdateMainchainMetrics(height uint64, difficulty uint64) {
	a.recordCustomMetric("Custom/Mainchain/Height", float64(height))
	a.recordCustomMetric("Custom/Mainchain/Difficulty", float64(difficulty))
}
