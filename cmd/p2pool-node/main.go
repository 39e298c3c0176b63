// p2pool-node runs a single-role p2pool sidechain node: it mirrors mainchain
// headers, mines p2pool shares against the current PPLNS window, authors
// new sidechain blocks, and submits any share that also solves the embedded
// mainchain template upstream.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/randomx-labs/p2pool-node/internal/announce"
	"github.com/randomx-labs/p2pool-node/internal/authoring"
	"github.com/randomx-labs/p2pool-node/internal/auxstore"
	"github.com/randomx-labs/p2pool-node/internal/blockimport"
	"github.com/randomx-labs/p2pool-node/internal/blocktemplate"
	"github.com/randomx-labs/p2pool-node/internal/chain"
	"github.com/randomx-labs/p2pool-node/internal/config"
	"github.com/randomx-labs/p2pool-node/internal/consensus"
	"github.com/randomx-labs/p2pool-node/internal/difficulty"
	"github.com/randomx-labs/p2pool-node/internal/logging"
	"github.com/randomx-labs/p2pool-node/internal/mainchainmirror"
	"github.com/randomx-labs/p2pool-node/internal/metrics"
	"github.com/randomx-labs/p2pool-node/internal/mininghandle"
	"github.com/randomx-labs/p2pool-node/internal/miningworker"
	"github.com/randomx-labs/p2pool-node/internal/p2poolauthor"
	"github.com/randomx-labs/p2pool-node/internal/p2poolimport"
	"github.com/randomx-labs/p2pool-node/internal/pplns"
	"github.com/randomx-labs/p2pool-node/internal/profiling"
	"github.com/randomx-labs/p2pool-node/internal/randomx"
	"github.com/randomx-labs/p2pool-node/internal/randomxpool"
	"github.com/randomx-labs/p2pool-node/internal/rpcclient"
	"github.com/randomx-labs/p2pool-node/internal/rpcserver"
	"github.com/randomx-labs/p2pool-node/internal/sidechainstore"
	"github.com/randomx-labs/p2pool-node/internal/submitworker"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

// importerAdapter bridges mininghandle.Importer's plain Import(block) error
// to blockimport.Importer.ImportBlock, whose Result carries bookkeeping
// Submit's caller has no use for.
type importerAdapter struct {
	imp *blockimport.Importer
}

func (a importerAdapter) Import(block chain.Block) error {
	_, err := a.imp.ImportBlock(block)
	return err
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	threads := flag.Int("threads", 0, "Mining thread count (0 uses the config value)")
	mainchainRPC := flag.String("mainchain-rpc", "", "Mainchain RPC endpoint (overrides config)")
	author := flag.String("author", "", "Hex-encoded account id to credit authored blocks and shares to")
	windowSize := flag.Uint64("window-size", 0, "PPLNS window size in sidechain blocks (0 uses the config value)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("p2pool-node v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *mainchainRPC != "" {
		cfg.P2Pool.MainchainRPC = *mainchainRPC
	}
	if *threads > 0 {
		cfg.Mining.Threads = *threads
	}
	if *windowSize > 0 {
		cfg.P2Pool.WindowSize = *windowSize
	}
	if *author != "" {
		cfg.P2Pool.Author = *author
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logging.Logger()

	logging.Infof("p2pool-node v%s starting", version)

	accountID, err := decodeAccountID(cfg.P2Pool.Author)
	if err != nil {
		logging.Fatalf("invalid p2pool.author: %v", err)
	}

	var aux auxstore.Store
	if cfg.Redis.URL != "" {
		store, err := auxstore.NewRedisStore(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB, "p2pool")
		if err != nil {
			logging.Fatalf("failed to connect to redis: %v", err)
		}
		aux = store
	} else {
		aux = auxstore.NewInMemory()
	}

	var pprofServer *profiling.Server
	if cfg.Profiling.Enabled {
		pprofServer = profiling.NewServer(&cfg.Profiling)
		if err := pprofServer.Start(); err != nil {
			logging.Errorf("failed to start pprof server: %v", err)
		}
	}

	var nrAgent *metrics.Agent
	if cfg.NewRelic.Enabled {
		nrAgent = metrics.NewAgent(&cfg.NewRelic)
		if err := nrAgent.Start(); err != nil {
			logging.Errorf("failed to start New Relic agent: %v", err)
		}
	}

	rpcClient, err := rpcclient.New([]string{cfg.P2Pool.MainchainRPC}, cfg.RPC.Timeout)
	if err != nil {
		logging.Fatalf("failed to construct mainchain rpc client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirror := mainchainmirror.New(log)
	reader := &mainchainmirror.Reader{WSURL: cfg.P2Pool.MainchainWS, HTTP: rpcClient, Mirror: mirror, Log: log}
	go reader.Run(ctx)

	sidechain := &sidechainstore.Store{Aux: aux}

	diffProvider := difficulty.NewProvider(aux, sidechain)
	diffProvider.Next = sidechain

	pool, err := randomxpool.New(randomx.FlagDefault)
	if err != nil {
		logging.Fatalf("failed to construct randomx pool: %v", err)
	}

	submitWorker := submitworker.New(rpcClient, log)

	extension := &p2poolimport.Extension{
		Engine: chain.P2PoolEngineID,
		Aux:    aux,
		Hasher: pool,
		Next:   diffProvider,
		OnWin: func(params chain.BlockSubmitParams) {
			submitWorker.Submit(params)
		},
	}

	p2poolAlgo := &consensus.P2PoolAlgorithm{Engine: pool, DiffProvider: diffProvider}

	blockImporter := &blockimport.Importer{
		Engine:       chain.P2PoolEngineID,
		Chain:        sidechain,
		Aux:          aux,
		Algo:         p2poolAlgo,
		Inner:        extension,
		HeaderByHash: sidechain.HeaderByHashErr,
	}

	handle := mininghandle.New(chain.P2PoolEngineID, p2poolAlgo, importerAdapter{imp: blockImporter})

	aggregator := &pplns.Aggregator{
		Chain:      sidechain,
		Aux:        aux,
		Engine:     chain.P2PoolEngineID,
		WindowSize: cfg.P2Pool.WindowSize,
		SelfAuthor: accountID,
		Log:        log,
	}

	templateProvider := &blocktemplate.Provider{RPC: rpcClient, Aggregator: aggregator, Author: accountID, Aux: aux, Log: log}

	p2poolAuthor := &p2poolauthor.Author{
		Engine:    chain.P2PoolEngineID,
		Account:   accountID,
		Templates: templateProvider,
		Shares:    aggregator,
	}

	authoringLoop := &authoring.Loop{
		Engine:     chain.P2PoolEngineID,
		Chain:      sidechain,
		Sync:       mirror,
		Algo:       p2poolAlgo,
		PreRuntime: p2poolAuthor,
		Inherents:  p2poolAuthor,
		Proposer:   p2poolAuthor,
		Handle:     handle,
		BuildTime:  cfg.Mining.BuildTime,
		Aux:        aux,
		Log:        log,
	}
	go authoringLoop.Run(ctx, cfg.Mining.Tick)

	go miningworker.Run(ctx, miningworker.Params{
		Handle:   handle,
		Pool:     pool,
		Resolver: miningworker.P2PoolSeedResolver(),
		Input:    miningworker.P2PoolInputResolver(),
		Threads:  cfg.Mining.Threads,
		Log:      log,
	})

	// announceValidator has no live caller yet: gossip/announcement transport
	// is out of scope, so nothing feeds it incoming block announcements.
	announceValidator := &announce.Validator{Engine: chain.P2PoolEngineID, Tip: mirror, Log: log}
	_ = announceValidator

	go submitWorker.Run(ctx)

	server := rpcserver.New(templateProvider, handle, handle, log)
	server.Start(cfg.RPC.Bind)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logging.Info("p2pool node started, press Ctrl+C to stop")
	<-sigChan
	logging.Info("shutting down...")

	cancel()
	if err := server.Stop(); err != nil {
		logging.Errorf("error stopping rpc server: %v", err)
	}
	if pprofServer != nil {
		if err := pprofServer.Stop(); err != nil {
			logging.Errorf("error stopping pprof server: %v", err)
		}
	}
	if nrAgent != nil {
		nrAgent.Stop()
	}
	logging.Info("p2pool node stopped")
}

func decodeAccountID(s string) (chain.AccountID, error) {
	raw, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil {
		return chain.AccountID{}, err
	}
	if len(raw) != 32 {
		return chain.AccountID{}, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	var id chain.AccountID
	copy(id[:], raw)
	return id, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

