package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pump-fun-launcher-go/internal/client"
	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/internal/launch"
	"pump-fun-launcher-go/internal/logger"
	"pump-fun-launcher-go/internal/pumpfun"
	"pump-fun-launcher-go/internal/wallet"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
)

const Version = "1.0.0"

// CLI flags
var (
	configFile = flag.String("config", "configs/launcher.yaml", "Path to config file")
	network    = flag.String("network", "", "Network to use (mainnet/devnet)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	enqueueID  = flag.String("enqueue", "", "Enqueue a single request ID and exit")
	enqueueAll = flag.Bool("enqueue-all", false, "Enqueue every request from the definitions file before running")
	showStatus = flag.Bool("status", false, "Print the queue status snapshot and exit")
	paused     = flag.Bool("paused", false, "Start with the queue paused")
)

// App wires the launcher's components together
type App struct {
	config *config.Config
	logger *logger.Logger
	client *client.Client
	wallet *wallet.Wallet
	queue  *launch.Queue
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	flag.Parse()

	cfg, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}
	defer app.Close()

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("Application exited with error")
	}
}

func loadConfiguration() (*config.Config, error) {
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}

	if *network != "" {
		cfg.Network = *network
		cfg.RPCUrl = config.GetRPCEndpoint(*network)
		cfg.WSUrl = config.GetWSEndpoint(*network)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	return cfg, nil
}

// NewApp builds the full dependency graph from configuration
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	rpcClient, err := client.NewClient(ctx, client.ClientConfig{
		RPCEndpoint: cfg.RPCUrl,
		WSEndpoint:  cfg.WSUrl,
		Timeout:     30 * time.Second,
	}, log.Logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create solana client: %w", err)
	}

	walletInstance, err := wallet.NewWallet(wallet.WalletConfig{
		PrivateKey: cfg.PrivateKey,
		Mnemonic:   cfg.Mnemonic,
	}, rpcClient, log.Logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	builder := pumpfun.NewBuilder(rpcClient, log.Logger,
		cfg.Trading.SellGuardEnabled, cfg.Trading.SellGuardPercent)

	submitter := pumpfun.NewSubmitter(rpcClient, log.Logger,
		cfg.ConfirmTimeout(),
		uint(cfg.Advanced.AccountPollRetries),
		cfg.AccountPollDelay())

	resolver := launch.NewFileResolver(cfg.Launch.RequestsPath)
	recorder := launch.NewJSONLRecorder(cfg.Launch.AuditPath)

	clk := clock.New()

	newMint := func() solana.PrivateKey {
		return wallet.NewEphemeralMint().PrivateKey()
	}

	pipeline := launch.NewPipeline(resolver, recorder, builder, submitter,
		walletInstance, walletInstance.PrivateKey(), newMint, clk,
		launch.PipelineConfig{
			HoldDelay: cfg.HoldDelay(),
			Defaults: launch.TradingDefaults{
				BuyAmountSOL:    cfg.Trading.BuyAmountSOL,
				SlippagePercent: cfg.Trading.SlippagePercent,
				PriorityFee:     cfg.Trading.PriorityFee,
			},
		}, log)

	queue, err := launch.NewQueue(
		launch.NewStore(cfg.Launch.StatePath),
		pipeline,
		launch.QueueConfig{
			MaxPerHour:       cfg.Launch.MaxPerHour,
			DailyBudgetSOL:   cfg.Launch.DailyBudgetSOL,
			InterLaunchDelay: cfg.InterLaunchDelay(),
		},
		clk, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to restore launch queue: %w", err)
	}

	return &App{
		config: cfg,
		logger: log,
		client: rpcClient,
		wallet: walletInstance,
		queue:  queue,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start runs the requested mode: one-shot enqueue/status commands or the
// long-running queue loop.
func (a *App) Start() error {
	boot := a.logger.WithComponent("bot")
	boot.WithField("version", Version).Info("🚀 Pump.fun launcher starting")
	boot.WithField("wallet", a.wallet.PublicKey().String()).Info("👛 Wallet loaded")

	if *showStatus {
		return a.printStatus()
	}

	if *enqueueID != "" {
		return a.queue.Enqueue(*enqueueID)
	}

	if *enqueueAll {
		if err := a.enqueueAllRequests(); err != nil {
			return err
		}
	}

	if *paused {
		a.queue.Pause()
	}

	go a.handleSignals()

	err := a.queue.Run(a.ctx)
	if err == context.Canceled {
		a.logger.Info("👋 Shutdown complete")
		return nil
	}
	return err
}

func (a *App) enqueueAllRequests() error {
	resolver := launch.NewFileResolver(a.config.Launch.RequestsPath)
	requests, err := resolver.All()
	if err != nil {
		return err
	}

	for i := range requests {
		if err := requests[i].Validate(); err != nil {
			a.logger.WithField("request_id", requests[i].ID).WithError(err).Warn("Skipping invalid request")
			continue
		}
		if err := a.queue.Enqueue(requests[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) printStatus() error {
	snapshot := a.queue.Snapshot()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (a *App) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.logger.WithComponent("bot").WithField("signal", sig.String()).Info("🛑 Shutdown signal received")
	a.cancel()
}

// Close releases network resources
func (a *App) Close() {
	a.cancel()
	if a.client != nil {
		a.client.Close()
	}
}
