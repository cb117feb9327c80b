package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Import built-in applications to register them
	_ "github.com/goran-ethernal/ChainDemux/examples/transfers"
	"github.com/goran-ethernal/ChainDemux/internal/common"
	internalhandler "github.com/goran-ethernal/ChainDemux/internal/handler"
	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/goran-ethernal/ChainDemux/internal/metrics"
	internalreader "github.com/goran-ethernal/ChainDemux/internal/reader"
	"github.com/goran-ethernal/ChainDemux/internal/rpc"
	"github.com/goran-ethernal/ChainDemux/internal/source/ethereum"
	"github.com/goran-ethernal/ChainDemux/internal/source/fixture"
	internalwatcher "github.com/goran-ethernal/ChainDemux/internal/watcher"
	"github.com/goran-ethernal/ChainDemux/pkg/api"
	pkgconfig "github.com/goran-ethernal/ChainDemux/pkg/config"
	"github.com/goran-ethernal/ChainDemux/pkg/handler"
	"github.com/goran-ethernal/ChainDemux/pkg/reader"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║            ChainDemux v%s              ║
║   Deterministic Blockchain Event Demux    ║
╚═══════════════════════════════════════════╝
`
	shutdownTimeout = 10 * time.Second
)

var (
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "demux",
	Short: "ChainDemux - deterministic blockchain event demultiplexer",
	Long: `ChainDemux reads blocks from a chain, resolves forks, and feeds every action
to versioned updaters and effects of a registered application. Application state
is rolled back automatically when the chain reorganizes.`,
	Version: version,
	RunE:    runDemux,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available applications",
	Long:  `List all registered applications that can be used as handler.application in the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available applications:")
		names := handler.ListRegistered()
		if len(names) == 0 {
			fmt.Println("  (no applications registered)")
			return
		}
		for _, n := range names {
			fmt.Printf("  - %s\n", n)
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := pkgconfig.JSONSchema()
		if err != nil {
			return err
		}

		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.AddCommand(listCmd, schemaCmd)
}

func runDemux(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := pkgconfig.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	log := logger.NewComponentLoggerFromConfig(common.ComponentWatcher, cfg.Logging)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics,
			logger.NewComponentLoggerFromConfig(common.ComponentMetrics, cfg.Logging))
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()

			if err := metricsServer.Stop(stopCtx); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	source, closeSource, err := newBlockSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	r, err := internalreader.NewReader(source, cfg.Reader,
		logger.NewComponentLoggerFromConfig(common.ComponentReader, cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}

	log.Infof("Creating application: %s", cfg.Handler.Application)

	app, err := handler.Create(cfg.Handler.Application, cfg.Handler,
		logger.NewComponentLoggerFromConfig(common.ComponentStateStore, cfg.Logging))
	if err != nil {
		return fmt.Errorf("failed to create application %s: %w", cfg.Handler.Application, err)
	}
	if app.Close != nil {
		defer func() {
			if err := app.Close(); err != nil {
				log.Warnf("Failed to close application: %v", err)
			}
		}()
	}

	var opts []internalhandler.Option
	if app.Matcher != nil {
		opts = append(opts, internalhandler.WithActionMatcher(app.Matcher))
	}

	h, err := internalhandler.NewHandler(app.Versions, app.Store, cfg.Handler,
		logger.NewComponentLoggerFromConfig(common.ComponentHandler, cfg.Logging), opts...)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()

		if err := h.Close(closeCtx); err != nil {
			log.Warnf("Failed to stop running effects: %v", err)
		}
	}()

	w, err := internalwatcher.NewWatcher(r, h, cfg.Watcher, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(
			cfg.API,
			w,
			logger.NewComponentLoggerFromConfig(common.ComponentAPI, cfg.Logging),
		)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				log.Errorf("API server error: %v", err)
			}
		}()
	}

	log.Info("Starting ChainDemux...")

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watcher failed: %w", err)
	}

	log.Info("ChainDemux stopped successfully")
	return nil
}

// newBlockSource builds the configured block source and the function releasing it.
func newBlockSource(ctx context.Context, cfg *pkgconfig.Config) (reader.BlockSource, func(), error) {
	sourceLog := logger.NewComponentLoggerFromConfig(common.ComponentBlockSource, cfg.Logging)

	switch common.ToLowerWithTrim(cfg.Source.Type) {
	case pkgconfig.SourceTypeEthereum:
		sourceLog.Info("Connecting to Ethereum node...")

		client, err := rpc.NewClient(ctx, cfg.Source.RPCURL, cfg.Source.Retry,
			logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg.Logging))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create RPC client: %w", err)
		}
		sourceLog.Infof("Connected to Ethereum node: %s", cfg.Source.RPCURL)

		source, err := ethereum.NewSource(client, cfg.Source, sourceLog)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to create ethereum source: %w", err)
		}

		return source, source.Close, nil
	case pkgconfig.SourceTypeFixture:
		source, err := fixture.NewSourceFromFile(cfg.Source.FixturePath, sourceLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load fixture chain: %w", err)
		}

		return source, func() {}, nil
	default:
		return nil, nil, errors.New("unsupported source type: " + cfg.Source.Type)
	}
}
