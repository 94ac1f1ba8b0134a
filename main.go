package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"daokit-go/internal/api"
	"daokit-go/internal/config"
	"daokit-go/internal/dao"
	"daokit-go/internal/ethereum"
	"daokit-go/internal/genesis"
	"daokit-go/internal/launcher"
	"daokit-go/internal/store"
	"daokit-go/internal/watcher"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "daokit",
	Short: "Deploy and operate DAO module sets",
	Long: `daokit deploys a DAO module set (timelock, soulbound membership
token, treasury, governor and kernel registry) behind UUPS proxies,
wires the roles and ownership over to the timelock, and keeps a local
ledger of every deployment.

With a factory address configured the whole genesis runs as a single
atomic transaction; without one, daokit deploys step by step from
compiled contract artifacts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	deployMinDelay int64
	deployMembers  []string
	deployFund     string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run a DAO genesis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		members := make([]common.Address, 0, len(deployMembers))
		for _, m := range deployMembers {
			if !common.IsHexAddress(m) {
				return fmt.Errorf("invalid member address %q", m)
			}
			members = append(members, common.HexToAddress(m))
		}

		client, db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		defer db.Close()

		l := launcher.New(client, cfg, db, logger)
		d, err := l.Launch(ctx, deployMinDelay, members)
		var stepErr *genesis.StepError
		if errors.As(err, &stepErr) {
			logger.Error("genesis aborted mid-sequence", zap.String("failed_step", stepErr.Step))
			for _, step := range stepErr.Completed {
				logger.Error("already mined", zap.String("step", step))
			}
			return err
		}
		if err != nil {
			return err
		}

		fmt.Printf("deployment %s\n", d.ID)
		fmt.Printf("  timelock  %s\n", d.Timelock)
		fmt.Printf("  token     %s\n", d.Token)
		fmt.Printf("  governor  %s\n", d.Governor)
		fmt.Printf("  treasury  %s\n", d.Treasury)
		fmt.Printf("  kernel    %s\n", d.Kernel)
		fmt.Printf("  members   %d\n", len(d.Members))

		if deployFund != "" {
			amount, err := decimal.NewFromString(deployFund)
			if err != nil {
				return fmt.Errorf("invalid fund amount %q: %w", deployFund, err)
			}
			tx, err := client.SendEther(ctx, common.HexToAddress(d.Treasury), amount)
			if err != nil {
				return fmt.Errorf("fund treasury: %w", err)
			}
			if _, err := client.WaitMined(ctx, tx); err != nil {
				return err
			}
			balance, err := client.BalanceEther(ctx, common.HexToAddress(d.Treasury))
			if err != nil {
				return err
			}
			fmt.Printf("  funded    %s ether (tx %s, treasury balance %s)\n", amount, tx.Hash().Hex(), balance)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <deployment-id>",
	Short: "Re-check a recorded deployment's wiring on chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		defer db.Close()

		d, err := db.Get(args[0])
		if err != nil {
			return err
		}
		v := launcher.NewChainVerifier(dao.NewReader(client.Backend()))
		report, err := v.Verify(ctx, d)
		if err != nil {
			return err
		}
		for _, f := range report.Findings {
			mark := "ok "
			if !f.OK {
				mark = "FAIL"
			}
			fmt.Printf("%s  %s", mark, f.Check)
			if f.Detail != "" {
				fmt.Printf(" (%s)", f.Detail)
			}
			fmt.Println()
		}
		if !report.OK() {
			return errors.New("wiring verification failed")
		}
		return nil
	},
}

var lsLimit int

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		list, err := db.List(lsLimit)
		if err != nil {
			return err
		}
		for _, d := range list {
			fmt.Printf("%s  %s  chain=%d  kernel=%s  %s\n",
				d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.ChainID, d.Kernel, d.Network)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow factory DaoDeployed events into the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		factoryAddr, ok := cfg.Factory()
		if !ok {
			return errors.New("watch requires factory_address in config")
		}
		client, db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		defer db.Close()

		factory := dao.NewFactory(factoryAddr, client.Backend())
		w := watcher.New(factory, client.ChainID().Int64(), cfg.Network, db, logger)
		return w.Run(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API (and the event watcher when a factory is configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		defer db.Close()

		var l api.Launcher
		if cfg.PrivateKey != "" {
			l = launcher.New(client, cfg, db, logger)
		}
		v := launcher.NewChainVerifier(dao.NewReader(client.Backend()))
		server := api.NewServer(db, l, v, logger)
		httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: server.Handler()}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("api listening", zap.String("addr", cfg.ListenAddr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return httpSrv.Shutdown(context.Background())
		})
		if factoryAddr, ok := cfg.Factory(); ok {
			factory := dao.NewFactory(factoryAddr, client.Backend())
			w := watcher.New(factory, client.ChainID().Int64(), cfg.Network, db, logger)
			g.Go(func() error {
				err := w.Run(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
		return g.Wait()
	},
}

// connect dials the node, loads the deployer key when configured and
// opens the ledger.
func connect(ctx context.Context) (*ethereum.Client, *store.DB, error) {
	client, err := ethereum.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.PrivateKey != "" {
		if err := client.UseKey(cfg.PrivateKey); err != nil {
			client.Close()
			return nil, nil, err
		}
	}
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, db, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	deployCmd.Flags().Int64Var(&deployMinDelay, "min-delay", 0, "timelock minimum delay in seconds")
	deployCmd.Flags().StringArrayVar(&deployMembers, "member", nil, "initial member address (repeatable)")
	deployCmd.Flags().StringVar(&deployFund, "fund", "", "ether amount to send to the treasury after genesis")

	lsCmd.Flags().IntVar(&lsLimit, "limit", 20, "maximum deployments to list")

	rootCmd.AddCommand(deployCmd, verifyCmd, lsCmd, watchCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
