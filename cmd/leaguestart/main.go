package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/utakatalp/league-predictor/internal/api"
	"github.com/utakatalp/league-predictor/internal/config"
	"github.com/utakatalp/league-predictor/internal/league"
	"github.com/utakatalp/league-predictor/internal/logging"
	"github.com/utakatalp/league-predictor/internal/store"
)

var (
	configPath string
	verbose    bool
	gwFlag     int

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "leaguestart",
	Short:         "Resolve the gameweek a prediction league is scored from",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("migration complete")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return api.Run(cmd.Context(), cfg.HTTP.Addr, cfg.HTTP.ReadHeaderTimeout, api.NewRouter(svc, logger), logger)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [league-id]",
	Short: "Print the start gameweek of a league",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		l, start, current, err := svc.StartGameweek(cmd.Context(), args[0], gwFlag)
		if err != nil {
			return err
		}
		if league.Disabled(start) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: excluded from scoring (start gw %d, current gw %d)\n", l.ID, start, current)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: start gw %d (current gw %d)\n", l.ID, start, current)
		return nil
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings [league-id]",
	Short: "Print a league's table counted from its start gameweek",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		t, err := svc.Standings(cmd.Context(), args[0], gwFlag)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%s, gameweeks %d-%d", t.League.ID, t.StartGw, t.CurrentGw)
		if t.League.Name != "" {
			label = fmt.Sprintf("%s (%s), gameweeks %d-%d", t.League.Name, t.League.ID, t.StartGw, t.CurrentGw)
		}
		league.PrintStandings(cmd.OutOrStdout(), label, t.Entries)
		return nil
	},
}

func openStore(ctx context.Context) (*store.Store, error) {
	return store.NewStore(ctx, cfg.Database.Driver, cfg.Database.DSN)
}

func buildService(ctx context.Context) (*store.Store, *league.Service, error) {
	overrides, err := config.LoadOverrides(cfg.OverridesPath)
	if err != nil {
		return nil, nil, err
	}
	s, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("store ready", zap.String("driver", cfg.Database.Driver), zap.Int("overrides", overrides.Len()))
	resolver := league.NewResolver(s, overrides, logger.Named("resolver"))
	return s, league.NewService(s, resolver), nil
}

func init() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	resolveCmd.Flags().IntVar(&gwFlag, "gw", 0, "Current gameweek (0 reads it from the store)")
	standingsCmd.Flags().IntVar(&gwFlag, "gw", 0, "Current gameweek (0 reads it from the store)")

	rootCmd.AddCommand(migrateCmd, serveCmd, resolveCmd, standingsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
