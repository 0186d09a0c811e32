package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"condorcet_dao/internal/config"
	"condorcet_dao/sdk"
)

const (
	programName = "condorcet"
)

var (
	globalFlags = struct {
		debug  bool
		height uint64
		time   string
		sender string
	}{}
	configFile string
)

func commonRun(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if globalFlags.debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", programName).
		Logger()
}

// blockEnv builds the host env from the --height, --time and --sender flags.
func blockEnv(cfg *config.Config) (sdk.Env, error) {
	blockTime := time.Now().UTC()
	if globalFlags.time != "" {
		t, err := time.Parse(time.RFC3339, globalFlags.time)
		if err != nil {
			return sdk.Env{}, fmt.Errorf("invalid --time: %w", err)
		}
		blockTime = t
	}
	return sdk.Env{
		Block: sdk.BlockInfo{
			Height:  globalFlags.height,
			Time:    blockTime,
			ChainID: cfg.ChainID,
		},
		Sender:   sdk.Address(globalFlags.sender),
		Contract: "contract:" + programName,
	}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "local host for the condorcet ranked choice proposal module",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().
		Uint64Var(&globalFlags.height, "height", 1, "block height of the call")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.time, "time", "", "block time of the call (RFC3339, default now)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.sender, "sender", "", "address sending the call")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(initCommand())
	rootCmd.AddCommand(proposeCommand())
	rootCmd.AddCommand(voteCommand())
	rootCmd.AddCommand(executeCommand())
	rootCmd.AddCommand(closeCommand())
	rootCmd.AddCommand(showCommand())
	rootCmd.AddCommand(listCommand())
	rootCmd.AddCommand(ballotCommand())
	rootCmd.AddCommand(simulateCommand())
	rootCmd.AddCommand(serveCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
