package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/camlsync/camlsync/internal/cliutil"
	"github.com/camlsync/camlsync/internal/server"
	"github.com/camlsync/camlsync/internal/serverstore"
)

var dotenvLoaded bool

var rootCmd = &cobra.Command{
	Use:   "camlsync-server",
	Short: "camlsync server CLI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			cmd.SilenceUsage = false
			return err
		}

		slog.Info("server config", "dotenvLoaded", dotenvLoaded, "addr", cfg.Addr, "dataDir", cfg.DataDir)

		s, err := server.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return s.Start(cmd.Context())
	},
}

var initCmd = &cobra.Command{
	Use:   "init <token>",
	Short: "Write a default config.json and version_0.diff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("dataDir")
		store := serverstore.New(dataDir)
		if err := store.Init(args[0]); err != nil {
			return err
		}
		cliutil.PrintOK(fmt.Sprintf("initialized server data directory %q", dataDir))
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.PersistentFlags().StringP("dataDir", "d", serverDefaultDataDir, "Directory for server data")
	rootCmd.Flags().StringP("config", "f", "", "Path to config file")
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")

	rootCmd.AddCommand(initCmd)

	if err := godotenv.Load(".env"); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "error loading .env file:", err)
			os.Exit(1)
		}
	} else {
		dotenvLoaded = true
	}
}

const serverDefaultDataDir = ".data"

func main() {
	cliutil.SetupLogger(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cliutil.PrintError(err)
		os.Exit(1)
	}
}

// loadConfig binds flags/env/file into a server.Config via viper.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	if cmd.Flag("config").Changed {
		v.SetConfigFile(cmd.Flag("config").Value.String())
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("camlsync-server")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CAMLSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindPFlag("bind", cmd.Flags().Lookup("bind"))
	v.BindPFlag("dataDir", cmd.Flags().Lookup("dataDir"))
	v.SetDefault("bind", server.DefaultAddr)
	v.SetDefault("dataDir", serverDefaultDataDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cmd.Flag("config").Changed && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read %q: %w", v.ConfigFileUsed(), err)
		}
	}

	return &server.Config{
		Addr:    v.GetString("bind"),
		DataDir: v.GetString("dataDir"),
	}, nil
}
