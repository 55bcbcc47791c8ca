package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/camlsync/camlsync/internal/cliutil"
	"github.com/camlsync/camlsync/internal/clientconfig"
	"github.com/camlsync/camlsync/internal/clientsync"
	"github.com/camlsync/camlsync/internal/fsscan"
	"github.com/camlsync/camlsync/internal/reconcile"
)

var projectRoot string

func configPath() string {
	return filepath.Join(projectRoot, clientconfig.FileName)
}

var rootCmd = &cobra.Command{
	Use:   "camlsync-client",
	Short: "camlsync client CLI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}
		result, err := c.Sync(cmd.Context())
		if err != nil {
			return err
		}
		if len(result.Conflicts) > 0 {
			cliutil.PrintInfo(fmt.Sprintf("%d conflict(s) quarantined: %v", len(result.Conflicts), result.Conflicts))
		}
		cliutil.PrintOK(fmt.Sprintf("synced to version %d", c.Config().Version))
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init [url] [token]",
	Short: "Create .config and the hidden snapshot directory, then sync",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		url := clientconfig.DefaultURL
		token := clientconfig.DefaultToken
		if len(args) > 0 {
			url = args[0]
		}
		if len(args) > 1 {
			token = args[1]
		}

		path := configPath()
		if clientconfig.Exists(path) {
			return fmt.Errorf("already initialized: %s exists", path)
		}

		cfg := clientconfig.New(path, url, token)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(projectRoot, fsscan.HiddenDir), 0o770); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}

		c, err := clientsync.Open(projectRoot, path)
		if err != nil {
			return err
		}
		if _, err := c.Sync(cmd.Context()); err != nil {
			return err
		}
		cliutil.PrintOK(fmt.Sprintf("initialized against %s, synced to version %d", url, c.Config().Version))
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove .config, the hidden directory, _local artifacts, and history folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if err := removeIfExists(configPath()); err != nil {
			return err
		}
		if err := removeIfExists(filepath.Join(projectRoot, fsscan.HiddenDir)); err != nil {
			return err
		}
		if err := reconcile.New(projectRoot).CleanConflicts(); err != nil {
			return err
		}

		if err := removeHistoryDirs(); err != nil {
			return err
		}

		cliutil.PrintOK("cleaned project state")
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Overwrite the working tree with the snapshot tree, discarding local changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}
		if err := c.Reconciler().Checkout(); err != nil {
			return err
		}
		cliutil.PrintOK("checked out snapshot tree")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current version and locally changed files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}

		files, err := c.Reconciler().Status()
		if err != nil {
			return err
		}

		fmt.Printf("version: %d\n", c.Config().Version)
		for _, f := range files {
			if f.Deleted {
				fmt.Printf("  deleted  %s\n", f.FileName)
			} else {
				fmt.Printf("  modified %s\n", f.FileName)
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [N]",
	Short: "List server history, or materialize version N",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return printHistory(cmd.Context(), c)
		}

		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		dest, err := c.MaterializeVersion(cmd.Context(), n)
		if err != nil {
			return err
		}
		cliutil.PrintOK(fmt.Sprintf("materialized version %d at %s", n, dest))
		return nil
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the server's version history log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}
		return printHistory(cmd.Context(), c)
	},
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all materialized history folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := removeHistoryDirs(); err != nil {
			return err
		}
		cliutil.PrintOK("removed history folders")
		return nil
	},
}

func removeHistoryDirs() error {
	entries, err := os.ReadDir(projectRoot)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), fsscan.HistoryDirPrefix) {
			if err := os.RemoveAll(filepath.Join(projectRoot, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func unixToTime(secs float64) time.Time {
	return time.Unix(int64(secs), 0)
}

func printHistory(ctx context.Context, c *clientsync.Client) error {
	entries, err := c.History(ctx)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	for _, e := range entries {
		when := humanize.Time(unixToTime(e.Timestamp))
		fmt.Printf("  v%-4d %s\n", e.Version, when)
	}
	return nil
}

var conflictCmd = &cobra.Command{
	Use:   "conflict",
	Short: "List working-tree files currently quarantined with _local",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}
		conflicts, err := c.Reconciler().Conflicts()
		if err != nil {
			return err
		}
		for _, f := range conflicts {
			fmt.Println(" ", f)
		}
		return nil
	},
}

var conflictCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete all _local quarantine artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, err := clientsync.Open(projectRoot, configPath())
		if err != nil {
			return err
		}
		if err := c.Reconciler().CleanConflicts(); err != nil {
			return err
		}
		cliutil.PrintOK("removed conflict artifacts")
		return nil
	},
}

func removeIfExists(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "root", "r", ".", "Project root directory")

	historyCmd.AddCommand(historyListCmd, historyCleanCmd)
	conflictCmd.AddCommand(conflictCleanCmd)
	rootCmd.AddCommand(initCmd, cleanCmd, checkoutCmd, statusCmd, historyCmd, conflictCmd)
}

func main() {
	cliutil.SetupLogger(slog.LevelWarn)

	if err := rootCmd.Execute(); err != nil {
		cliutil.PrintError(err)
		os.Exit(1)
	}
}
