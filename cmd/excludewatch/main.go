// Command excludewatch is the thin CLI front end to the excludewatchd
// daemon: scan, pause, reload, restart, shutdown.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/excludewatch/excludewatch/internal/configstore"
	"github.com/excludewatch/excludewatch/internal/rpcclient"
)

var (
	flagConfigDir string
	flagSocket    string
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "excludewatch",
		Short: "Control the excludewatch backup-exclusion daemon",
	}
	root.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default: OS config dir)")
	root.PersistentFlags().StringVar(&flagSocket, "uds", "", "control socket path (default: <config-dir>/excludewatchd.sock)")

	root.AddCommand(newScanCommand())
	root.AddCommand(newSimpleCommand("pause", "Pause the watcher", func(c *rpcclient.Client) error {
		_, err := c.Pause()
		return err
	}))
	root.AddCommand(newSimpleCommand("reload", "Reload config from disk", func(c *rpcclient.Client) error {
		_, err := c.Reload()
		return err
	}))
	root.AddCommand(newSimpleCommand("restart", "Restart the watcher against the current config", func(c *rpcclient.Client) error {
		_, err := c.Restart()
		return err
	}))
	root.AddCommand(newSimpleCommand("shutdown", "Shut down the daemon", func(c *rpcclient.Client) error {
		_, err := c.Shutdown()
		return err
	}))
	root.AddCommand(newStatusCommand())
	return root
}

func resolveSocket() (string, error) {
	if flagSocket != "" {
		return flagSocket, nil
	}
	configDir := flagConfigDir
	if configDir == "" {
		var err error
		configDir, err = configstore.DefaultConfigDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(configDir, "excludewatchd.sock"), nil
}

func newSimpleCommand(use, short string, run func(*rpcclient.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, err := resolveSocket()
			if err != nil {
				return err
			}
			return run(rpcclient.New(socket))
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's current state and lifetime counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, err := resolveSocket()
			if err != nil {
				return err
			}
			resp, err := rpcclient.New(socket).Status()
			if err != nil {
				return err
			}
			fmt.Printf("state: %s\nexcluded: %d\nincluded: %d\n", resp.State, resp.Excluded, resp.Included)
			return nil
		},
	}
}

func newScanCommand() *cobra.Command {
	var dryRun bool
	var noConfirm bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a full scan and apply the resulting exclusion changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, err := resolveSocket()
			if err != nil {
				return err
			}
			client := rpcclient.New(socket)
			resp, err := client.Scan(dryRun)
			if err != nil {
				return err
			}
			if err := reportPendingActions(resp.ScannedAdd, resp.ScannedDel, dryRun, noConfirm); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the scan but don't apply it")
	cmd.Flags().BoolVar(&noConfirm, "noconfirm", false, "don't print the \"changes applied\" line (no confirmation prompt is shown either way)")
	return cmd
}
