package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/branchwise/internal/config"
	"github.com/aretw0/branchwise/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

// flagKeys maps command line flags to config keys. Flags a command does not
// define are skipped when binding.
var flagKeys = map[string]string{
	"tree":         "tree",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"port":         "server.port",
	"store":        "store.driver",
	"store-path":   "store.path",
	"redis-addr":   "redis.addr",
	"auto-advance": "flow.auto_advance",
	"export":       "export.path",
}

var rootCmd = &cobra.Command{
	Use:   "branchwise",
	Short: "Branchwise walks users through phased decision trees",
	Long: `Branchwise guides a user through a branching questionnaire organized into
ordered phases, records the answers and produces a configuration summary.
It runs in the terminal, as an HTTP API or as an MCP tool server.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default is ./branchwise.yaml or $HOME/.config/branchwise/branchwise.yaml)")
	pf.StringP("tree", "t", "", "tree document path or http(s) URL")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("store", "", "session store: memory, file or redis")
	pf.String("store-path", "", "directory of the file store")
	pf.String("redis-addr", "", "redis address for the redis store")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	v := config.New()
	path, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(v, path); err != nil {
		return err
	}
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.NewWithWriter(os.Stderr, logging.ParseLevel(cfg.Log.Level), logging.ParseFormat(cfg.Log.Format))
	slog.SetDefault(logger)
	return nil
}

// treeSource prefers the positional argument over the configured tree.
func treeSource(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Tree != "" {
		return cfg.Tree, nil
	}
	return "", fmt.Errorf("no tree document: pass a path or URL, --tree or BRANCHWISE_TREE")
}
