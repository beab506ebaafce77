package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ovnanova/aeon/pkg/catalog"
	"github.com/ovnanova/aeon/pkg/config"
	"github.com/ovnanova/aeon/pkg/engine"
	"github.com/ovnanova/aeon/pkg/labelstore"
	"github.com/ovnanova/aeon/pkg/log"
	"github.com/ovnanova/aeon/pkg/metrics"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aeon",
	Short: "Aeon - like-driven moderation labeler",
	Long: `Aeon is a moderation labeling service. Accounts pick a label by
liking one of the labeler's designated posts; Aeon consumes the commit
feed and converges each account's label state, keeping at most one
effective label per category.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Aeon version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "aeon.yaml", "Path to the config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the config file, falling back to defaults when the
// file does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// localEngine wires an engine against the local data directory for
// direct CLI invocations.
func localEngine(cfg *config.Config) (*engine.Engine, *labelstore.BoltStore, *metrics.CounterStore, error) {
	store, err := labelstore.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open label store: %v", err)
	}
	counters, err := metrics.NewCounterStore(cfg.DataDir)
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("failed to open counter store: %v", err)
	}

	eng := engine.New(engine.Config{
		ServiceDID:      cfg.ServiceDID,
		DecommissionKey: cfg.DecommissionKey,
		Catalog:         catalog.Default(),
		Store:           store,
		Counters:        counters,
	})
	return eng, store, counters, nil
}

// Label commands
var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Apply or remove labels directly",
}

var labelApplyCmd = &cobra.Command{
	Use:   "apply SUBJECT LABEL",
	Short: "Apply a label to a subject",
	Long: `Apply a label to a subject through the reconciliation engine,
exactly as a like on the label's designated post would. Any other
label the subject holds in the same category is negated.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, identifier := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		initLogging(cfg)

		cat := catalog.Default()
		var trigger string
		for _, l := range cat.Labels() {
			if l.Identifier == identifier {
				trigger = l.TriggerKey
				break
			}
		}
		if trigger == "" {
			return fmt.Errorf("unknown label %q (known: %v)", identifier, cat.Identifiers())
		}

		eng, store, counters, err := localEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer counters.Close()

		outcome, err := eng.Reconcile(context.Background(), subject, trigger)
		if err != nil {
			return fmt.Errorf("reconcile failed: %v", err)
		}

		fmt.Printf("✓ %s: %s\n", subject, outcome)
		return nil
	},
}

var labelRemoveCmd = &cobra.Command{
	Use:   "remove SUBJECT",
	Short: "Remove all labels from a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		initLogging(cfg)

		eng, store, counters, err := localEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		defer counters.Close()

		outcome, err := eng.Reconcile(context.Background(), subject, cfg.DecommissionKey)
		if err != nil {
			return fmt.Errorf("reconcile failed: %v", err)
		}

		fmt.Printf("✓ %s: %s\n", subject, outcome)
		return nil
	},
}

func init() {
	labelCmd.AddCommand(labelApplyCmd)
	labelCmd.AddCommand(labelRemoveCmd)
}

// Metrics commands
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Inspect label counters",
}

var metricsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show per-label subject counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		counters, err := metrics.NewCounterStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open counter store: %v", err)
		}
		defer counters.Close()

		all, err := counters.All()
		if err != nil {
			return fmt.Errorf("failed to read counters: %v", err)
		}
		if len(all) == 0 {
			fmt.Println("No counters recorded.")
			return nil
		}

		labels := make([]string, 0, len(all))
		for l := range all {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Printf("%-12s %d\n", l, all[l])
		}
		return nil
	},
}

var metricsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all label counters to zero",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		counters, err := metrics.NewCounterStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open counter store: %v", err)
		}
		defer counters.Close()

		if err := counters.Reset(); err != nil {
			return fmt.Errorf("failed to reset counters: %v", err)
		}
		fmt.Println("✓ Counters reset")
		return nil
	},
}

func init() {
	metricsCmd.AddCommand(metricsShowCmd)
	metricsCmd.AddCommand(metricsResetCmd)
}

// Config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		val, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one configuration value and save the file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("usage: aeon config set KEY VALUE")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}
		fmt.Printf("✓ %s updated\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func initLogging(cfg *config.Config) {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
		Output:     os.Stderr,
	})
}
