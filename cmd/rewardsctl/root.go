package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"activityrewards/cmd/internal/app"
	"activityrewards/cmd/internal/secret"
	"activityrewards/config"
	"activityrewards/core/ledger"
	"activityrewards/storage"
)

const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Storage    string
	DataDir    string
	Format     string

	// now stamps requests that carry no timestamp.
	now func() time.Time
}

// NewRootCommand builds the rewardsctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "rewardsctl",
		Short: "Operate the activity rewards ledger",
		Long: `rewardsctl applies, quotes and inspects activity rewards directly against
the ledger store named in the rewardsd configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Format {
			case formatAuto, formatText, formatJSON:
				return nil
			default:
				return fmt.Errorf("invalid format %q: must be one of auto, text, json", opts.Format)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "./rewards.toml", "path to the TOML or YAML configuration")
	cmd.PersistentFlags().StringVar(&opts.Storage, "storage", "", "override Storage.Backend")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "datadir", "", "override DataDir")
	cmd.PersistentFlags().StringVarP(&opts.Format, "output", "o", formatAuto, "output format (auto|text|json)")

	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newQuoteCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newActivitiesCommand(opts))
	cmd.AddCommand(newSlotCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.SetBackend(o.Storage)
	if v := strings.TrimSpace(o.DataDir); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openProcessor opens the configured store. Callers close the returned
// database.
func (o *RootOptions) openProcessor(cmd *cobra.Command) (*ledger.Processor, storage.Database, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	processor, err := app.NewProcessor(cfg, db, ledger.WithLogger(logger), ledger.WithClock(o.now))
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return processor, db, nil
}

// jsonOutput resolves "auto" to text on a terminal and JSON otherwise.
func (o *RootOptions) jsonOutput(w io.Writer) bool {
	switch o.Format {
	case formatJSON:
		return true
	case formatText:
		return false
	}
	if f, ok := w.(*os.File); ok && secret.IsTerminal(f) {
		return false
	}
	return true
}
