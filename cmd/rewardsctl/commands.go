package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"activityrewards/cmd/internal/secret"
	"activityrewards/core/ledger"
	"activityrewards/integrations/exports"
	"activityrewards/native/rewards"
	"activityrewards/rpc"
)

type requestFlags struct {
	user      string
	activity  string
	tasks     uint64
	users     uint64
	timestamp uint64
	slot      string
	label     string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "user credited with the activity")
	cmd.Flags().StringVar(&f.activity, "activity", "", "activity identifier, e.g. \"Check-in\"")
	cmd.Flags().Uint64Var(&f.tasks, "tasks", 0, "open tasks for the activity")
	cmd.Flags().Uint64Var(&f.users, "users", 0, "active users for the activity")
	cmd.Flags().Uint64Var(&f.timestamp, "timestamp", 0, "unix timestamp to record (default now)")
	cmd.Flags().StringVar(&f.slot, "slot", "", "ledger slot to use")
	cmd.Flags().StringVar(&f.label, "label", "", "derive the slot from user and label")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("activity")
	cmd.MarkFlagsMutuallyExclusive("slot", "label")
}

func (f *requestFlags) request() rewards.Request {
	return rewards.Request{
		User:      rewards.UserID(strings.TrimSpace(f.user)),
		Activity:  rewards.ActivityID(f.activity),
		NumTasks:  f.tasks,
		NumUsers:  f.users,
		Timestamp: f.timestamp,
	}
}

// resolveSlot returns the explicit slot, the derived slot, or empty.
func (f *requestFlags) resolveSlot() (ledger.SlotID, error) {
	if f.label != "" {
		return ledger.DeriveSlotID(rewards.UserID(strings.TrimSpace(f.user)), f.label)
	}
	if f.slot != "" {
		return ledger.ParseSlotID(f.slot)
	}
	return "", nil
}

func newApplyCommand(opts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an activity and persist the resulting entry",
		Long: `Apply an activity to a ledger slot. Without --slot or --label a fresh slot
is allocated, so the reward carries no streak penalty.

Example:
  rewardsctl apply --user alice --activity Check-in --tasks 100 --users 50 --label daily`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := flags.resolveSlot()
			if err != nil {
				return err
			}
			if slot == "" {
				slot = ledger.NewSlotID()
			}
			processor, db, err := opts.openProcessor(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			outcome, err := processor.Apply(cmd.Context(), slot, flags.request())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printOutcome(out, opts.jsonOutput(out), newOutcomeView(slot, outcome, true))
		},
	}
	flags.register(cmd)
	return cmd
}

func newQuoteCommand(opts *RootOptions) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an activity without writing to the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := flags.resolveSlot()
			if err != nil {
				return err
			}
			processor, db, err := opts.openProcessor(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			outcome, err := processor.Quote(cmd.Context(), slot, flags.request())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printOutcome(out, opts.jsonOutput(out), newOutcomeView(slot, outcome, false))
		},
	}
	flags.register(cmd)
	return cmd
}

func newShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slot>",
		Short: "Print the entry stored in a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := ledger.ParseSlotID(args[0])
			if err != nil {
				return err
			}
			processor, db, err := opts.openProcessor(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			entry, err := processor.Entry(cmd.Context(), slot)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printRows(out, opts.jsonOutput(out), exports.Rows([]ledger.SlotEntry{{Slot: slot, Entry: entry}}))
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger slots, optionally for one owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			processor, db, err := opts.openProcessor(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			entries, err := loadEntries(cmd.Context(), processor, owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return printRows(out, opts.jsonOutput(out), exports.Rows(entries))
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only list slots owned by this user")
	return cmd
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var (
		owner  string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger entries as csv, jsonl or parquet",
		Long: `Export ledger entries ordered by slot. The SHA-256 checksum of the payload is
printed to stderr.

Example:
  rewardsctl export --format parquet --out rewards.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := exports.ParseFormat(format)
			if err != nil {
				return err
			}
			processor, db, err := opts.openProcessor(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			entries, err := loadEntries(cmd.Context(), processor, owner)
			if err != nil {
				return err
			}
			data, sum, err := exports.Encode(parsed, entries)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "sha256 %s\n", sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only export slots owned by this user")
	cmd.Flags().StringVarP(&format, "format", "f", string(exports.FormatCSV), "csv, jsonl or parquet")
	cmd.Flags().StringVar(&output, "out", "", "destination file (default stdout)")
	return cmd
}

type activityView struct {
	Activity   string `json:"activity"`
	BaseReward string `json:"base_reward"`
	BaseUnits  uint64 `json:"base_units"`
}

func newActivitiesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List the configured activities and their base rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}
			views := make([]activityView, 0, catalog.Len())
			for _, id := range catalog.Activities() {
				base, _ := catalog.BaseReward(id)
				views = append(views, activityView{Activity: string(id), BaseReward: rewards.FormatAmount(base), BaseUnits: base})
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput(out) {
				return printJSON(out, views)
			}
			for _, v := range views {
				fmt.Fprintf(out, "%-20s %s\n", v.Activity, v.BaseReward)
			}
			return nil
		},
	}
}

func newSlotCommand(opts *RootOptions) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "slot [owner]",
		Short: "Allocate a fresh slot, or derive the stable slot for owner and --label",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var slot ledger.SlotID
			if len(args) == 0 {
				if label != "" {
					return fmt.Errorf("--label requires an owner")
				}
				slot = ledger.NewSlotID()
			} else {
				derived, err := ledger.DeriveSlotID(rewards.UserID(args[0]), label)
				if err != nil {
					return err
				}
				slot = derived
			}
			fmt.Fprintln(cmd.OutOrStdout(), slot)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "relationship label mixed into the derived slot")
	return cmd
}

func newTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the RPC endpoint",
		Long: `Mint an HS256 bearer token whose subject is the user the RPC server will
credit. The signing secret comes from Auth.HMACSecretEnv, Auth.HMACSecret or a
terminal prompt, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			source := secret.NewSource(cfg.Auth.HMACSecretEnv, cfg.Auth.HMACSecret, "RPC signing secret")
			key, err := source.Get()
			if err != nil {
				return err
			}
			token, err := rpc.IssueToken(key, subject, cfg.Auth.Issuer, cfg.Auth.Audience, ttl, opts.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "user ID carried in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime; zero disables expiry")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func loadEntries(ctx context.Context, processor *ledger.Processor, owner string) ([]ledger.SlotEntry, error) {
	if owner = strings.TrimSpace(owner); owner != "" {
		return processor.Entries(ctx, rewards.UserID(owner))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return processor.Store().All()
}
