package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/socialdesk/core/internal/application/persistence"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// NewSeedCommand creates the seed command
func NewSeedCommand(load configLoader) *cobra.Command {
	var force bool

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo workspace into storage",
		Long:  "Write sample tasks, channels, posts and the default bio-link page. Existing data is kept unless --force is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			adapter, err := openAdapter(ctx, cfg, logger.NewNop(), nil)
			if err != nil {
				return err
			}
			defer adapter.Close()

			if !force {
				current := adapter.LoadSnapshot(ctx, time.Now().UTC())
				if len(current.Tasks)+len(current.Posts)+len(current.Channels) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Storage already holds data; use --force to overwrite")
					return nil
				}
			}

			snap := persistence.DemoSnapshot(time.Now())
			adapter.SaveSnapshot(ctx, snap)
			if err := adapter.Ping(ctx); err != nil {
				return fmt.Errorf("storage unavailable: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tasks, %d channels, %d posts, %d pages\n",
				len(snap.Tasks), len(snap.Channels), len(snap.Posts), len(snap.Pages))
			return nil
		},
	}
	seedCmd.Flags().BoolVar(&force, "force", false, "overwrite existing data")

	return seedCmd
}

// NewExportCommand creates the export command
func NewExportCommand(load configLoader) *cobra.Command {
	var (
		format string
		output string
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every collection as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			adapter, err := openAdapter(ctx, cfg, logger.NewNop(), nil)
			if err != nil {
				return err
			}
			defer adapter.Close()

			snap := adapter.LoadSnapshot(ctx, time.Now().UTC())

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return writeSnapshot(w, snap, format)
		},
	}
	exportCmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml or json)")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return exportCmd
}

// writeSnapshot encodes snap. YAML output goes through the JSON form so
// field names match the API.
func writeSnapshot(w io.Writer, snap persistence.Snapshot, format string) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		var doc json.RawMessage = raw
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	var (
		preset string
		date   string
		clock  string
	)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the send time a schedule preset resolves to",
		Example: `  socialdesk resolve --preset tomorrow
  socialdesk resolve --date 2025-03-17 --time 14:30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ports.ScheduleRequest{Preset: preset}
			if date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				req.Date = &d
			}
			if clock != "" {
				t, err := time.ParseInLocation("15:04", clock, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --time: %w", err)
				}
				req.Time = &t
			}

			when, err := req.Resolve(time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), when.Format(time.RFC3339))
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&preset, "preset", "custom", "custom, tomorrow, nextWeek or nextMonth")
	resolveCmd.Flags().StringVar(&date, "date", "", "calendar date (YYYY-MM-DD)")
	resolveCmd.Flags().StringVar(&clock, "time", "", "time of day (HH:MM)")

	return resolveCmd
}
