package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bundlesync "github.com/stacklok/toolhive-bundle-sync/internal/app"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/filtering"
)

// bundleRow is the printed form of a bundle
type bundleRow struct {
	UID          int    `json:"uid"`
	Title        string `json:"title"`
	Origin       string `json:"origin"`
	Version      string `json:"version,omitempty"`
	Availability string `json:"availability"`
	AutoUpdate   *bool  `json:"autoUpdate,omitempty"`
	Error        string `json:"error,omitempty"`
}

func rowFor(src bundles.Source) bundleRow {
	row := bundleRow{
		UID:          src.UID(),
		Title:        src.Title(),
		Origin:       src.Origin().String(),
		Version:      src.Version(),
		Availability: src.Availability().String(),
	}
	if remote, ok := bundles.AsRemote(src); ok {
		auto := remote.AutoUpdate()
		row.AutoUpdate = &auto
	}
	if err := src.Err(); err != nil {
		row.Error = err.Error()
	}
	return row
}

// renderBundles prints the bundles as a table in sort order
func renderBundles(w io.Writer, sources []bundles.Source) error {
	table := tablewriter.NewWriter(w)
	table.Header("UID", "Title", "Origin", "Version", "State", "Auto update")
	for _, src := range sources {
		row := rowFor(src)
		auto := "-"
		if row.AutoUpdate != nil {
			auto = strconv.FormatBool(*row.AutoUpdate)
		}
		state := row.Availability
		if row.Error != "" {
			state += ": " + row.Error
		}
		if err := table.Append([]string{
			strconv.Itoa(row.UID), row.Title, row.Origin, row.Version, state, auto,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func newBundlesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Inspect and edit the bundle set",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bundles in sort order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			filter, err := filterFlags(cmd)
			if err != nil {
				return err
			}
			return withComponents(cmd, v, func(_ context.Context, c *bundlesync.Components) error {
				sources := filter.Apply(c.Repository.State().Ordered())
				if format != "json" {
					return renderBundles(cmd.OutOrStdout(), sources)
				}
				rows := make([]bundleRow, 0, len(sources))
				for _, src := range sources {
					rows = append(rows, rowFor(src))
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			})
		},
	}
	list.Flags().String("format", "", "Output format (json)")
	addFilterFlags(list)

	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a remote bundle and download it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			autoUpdate, _ := cmd.Flags().GetBool("auto-update")
			return withComponents(cmd, v, func(ctx context.Context, c *bundlesync.Components) error {
				uid, err := c.Repository.CreateRemote(ctx, args[0], autoUpdate, nil)
				if uid == 0 && err != nil {
					return fmt.Errorf("failed to add bundle: %w", err)
				}
				if err != nil {
					slog.Warn("Bundle added but the first download failed", "bundle_uid", uid, "error", err)
				}
				_, werr := fmt.Fprintf(cmd.OutOrStdout(), "added bundle %d\n", uid)
				return werr
			})
		},
	}
	add.Flags().Bool("auto-update", true, "Update the bundle during periodic checks")

	remove := &cobra.Command{
		Use:   "remove <uid>...",
		Short: "Remove bundles and their cached files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uids := make([]int, 0, len(args))
			for _, arg := range args {
				uid, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid bundle uid %q", arg)
				}
				uids = append(uids, uid)
			}
			return withComponents(cmd, v, func(ctx context.Context, c *bundlesync.Components) error {
				state := c.Repository.State()
				for _, uid := range uids {
					if _, ok := state.Source(uid); !ok {
						return fmt.Errorf("bundle %d not found", uid)
					}
				}
				return c.Repository.Remove(ctx, uids...)
			})
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("include", nil, "Only bundles whose name matches one of these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "Skip bundles whose name matches one of these glob patterns")
}

func filterFlags(cmd *cobra.Command) (*filtering.NameFilter, error) {
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	return filtering.NewNameFilter(include, exclude)
}

// withComponents runs fn against freshly built components without the push subscription
func withComponents(cmd *cobra.Command, v *viper.Viper, fn func(context.Context, *bundlesync.Components) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	components, err := bundlesync.BuildComponents(ctx, bundlesync.WithConfig(cfg), bundlesync.WithoutPush())
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Failed to release components", "error", err)
		}
	}()
	return fn(ctx, components)
}
