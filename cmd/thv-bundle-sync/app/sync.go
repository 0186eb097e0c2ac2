package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	bundlesync "github.com/stacklok/toolhive-bundle-sync/internal/app"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one update pass and exit",
		Long: `Run one update pass over the remote bundles and print the resulting bundle list.
Without --uid every remote bundle is checked.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			allowMetered, _ := cmd.Flags().GetBool("allow-metered")
			uids, _ := cmd.Flags().GetIntSlice("uid")
			filter, err := filterFlags(cmd)
			if err != nil {
				return err
			}

			req := pkgsync.Request{
				Force:              force,
				AllowUnsafeNetwork: allowMetered,
				ShowToast:          true,
			}
			switch {
			case len(uids) > 0 && !filter.Empty():
				byUID, byName := pkgsync.ForUIDs(uids...), filter.Predicate()
				req.Predicate = func(r bundles.Remote) bool { return byUID(r) && byName(r) }
			case len(uids) > 0:
				req.Predicate = pkgsync.ForUIDs(uids...)
			case !filter.Empty():
				req.Predicate = filter.Predicate()
			}
			return runSync(cmd, v, req)
		},
	}

	cmd.Flags().Bool("force", false, "Download the latest release even when it is installed")
	cmd.Flags().Bool("allow-metered", false, "Run on metered or unprobed networks")
	cmd.Flags().IntSlice("uid", nil, "Bundle uids to update (repeatable)")
	addFilterFlags(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, v *viper.Viper, req pkgsync.Request) error {
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

	passErr := components.Pipeline.RequestAndWait(ctx, req)

	for _, notice := range components.Notices.Recent() {
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", notice.Level, notice.Message); err != nil {
			return err
		}
	}
	if passErr != nil {
		return fmt.Errorf("update pass failed: %w", passErr)
	}

	return renderBundles(cmd.OutOrStdout(), components.Repository.State().Ordered())
}
