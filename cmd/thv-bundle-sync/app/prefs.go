package app

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
)

const maskedValue = "********"

func openPrefs(v *viper.Viper) (*prefs.Store, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	store, err := prefs.Open(cfg.PrefsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	return store, nil
}

// display masks secret values that are set
func display(key, value string) string {
	if value != "" && prefs.IsSecret(key) {
		return maskedValue
	}
	return value
}

func newPrefsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and change user preferences",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every known preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openPrefs(v)
			if err != nil {
				return err
			}
			values := store.All()
			keys := make([]string, 0, len(values))
			for key := range values {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, display(key, values[key])); err != nil {
					return err
				}
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openPrefs(v)
			if err != nil {
				return err
			}
			key := args[0]
			value, ok := store.All()[key]
			if !ok {
				return fmt.Errorf("%w: %s", prefs.ErrUnknownKey, key)
			}
			reveal, _ := cmd.Flags().GetBool("reveal")
			if !reveal {
				value = display(key, value)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
	get.Flags().Bool("reveal", false, "Print secret values in clear text")

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := openPrefs(v)
			if err != nil {
				return err
			}
			return store.Set(args[0], args[1])
		},
	}

	unset := &cobra.Command{
		Use:   "unset <key>",
		Short: "Restore one preference to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := openPrefs(v)
			if err != nil {
				return err
			}
			return store.Delete(args[0])
		},
	}

	cmd.AddCommand(list, get, set, unset)
	return cmd
}
