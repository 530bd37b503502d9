package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tunermason/SC/internal/domain"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if settingsChanged(f) {
				var ferr error
				err := rt.Contacts.UpdateSettings(func(s *domain.Settings) {
					if f.Changed("username") {
						s.Username, ferr = f.GetString("username")
					}
					if f.Changed("block-unknown") {
						s.BlockUnknown, ferr = f.GetBool("block-unknown")
					}
					if f.Changed("use-neighbor-table") {
						s.UseNeighborTable, ferr = f.GetBool("use-neighbor-table")
					}
					if f.Changed("connect-timeout") {
						s.ConnectTimeout, ferr = f.GetInt("connect-timeout")
					}
				})
				if err != nil {
					return err
				}
				if ferr != nil {
					return ferr
				}
			}
			s := rt.Contacts.Settings()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "username:           %s\n", s.Username)
			fmt.Fprintf(out, "block_unknown:      %t\n", s.BlockUnknown)
			fmt.Fprintf(out, "use_neighbor_table: %t\n", s.UseNeighborTable)
			fmt.Fprintf(out, "connect_timeout:    %dms\n", s.ConnectTimeout)
			return nil
		},
	}
	cmd.Flags().String("username", "", "display name")
	cmd.Flags().Bool("block-unknown", false, "refuse calls from senders not in the contact list")
	cmd.Flags().Bool("use-neighbor-table", false, "resolve MAC addresses through the neighbor table")
	cmd.Flags().Int("connect-timeout", domain.DefaultConnectTimeout, "per-address connect timeout in milliseconds")
	return cmd
}

func settingsChanged(f *pflag.FlagSet) bool {
	for _, name := range []string{"username", "block-unknown", "use-neighbor-table", "connect-timeout"} {
		if f.Changed(name) {
			return true
		}
	}
	return false
}
