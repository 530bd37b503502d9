package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/app"
)

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <name|public-key>",
		Short: "Call a contact; interrupt to hang up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rt, err := openRuntime(app.Hooks{OnState: printState(out)})
			if err != nil {
				return err
			}
			contact, err := rt.ResolveContact(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := rt.Calls.Dial(ctx, contact)
			if err != nil {
				return err
			}
			defer s.Cleanup()

			st, err := s.Wait(ctx)
			if err != nil {
				// Interrupted.
				return nil
			}
			if st.IsError() {
				return fmt.Errorf("call to %s failed: %s", contact.Name, st)
			}
			return nil
		},
	}
}
