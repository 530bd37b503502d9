package commands

import (
	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/domain"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping [name|public-key...]",
		Short: "Check which contacts are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			cs := rt.Contacts.Contacts()
			if len(args) > 0 {
				cs = make([]domain.Contact, 0, len(args))
				for _, a := range args {
					c, err := rt.ResolveContact(a)
					if err != nil {
						return err
					}
					cs = append(cs, c)
				}
			}
			printContacts(cmd.OutOrStdout(), rt.Liveness.Sweep(cmd.Context(), cs), true)
			return nil
		},
	}
}
