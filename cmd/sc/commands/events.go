package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/domain"
)

func eventsCmd() *cobra.Command {
	var clearHistory bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the call history",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			if clearHistory {
				return rt.Contacts.ClearEvents()
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tCONTACT\tADDRESS")
			for _, ev := range rt.Contacts.Events() {
				who := domain.Contact{PublicKey: ev.PublicKey}
				if c, ok := rt.Contacts.Lookup(ev.PublicKey); ok {
					who = c
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ev.Date.Local().Format(time.DateTime), ev.Type, contactLabel(who), ev.Address)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "delete the call history")
	return cmd
}
