package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/store"
)

func contactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contact",
		Aliases: []string{"contacts"},
		Short:   "Manage contacts",
	}
	cmd.AddCommand(
		contactAddCmd(),
		contactListCmd(),
		contactRemoveCmd(),
		contactBlockCmd("block", true),
		contactBlockCmd("unblock", false),
		contactImportCmd(),
	)
	return cmd
}

func contactAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <public-key> [address...]",
		Short: "Add a contact",
		Long: "Add a contact. Addresses may be IPv4/IPv6 addresses, host names or MAC " +
			"addresses; MAC addresses are turned into IPv6 link-local candidates.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			pub, err := domain.ParsePublicKey(args[1])
			if err != nil {
				return err
			}
			c, err := rt.Contacts.Add(domain.Contact{Name: args[0], PublicKey: pub, Addresses: args[2:]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.Name, crypto.Fingerprint(c.PublicKey))
			return nil
		},
	}
}

func contactListCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			cs := rt.Contacts.Contacts()
			if check {
				cs = rt.Liveness.Sweep(cmd.Context(), cs)
			}
			printContacts(cmd.OutOrStdout(), cs, check)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "ping every contact first and show its state")
	return cmd
}

func printContacts(out io.Writer, cs []domain.Contact, withState bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "NAME\tFINGERPRINT\tADDRESSES\tBLOCKED"
	if withState {
		header += "\tSTATE"
	}
	fmt.Fprintln(tw, header)
	for _, c := range cs {
		line := fmt.Sprintf("%s\t%s\t%s\t%t", c.Name, crypto.Fingerprint(c.PublicKey), strings.Join(c.Addresses, ","), c.Blocked)
		if withState {
			line += "\t" + c.State.String()
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

func contactRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name|public-key>",
		Aliases: []string{"rm"},
		Short:   "Remove a contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			c, err := rt.ResolveContact(args[0])
			if err != nil {
				return err
			}
			if err := rt.Contacts.Remove(c.PublicKey); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", c.Name)
			return nil
		},
	}
}

func contactBlockCmd(use string, blocked bool) *cobra.Command {
	short := "Block calls from a contact"
	if !blocked {
		short = "Unblock a contact"
	}
	return &cobra.Command{
		Use:   use + " <name|public-key>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			c, err := rt.ResolveContact(args[0])
			if err != nil {
				return err
			}
			return rt.Contacts.SetBlocked(c.PublicKey, blocked)
		},
	}
}

func contactImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import contacts from a JSON file (comments allowed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(noHooks)
			if err != nil {
				return err
			}
			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			cs, err := store.ParseContacts(data)
			if err != nil {
				return err
			}
			added := 0
			for _, c := range cs {
				if _, err := rt.Contacts.Add(c); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: %v\n", c.Name, err)
					continue
				}
				added++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d contacts\n", added, len(cs))
			return nil
		},
	}
}
