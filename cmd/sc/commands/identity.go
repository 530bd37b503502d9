package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/crypto"
)

func identityCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "identity",
		Aliases: []string{"fingerprint"},
		Short:   "Print public key and fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.Identity.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Public key:  %s\nFingerprint: %s\n", id.PublicKey, crypto.Fingerprint(id.PublicKey))
			return nil
		},
	}
}
