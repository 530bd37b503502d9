package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and generate an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := wire.Identity.LoadIdentity(passphrase); err == nil && !force {
				return errors.New("identity already exists; use --force to replace it")
			}
			id, fp, err := wire.Identity.GenerateIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nPublic key:  %s\nFingerprint: %s\n", id.PublicKey, fp)
			if passphrase == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no passphrase given, database is stored unencrypted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing identity")
	return cmd
}
