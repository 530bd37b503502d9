package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tunermason/SC/internal/app"
)

var (
	passphrase string
	wire       *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:           "sc",
		Short:         "Encrypted peer-to-peer calls on the local network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := app.SetupLogging(cfg, os.Stderr); err != nil {
				return err
			}
			if passphrase == "-" {
				if passphrase, err = promptPassphrase(); err != nil {
					return err
				}
			}
			wire, err = app.NewWire(cfg)
			return err
		},
	}

	app.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", `database passphrase ("-" to prompt)`)

	root.AddCommand(
		initCmd(),
		identityCmd(),
		settingsCmd(),
		contactCmd(),
		serveCmd(),
		callCmd(),
		pingCmd(),
		eventsCmd(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func promptPassphrase() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available to prompt for the passphrase")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var noHooks app.Hooks

func openRuntime(hooks app.Hooks) (*app.Runtime, error) {
	return wire.Open(passphrase, hooks)
}
