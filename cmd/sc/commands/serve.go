package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tunermason/SC/internal/app"
	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/server"
	"github.com/tunermason/SC/internal/services/call"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var answer string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for calls and track which contacts are online",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch answer {
			case "ask", "accept", "decline":
			default:
				return fmt.Errorf("--answer must be ask, accept or decline, not %q", answer)
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			lines := readLines(cmd.InOrStdin())

			rt, err := openRuntime(app.Hooks{
				OnIncoming: func(s *call.Session) { answerCall(ctx, out, lines, answer, s) },
				OnState:    printState(out),
				OnSweep: func(cs []domain.Contact) {
					for _, c := range cs {
						logrus.WithFields(logrus.Fields{
							"contact": contactLabel(c),
							"state":   c.State.String(),
						}).Debug("Liveness")
					}
				},
			})
			if err != nil {
				return err
			}

			ln, err := server.Listen(ctx, wire.Config.Addr())
			if err != nil {
				return err
			}
			if wire.Config.SweepInterval > 0 {
				go rt.Liveness.Run(ctx, wire.Config.SweepInterval)
			}
			served := make(chan error, 1)
			go func() { served <- rt.Server.Serve(ctx, ln) }()

			select {
			case <-ctx.Done():
			case err = <-served:
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			rt.Calls.Shutdown()
			rt.Server.Shutdown(sctx)
			return err
		},
	}
	cmd.Flags().StringVar(&answer, "answer", "ask", "what to do with incoming calls: ask, accept or decline")
	return cmd
}

func answerCall(ctx context.Context, out io.Writer, lines <-chan string, mode string, s *call.Session) {
	who := contactLabel(s.Contact())
	accept := mode == "accept"
	if mode == "ask" {
		fmt.Fprintf(out, "Incoming call from %s. Accept? [y/N] ", who)
		ended := make(chan struct{})
		go func() {
			_, _ = s.Wait(ctx)
			close(ended)
		}()
		select {
		case line := <-lines:
			accept = strings.EqualFold(strings.TrimSpace(line), "y")
		case <-ended:
			fmt.Fprintln(out)
			return
		case <-ctx.Done():
			return
		}
	}

	if !accept {
		_ = s.Decline()
		return
	}
	if err := s.Accept(ctx); err != nil {
		fmt.Fprintf(out, "Could not accept call from %s: %v\n", who, err)
	}
}

func printState(out io.Writer) func(*call.Session, domain.CallState) {
	return func(s *call.Session, st domain.CallState) {
		fmt.Fprintf(out, "[%s] %s\n", contactLabel(s.Contact()), st)
	}
}

func contactLabel(c domain.Contact) string {
	fp := string(crypto.Fingerprint(c.PublicKey))
	if c.IsEphemeral() {
		return fp
	}
	return c.Name + " (" + fp + ")"
}

// readLines feeds r to a channel, one line at a time.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}
