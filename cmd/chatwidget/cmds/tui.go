package cmds

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/chatwidget/pkg/echoserver"
	"github.com/go-go-golems/chatwidget/pkg/ui"
)

func NewTUICommand() *cobra.Command {
	var (
		flags    sessionFlags
		title    string
		withEcho string
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the chat widget in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if withEcho != "" {
				host, port, err := net.SplitHostPort(withEcho)
				if err != nil {
					return errors.Wrapf(err, "invalid --with-echo-server address %q", withEcho)
				}
				if host == "" {
					host = "localhost"
				}
				flags.endpoint = "http://" + net.JoinHostPort(host, port) + echoserver.ChatPath
			}

			s, err := flags.newSession()
			if err != nil {
				return err
			}

			if withEcho == "" {
				return ui.Run(ctx, s, ui.WithTitle(title))
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			eg, egCtx := errgroup.WithContext(ctx)
			srv := echoserver.New(withEcho)
			eg.Go(func() error {
				return srv.Run(egCtx)
			})
			eg.Go(func() error {
				defer cancel()
				return ui.Run(egCtx, s, ui.WithTitle(title))
			})
			if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Debug().Str("component", "tui").Msg("session closed")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&title, "title", "AI Assistant", "widget title")
	cmd.Flags().StringVar(&withEcho, "with-echo-server", "", "also serve the echo endpoint on this address and chat with it, ignoring --endpoint")
	return cmd
}
