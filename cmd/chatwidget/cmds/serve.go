package cmds

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/chatwidget/pkg/echoserver"
)

func NewServeCommand() *cobra.Command {
	var (
		addr  string
		mode  string
		delay time.Duration
	)
	modes := make([]string, 0, len(echoserver.Modes))
	for _, m := range echoserver.Modes {
		modes = append(modes, string(m))
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local chat endpoint for manual testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := echoserver.ParseMode(mode)
			if err != nil {
				return err
			}
			srv := echoserver.New(addr, echoserver.WithMode(m), echoserver.WithDelay(delay))
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8000", "listen address")
	cmd.Flags().StringVar(&mode, "mode", string(echoserver.ModeEcho), "reply mode: "+strings.Join(modes, ", "))
	cmd.Flags().DurationVar(&delay, "delay", 0, "hold every reply back this long")
	return cmd
}
