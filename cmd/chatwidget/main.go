package main

import (
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/chatwidget/cmd/chatwidget/cmds"
)

func newRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "chatwidget",
		Short: "chatwidget is a small chat client for a single HTTP chat endpoint",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// reinitialize the logger because we can now parse --log-level and co
			// from the command line flag
			return logging.InitLoggerFromCobra(cmd)
		},
	}

	if err := clay.InitGlazed("chatwidget", rootCmd); err != nil {
		return nil, err
	}

	sendCmd, err := cmds.NewSendCommand()
	if err != nil {
		return nil, err
	}
	cobraSendCmd, err := cli.BuildCobraCommand(sendCmd)
	if err != nil {
		return nil, err
	}

	askCmd, err := cmds.NewAskCommand()
	if err != nil {
		return nil, err
	}
	cobraAskCmd, err := cli.BuildCobraCommand(askCmd)
	if err != nil {
		return nil, err
	}

	rootCmd.AddCommand(
		cmds.NewTUICommand(),
		cobraSendCmd,
		cobraAskCmd,
		cmds.NewServeCommand(),
	)
	return rootCmd, nil
}

func main() {
	rootCmd, err := newRootCommand()
	cobra.CheckErr(err)

	err = rootCmd.Execute()
	cobra.CheckErr(err)
}
