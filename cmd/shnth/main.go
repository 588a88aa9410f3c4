package main

import (
	"os"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"shnth-control/cli"
	"shnth-control/debug"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	debug.Disable()
	if err != nil {
		format, _ := root.PersistentFlags().GetString("format")
		cli.WriteError(root.ErrOrStderr(), format, err)
		os.Exit(cli.GetExitCode(err))
	}
}
