package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [command] [key=value...]",
	Short: "Run one command and print the response",
	Example: `  rcmd exec listdir path=/var/log
  rcmd exec ping host=example.com count=2
  rcmd exec echo message="hello world"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmdArgs, err := ParseArgs(args[0], args[1:])
		if err != nil {
			return err
		}

		c, err := newConnectedClient()
		if err != nil {
			return err
		}
		defer c.Disconnect()

		resp, err := c.Send(args[0], cmdArgs)
		if err != nil {
			return err
		}

		printResponse(os.Stdout, args[0], cmdArgs, resp)
		if !resp.OK() {
			return fmt.Errorf("command %s failed", args[0])
		}
		return nil
	},
}
