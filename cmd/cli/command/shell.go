package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rcmd/cmd/cli/command/client"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Send one command per line read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConnectedClient()
		if err != nil {
			return err
		}
		defer c.Disconnect()

		color.Green("Connected to %s:%d. Type 'help' for commands, 'exit' to quit.", host, port)
		return runShell(c, os.Stdin, os.Stdout)
	},
}

// runShell reads commands until EOF or "exit".
func runShell(c *client.TCPClient, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "rcmd> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := splitFields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help":
			printHelp(out)
			continue
		}

		cmdArgs, err := ParseArgs(fields[0], fields[1:])
		if err != nil {
			fmt.Fprintln(out, color.RedString("%v", err))
			continue
		}
		resp, err := c.Send(fields[0], cmdArgs)
		if err != nil {
			return err
		}
		printResponse(out, fields[0], cmdArgs, resp)
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Available commands:")
	for _, name := range known.Names() {
		spec, _ := known.Lookup(name)
		fmt.Fprintf(out, "  %-40s %s\n", spec.Usage(), spec.Description)
	}
	fmt.Fprintf(out, "  %-40s %s\n", "help", "Show this help")
	fmt.Fprintf(out, "  %-40s %s\n", "exit", "Disconnect and quit")
}

// splitFields splits on whitespace, keeping double-quoted runs together.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes, started := false, false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			started = true
		case !inQuotes && (r == ' ' || r == '\t'):
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields
}
