package command

// root.go defines the root command for the rcmd client.
// set up the global flags here.

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"rcmd/cmd/cli/command/client"
)

var (
	host    string        // server host
	port    int           // server port
	token   string        // shared secret, defaults to RCE_TOKEN
	timeout time.Duration // per-request deadline, 0 = none
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rcmd",
	Short: "rcmd - client for the predefined remote command server",
	Long: `rcmd talks to an rcmd server over TCP. The server only runs a fixed set of
inspection commands (sysinfo, listdir, diskspace, processlist, meminfo, netinfo,
fileinfo, uptime, hostname, echo, ping, findfile).

Use "rcmd exec <command> key=value..." for a single call or "rcmd shell" to send
one command per input line.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "server host")
	rootCmd.PersistentFlags().IntVar(&port, "port", 9999, "server port")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("RCE_TOKEN"), "auth token (or set RCE_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout, 0 waits forever")

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(shellCmd)
}

// newConnectedClient dials the server configured by the global flags.
func newConnectedClient() (*client.TCPClient, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c := client.NewTCPClient(addr, token, timeout)
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}
