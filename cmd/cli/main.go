package main

import "rcmd/cmd/cli/command"

func main() {
	command.Execute()
}
