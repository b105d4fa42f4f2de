package main

import "ratesetter-client/cmd/ratesetter-cli/commands"

func main() {
	commands.Execute()
}
