package main

import "arb-client/cmd/arb-cli/cmd"

func main() {
	cmd.Execute()
}
