package main

import "github.com/danpilch/cgraph/cmd/cgraph/commands"

func main() {
	commands.Execute()
}
