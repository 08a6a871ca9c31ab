package main

import (
	"github.com/jjtimmons/gcall/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
