package main

import "github.com/nfrund/huddle/cmd/huddle-cli/cmd"

func main() {
	cmd.Execute()
}
