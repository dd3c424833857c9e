package main

import "github.com/snapgram/cli/internal/cmd"

func main() {
	cmd.Execute()
}
