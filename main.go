package main

import "github.com/kiesman99/cosmoview/cmd"

func main() {
	cmd.Execute()
}
