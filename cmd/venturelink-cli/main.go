package main

import "github.com/venturelink/venturelink/cmd/venturelink-cli/cmd"

func main() {
	cmd.Execute()
}
