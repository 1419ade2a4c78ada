package main

import (
	"os"

	"xrayphasemap/internal/cmd"
)

var version = "dev"

func main() {
	cmd.Version = version
	os.Exit(cmd.Execute())
}
