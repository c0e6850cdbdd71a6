package main

import (
	"os"

	"SwiftBackuper/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
