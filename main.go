package main

import (
	"os"

	"dirbackup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
