package main

import (
	"os"

	"github.com/lucidcomponents/lucid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
