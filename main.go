package main

import (
	"os"

	"github.com/empd2/empd-admin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
