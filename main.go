package main

import (
	"os"

	"github.com/aliher1911/ch341scan/cli"
	"github.com/aliher1911/ch341scan/logging"
)

func main() {
	logging.Init()
	defer logging.Finalize()

	if err := cli.Execute(); err != nil {
		logging.Finalize()
		os.Exit(1)
	}
}
