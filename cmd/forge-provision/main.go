package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/forge-provisioner/internal/cli"
	"github.com/blackwell-systems/forge-provisioner/internal/config"
)

var version = "dev"

func main() {
	// Initialize configuration
	if err := config.Init(); err != nil {
		// The protocol line is the only thing callers parse.
		fmt.Fprintf(os.Stdout, "ERROR:failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	// Execute root command
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
