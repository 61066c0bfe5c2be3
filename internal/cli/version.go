package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "forge-provision version %s\n", cmd.Root().Version)
		fmt.Fprintln(out, "\nComponents:")
		fmt.Fprintf(out, "  Go:                %s\n", runtime.Version())
		fmt.Fprintf(out, "  gorm:              %s\n", moduleVersion("gorm.io/gorm"))
		fmt.Fprintf(out, "  SQLite driver:     %s\n", moduleVersion("gorm.io/driver/sqlite"))
		fmt.Fprintf(out, "  Postgres driver:   %s\n", moduleVersion("gorm.io/driver/postgres"))
	},
}

func moduleVersion(path string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == path {
			return dep.Version
		}
	}
	return "unknown"
}
