package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long:  `Display configuration after applying defaults, config file, FORGE_PROVISION_* environment and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Display()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
