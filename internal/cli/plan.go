package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Work with plan files",
}

var planValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a plan file without touching the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			color.Red("✗ %v", err)
			return errFailed
		}

		result := plan.Validate(p)
		printValidation(cmd, result)
		if !result.Valid {
			return errFailed
		}

		color.Green("✓ Plan is valid")
		color.Cyan("  Organizations: %d", len(p.Organizations))
		color.Cyan("  Users:         %d", len(p.Users))
		color.Cyan("  Groups:        %d", len(p.Groups))
		color.Cyan("  Projects:      %d", len(p.Projects))
		color.Cyan("  Memberships:   %d", len(p.Memberships))
		return nil
	},
}

func printValidation(cmd *cobra.Command, result *plan.ValidationResult) {
	w := cmd.ErrOrStderr()
	for _, msg := range result.Errors {
		fmt.Fprintln(w, color.RedString("✗ %s", msg))
	}
	for _, msg := range result.Warnings {
		fmt.Fprintln(w, color.YellowString("⚠ %s", msg))
	}
}

func init() {
	planCmd.AddCommand(planValidateCmd)
}
