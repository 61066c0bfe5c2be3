package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/plan"
	"github.com/blackwell-systems/forge-provisioner/internal/report"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision every entity of a plan file",
	Long: `Provision the organizations, users, groups, projects and memberships
listed in a YAML or JSON plan, in that order.

One line per entry is printed to stdout:

  <kind> <key> SUCCESS:<id>
  <kind> <key> ERROR:<message>

A failed entry does not stop the run; the exit status is 1 if any entry
failed. An invalid plan provisions nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		p, err := plan.Load(file)
		if err != nil {
			return err
		}
		if result := plan.Validate(p); !result.Valid {
			printValidation(cmd, result)
			return fmt.Errorf("plan %s is invalid", file)
		}
		entries, err := p.Entries()
		if err != nil {
			return err
		}

		return run(cmd, func(ctx context.Context, e *env) int {
			out := cmd.OutOrStdout()
			failed := 0
			for _, entry := range entries {
				o := e.prov.Provision(ctx, entry.Kind, entry.Inputs)
				if report.ExitCode(o) != report.ExitOK {
					failed++
				}
				fmt.Fprintf(out, "%s %s %s\n", entry.Kind, entry.Key, report.Line(o))
			}

			summary := color.New(color.FgGreen)
			if failed > 0 {
				summary = color.New(color.FgRed)
			}
			summary.Fprintf(cmd.ErrOrStderr(), "%d provisioned, %d failed\n", len(entries)-failed, failed)

			if failed > 0 {
				return report.ExitFailure
			}
			return report.ExitOK
		})
	},
}

func init() {
	applyCmd.Flags().StringP("file", "f", "plan.yaml", "Plan file (.yaml, .yml or .json)")
}
