// Package cli implements the forge-provision command tree.
//
// Provisioning commands read their entity parameters from the environment
// and write exactly one protocol line to stdout. Everything else a command
// has to say goes to stderr.
package cli

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/report"
)

// errFailed marks a command whose failure has already been reported on
// stdout.
var errFailed = errors.New("provisioning failed")

// protocolAnnotation marks commands whose stdout is the one-line result
// protocol, even when cobra rejects their arguments.
const protocolAnnotation = "forge-provision/protocol"

var protocolCommand = map[string]string{protocolAnnotation: "true"}

var rootCmd = &cobra.Command{
	Use:   "forge-provision",
	Short: "Idempotent provisioning of organizations, users, groups and projects",
	Long: `forge-provision creates forge entities if they do not exist yet.

Each provisioning command reads its parameters from environment variables
(GROUP_NAME, USER_EMAIL, ...) and prints a single line:

  SUCCESS:<id>    the entity exists, whether it was created now or before
  ERROR:<message> nothing was provisioned

Running the same command twice yields the same id.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	return executeRoot()
}

func executeRoot() error {
	cmd, err := rootCmd.ExecuteC()
	if err == nil || errors.Is(err, errFailed) {
		return err
	}
	if cmd != nil && cmd.Annotations[protocolAnnotation] == "true" {
		report.Write(cmd.OutOrStdout(), outcome.Failure(outcome.Classify(err)))
		return errFailed
	}
	color.New(color.FgRed).Fprintf(rootCmd.ErrOrStderr(), "✗ %v\n", err)
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("store-dsn", "", "SQLite file path or Postgres DSN")
	flags.String("log-level", "", "Diagnostic log level (trace|debug|info|warn|error)")
	flags.String("log-format", "", "Diagnostic log format (json|console)")
	flags.String("repo-root", "", "Directory holding bare project repositories")

	// Bind flags to viper
	viper.BindPFlag("store-dsn", flags.Lookup("store-dsn"))
	viper.BindPFlag("log-level", flags.Lookup("log-level"))
	viper.BindPFlag("log-format", flags.Lookup("log-format"))
	viper.BindPFlag("repo-root", flags.Lookup("repo-root"))

	rootCmd.AddCommand(
		createOrganizationCmd,
		createUserCmd,
		createGroupCmd,
		createProjectCmd,
		assignMemberCmd,
		groupIDCmd,
		applyCmd,
		planCmd,
		statusCmd,
		configCmd,
		versionCmd,
	)
}
