package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/report"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
)

var createOrganizationCmd = provisionCommand(model.KindOrganization, "create-organization",
	"Find or create an organization",
	`Required: ORGANIZATION_NAME, ORGANIZATION_PATH`)

var createUserCmd = provisionCommand(model.KindUser, "create-user",
	"Find or create a user and its personal namespace",
	`Required: USER_USERNAME, USER_EMAIL, USER_PASSWORD
Optional: USER_NAME (defaults to the username), USER_IS_ADMIN ("true"),
          USER_SKIP_CONFIRMATION (anything but "false"), USER_ORGANIZATION_PATH`)

var createGroupCmd = provisionCommand(model.KindGroup, "create-group",
	"Find or create a group",
	`Required: GROUP_NAME, GROUP_PATH
Optional: GROUP_DESCRIPTION, GROUP_VISIBILITY (private|internal|public),
          GROUP_ORGANIZATION_PATH`)

var createProjectCmd = provisionCommand(model.KindProject, "create-project",
	"Find or create a project",
	`Required: PROJECT_NAME
Optional: PROJECT_PATH (defaults to the name), PROJECT_DESCRIPTION,
          PROJECT_VISIBILITY, PROJECT_NAMESPACE_ID, PROJECT_NAMESPACE_PATH,
          PROJECT_ORGANIZATION_PATH, PROJECT_CONFIG_JSON

Without a namespace the project is created in the admin user's personal
namespace.`)

var assignMemberCmd = provisionCommand(model.KindMembership, "assign-member",
	"Add a user to a group unless already a member",
	`Required: USER_ID (or USER_USERNAME), GROUP_PATH
Optional: ACCESS_LEVEL (number or guest|reporter|developer|maintainer|owner,
          defaults to developer)

An existing membership is returned unchanged, whatever its access level.`)

var groupIDCmd = &cobra.Command{
	Use:   "group-id",
	Short: "Print the id of a group, or nil",
	Long: `Required: GROUP_PATH

Prints the bare id of the group, or "nil" when it does not exist.`,
	Args:        cobra.NoArgs,
	Annotations: protocolCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, e *env) int {
			return report.Write(cmd.OutOrStdout(), e.prov.Lookup(ctx, environ()))
		})
	},
}

func provisionCommand(kind model.Kind, use, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       short,
		Long:        short + ".\n\n" + long,
		Args:        cobra.NoArgs,
		Annotations: protocolCommand,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, e *env) int {
				return report.Write(cmd.OutOrStdout(), e.prov.Provision(ctx, kind, environ()))
			})
		},
	}
}

func environ() request.Inputs {
	return request.FromEnviron(os.Environ())
}
