// Package forgeprovisioner provides idempotent provisioning for a code
// forge.
//
// It creates organizations, users (with their personal namespaces), groups,
// projects and group memberships only if they do not exist yet, so the same
// invocation can be repeated safely by deployment tooling.
//
// # Overview
//
// The provisioner provides:
//   - forge-provision CLI, one command per entity type
//   - A one-line stdout protocol: SUCCESS:<id>, ERROR:<message> or nil
//   - YAML/JSON plan files for batch provisioning
//   - SQLite and Postgres stores via gorm
//   - Bare git repositories with an optional seeded README
//
// # Installation
//
//	go install github.com/blackwell-systems/forge-provisioner/cmd/forge-provision@latest
//
// # Quick Start
//
//	GROUP_NAME=Platform GROUP_PATH=platform forge-provision create-group
//	GROUP_PATH=platform forge-provision group-id
//	forge-provision plan validate plan.yaml
//	forge-provision apply -f plan.yaml
//
// # Configuration
//
// Tool settings come from flags, FORGE_PROVISION_* environment variables,
// $HOME/.forge-provision/config.yaml and built-in defaults, in that order.
// Entity parameters are plain environment variables such as GROUP_NAME.
package forgeprovisioner
