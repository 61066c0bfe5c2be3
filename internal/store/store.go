// Package store is the Entity Store adapter: find-by-natural-key and create
// operations for every entity type, backed by GORM.
//
// The store is the only place uniqueness is enforced. Callers detect a lost
// creation race through *UniqueViolation and decide for themselves whether
// the violated constraint is the natural key they were creating.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
)

// ErrNotFound is returned by every Find method when nothing matches.
var ErrNotFound = errors.New("record not found")

// Store defines the methods the provisioner uses.
type Store interface {
	FindOrganizationByPath(ctx context.Context, path string) (*model.Organization, error)
	FindOrganizationByID(ctx context.Context, id int64) (*model.Organization, error)
	FirstOrganization(ctx context.Context) (*model.Organization, error)
	CreateOrganization(ctx context.Context, org *model.Organization) error

	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	// CreateUser persists u and its personal namespace atomically.
	CreateUser(ctx context.Context, u *model.User, ns *model.Namespace) error

	FindNamespaceByID(ctx context.Context, id int64) (*model.Namespace, error)
	FindNamespaceByPath(ctx context.Context, path string) (*model.Namespace, error)
	FindPersonalNamespace(ctx context.Context, userID int64) (*model.Namespace, error)

	FindGroupByPath(ctx context.Context, path string) (*model.Group, error)
	// CreateGroup persists g and its group namespace atomically.
	CreateGroup(ctx context.Context, g *model.Group, ns *model.Namespace) error

	FindProjectByFullPath(ctx context.Context, fullPath string) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error

	FindMembership(ctx context.Context, userID, groupID int64) (*model.Membership, error)
	CreateMembership(ctx context.Context, m *model.Membership) error

	Ping(ctx context.Context) error
	Close() error
}

// UniqueViolation is returned by Create methods when a unique index rejects
// the row. Constraint is the index name, e.g. idx_users_username.
type UniqueViolation struct {
	Constraint string
	Field      string
	Err        error
}

func (e *UniqueViolation) Error() string { return e.Field + " has already been taken" }

func (e *UniqueViolation) Unwrap() error { return e.Err }

// ValidationError carries human-readable messages for every rejected field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, "; ") }

// Natural-key constraint names, one per entity type.
const (
	OrganizationPathKey = "idx_organizations_path"
	UserUsernameKey     = "idx_users_username"
	UserEmailKey        = "idx_users_email"
	NamespacePathKey    = "idx_namespaces_path"
	GroupPathKey        = "idx_groups_path"
	ProjectFullPathKey  = "idx_projects_full_path"
	MembershipKey       = "idx_members_user_group"
)

type constraint struct {
	index string
	// column is how SQLite names the constraint in its error text.
	column string
	field  string
}

var constraints = []constraint{
	{OrganizationPathKey, "organizations.path", "Path"},
	{UserUsernameKey, "users.username", "Username"},
	{UserEmailKey, "users.email", "Email"},
	{NamespacePathKey, "namespaces.path", "Namespace path"},
	{GroupPathKey, "groups.path", "Path"},
	{ProjectFullPathKey, "projects.full_path", "Path"},
	{MembershipKey, "members.user_id, members.group_id", "User"},
}

// classifyUnique turns a driver error into *UniqueViolation when it names one
// of the known unique indexes. Postgres reports the index name, SQLite the
// table.column list.
func classifyUnique(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if !strings.Contains(lower, "unique constraint") && !strings.Contains(lower, "duplicate key") {
		return err
	}
	for _, c := range constraints {
		if strings.Contains(msg, c.index) || strings.Contains(msg, c.column) {
			return &UniqueViolation{Constraint: c.index, Field: c.field, Err: err}
		}
	}
	return &UniqueViolation{Field: "Record", Err: err}
}
