// Package resolver looks entities up by natural key. It never mutates the
// store. The provisioner uses it for the idempotency check, for parent
// resolution and for the re-read after a lost creation race.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
)

// Reader is the read half of store.Store.
type Reader interface {
	FindOrganizationByPath(ctx context.Context, path string) (*model.Organization, error)
	FindOrganizationByID(ctx context.Context, id int64) (*model.Organization, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	FindNamespaceByID(ctx context.Context, id int64) (*model.Namespace, error)
	FindNamespaceByPath(ctx context.Context, path string) (*model.Namespace, error)
	FindPersonalNamespace(ctx context.Context, userID int64) (*model.Namespace, error)
	FindGroupByPath(ctx context.Context, path string) (*model.Group, error)
	FindProjectByFullPath(ctx context.Context, fullPath string) (*model.Project, error)
	FindMembership(ctx context.Context, userID, groupID int64) (*model.Membership, error)
}

type Resolver struct {
	r Reader
}

func New(r Reader) *Resolver { return &Resolver{r: r} }

// Resolve finds an entity of kind by its natural key. Keys are paths, except
// for users (username) and memberships (model.MembershipKey). Not found is
// reported as store.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, kind model.Kind, key string) (model.Entity, error) {
	switch kind {
	case model.KindOrganization:
		return entity(r.r.FindOrganizationByPath(ctx, key))
	case model.KindUser:
		return entity(r.r.FindUserByUsername(ctx, key))
	case model.KindNamespace:
		return entity(r.r.FindNamespaceByPath(ctx, key))
	case model.KindGroup:
		return entity(r.r.FindGroupByPath(ctx, key))
	case model.KindProject:
		return entity(r.r.FindProjectByFullPath(ctx, key))
	case model.KindMembership:
		userID, groupID, err := model.ParseMembershipKey(key)
		if err != nil {
			return nil, err
		}
		return entity(r.r.FindMembership(ctx, userID, groupID))
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

func entity[T model.Entity](e T, err error) (model.Entity, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Resolver) Organization(ctx context.Context, path string) (*model.Organization, error) {
	return r.r.FindOrganizationByPath(ctx, path)
}

func (r *Resolver) OrganizationByID(ctx context.Context, id int64) (*model.Organization, error) {
	return r.r.FindOrganizationByID(ctx, id)
}

func (r *Resolver) User(ctx context.Context, username string) (*model.User, error) {
	return r.r.FindUserByUsername(ctx, username)
}

func (r *Resolver) PersonalNamespace(ctx context.Context, userID int64) (*model.Namespace, error) {
	return r.r.FindPersonalNamespace(ctx, userID)
}

func (r *Resolver) Group(ctx context.Context, path string) (*model.Group, error) {
	return r.r.FindGroupByPath(ctx, path)
}

func (r *Resolver) Project(ctx context.Context, fullPath string) (*model.Project, error) {
	return r.r.FindProjectByFullPath(ctx, fullPath)
}

func (r *Resolver) Membership(ctx context.Context, userID, groupID int64) (*model.Membership, error) {
	return r.r.FindMembership(ctx, userID, groupID)
}

// The Require* helpers resolve a caller-supplied parent reference. A missing
// entity becomes DependencyUnresolved; other store errors pass through.

func (r *Resolver) RequireOrganization(ctx context.Context, path string) (*model.Organization, error) {
	return require(r.r.FindOrganizationByPath(ctx, path))("organization '%s' not found", path)
}

func (r *Resolver) RequireUser(ctx context.Context, username string) (*model.User, error) {
	return require(r.r.FindUserByUsername(ctx, username))("user '%s' not found", username)
}

func (r *Resolver) RequireUserByID(ctx context.Context, id int64) (*model.User, error) {
	return require(r.r.FindUserByID(ctx, id))("user with ID %s not found", strconv.FormatInt(id, 10))
}

func (r *Resolver) RequireNamespaceByID(ctx context.Context, id int64) (*model.Namespace, error) {
	return require(r.r.FindNamespaceByID(ctx, id))("namespace with ID %s not found", strconv.FormatInt(id, 10))
}

func (r *Resolver) RequireNamespace(ctx context.Context, path string) (*model.Namespace, error) {
	return require(r.r.FindNamespaceByPath(ctx, path))("namespace '%s' not found", path)
}

func (r *Resolver) RequirePersonalNamespace(ctx context.Context, u *model.User) (*model.Namespace, error) {
	return require(r.r.FindPersonalNamespace(ctx, u.ID))("user '%s' has no personal namespace", u.Username)
}

func (r *Resolver) RequireGroup(ctx context.Context, path string) (*model.Group, error) {
	return require(r.r.FindGroupByPath(ctx, path))("group '%s' not found", path)
}

func require[T any](v *T, err error) func(format string, args ...any) (*T, error) {
	return func(format string, args ...any) (*T, error) {
		if errors.Is(err, store.ErrNotFound) {
			return nil, outcome.Unresolved(format, args...)
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
