package provision

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/repository"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
)

func failed(err error) outcome.Outcome {
	return outcome.Failure(outcome.Classify(err))
}

// Organization finds or creates an organization by path.
func (p *Provisioner) Organization(ctx context.Context, req request.Organization) outcome.Outcome {
	owner, err := p.optionalAdmin(ctx)
	if err != nil {
		return failed(err)
	}
	return p.Run(ctx, p.organizationDescriptor(req.Name, req.Path, owner))
}

func (p *Provisioner) organizationDescriptor(name, path string, owner *model.User) Descriptor {
	return Descriptor{
		Kind:       model.KindOrganization,
		Key:        path,
		NaturalKey: store.OrganizationPathKey,
		Create: func(ctx context.Context) (model.Entity, error) {
			org := &model.Organization{Name: name, Path: path}
			if owner != nil {
				org.OwnerID = &owner.ID
			}
			if err := p.store.CreateOrganization(ctx, org); err != nil {
				return nil, err
			}
			return org, nil
		},
	}
}

// DefaultOrganization resolves the organization used when a request names
// none: the admin user's organization, else the oldest organization, else a
// newly created one. The result is remembered for the life of p.
func (p *Provisioner) DefaultOrganization(ctx context.Context) (*model.Organization, error) {
	if p.defaultOrg != nil {
		return p.defaultOrg, nil
	}

	admin, err := p.optionalAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if admin != nil && admin.OrganizationID != 0 {
		org, err := p.resolve.OrganizationByID(ctx, admin.OrganizationID)
		if err == nil {
			p.defaultOrg = org
			return org, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	org, err := p.store.FirstOrganization(ctx)
	if err == nil {
		p.defaultOrg = org
		return org, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	o := p.Run(ctx, p.organizationDescriptor(p.settings.DefaultOrgName, p.settings.DefaultOrgPath, admin))
	if o.Err != nil {
		return nil, fmt.Errorf("default organization: %w", o.Err)
	}
	org, err = p.resolve.OrganizationByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	p.defaultOrg = org
	return org, nil
}

// organization resolves an explicit organization path, or the default
// organization when path is empty.
func (p *Provisioner) organization(ctx context.Context, path string) (*model.Organization, error) {
	if path != "" {
		return p.resolve.RequireOrganization(ctx, path)
	}
	return p.DefaultOrganization(ctx)
}

func (p *Provisioner) optionalAdmin(ctx context.Context) (*model.User, error) {
	if p.settings.AdminUsername == "" {
		return nil, nil
	}
	admin, err := p.resolve.User(ctx, p.settings.AdminUsername)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return admin, err
}

// User finds or creates a user together with its personal namespace.
func (p *Provisioner) User(ctx context.Context, req request.User) outcome.Outcome {
	org, err := p.organization(ctx, req.OrganizationPath)
	if err != nil {
		return failed(err)
	}

	return p.Run(ctx, Descriptor{
		Kind:       model.KindUser,
		Key:        req.Username,
		NaturalKey: store.UserUsernameKey,
		Create: func(ctx context.Context) (model.Entity, error) {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return nil, &store.ValidationError{Messages: []string{"Password is too long (maximum is 72 bytes)"}}
			}
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}

			u := &model.User{
				Username:          req.Username,
				Email:             req.Email,
				Name:              req.Name,
				EncryptedPassword: string(hash),
				Admin:             req.Admin,
				OrganizationID:    org.ID,
			}
			if req.SkipConfirmation {
				now := p.now().UTC()
				u.ConfirmedAt = &now
			}
			ns := &model.Namespace{Name: req.Username, Path: req.Username}
			if err := p.store.CreateUser(ctx, u, ns); err != nil {
				return nil, err
			}
			return u, nil
		},
	})
}

// Group finds or creates a group together with its namespace.
func (p *Provisioner) Group(ctx context.Context, req request.Group) outcome.Outcome {
	org, err := p.organization(ctx, req.OrganizationPath)
	if err != nil {
		return failed(err)
	}

	return p.Run(ctx, Descriptor{
		Kind:       model.KindGroup,
		Key:        req.Path,
		NaturalKey: store.GroupPathKey,
		Create: func(ctx context.Context) (model.Entity, error) {
			g := &model.Group{
				Name:            req.Name,
				Path:            req.Path,
				Description:     req.Description,
				VisibilityLevel: int(req.Visibility),
				OrganizationID:  org.ID,
			}
			if err := p.store.CreateGroup(ctx, g, &model.Namespace{Name: req.Name, Path: req.Path}); err != nil {
				return nil, err
			}
			return g, nil
		},
	})
}

// Project finds or creates a project. Its namespace is the explicit one from
// the request, or the admin's personal namespace.
func (p *Provisioner) Project(ctx context.Context, req request.Project) outcome.Outcome {
	org, err := p.organization(ctx, req.OrganizationPath)
	if err != nil {
		return failed(err)
	}
	creator, err := p.resolve.RequireUser(ctx, p.settings.AdminUsername)
	if err != nil {
		return failed(err)
	}
	ns, err := p.projectNamespace(ctx, req, creator)
	if err != nil {
		return failed(err)
	}

	fullPath := model.ProjectFullPath(ns.FullPath(), req.Path)
	opts := req.Options

	return p.Run(ctx, Descriptor{
		Kind:       model.KindProject,
		Key:        fullPath,
		NaturalKey: store.ProjectFullPathKey,
		Create: func(ctx context.Context) (model.Entity, error) {
			proj := &model.Project{
				Name:                                   req.Name,
				Path:                                   req.Path,
				FullPath:                               fullPath,
				Description:                            req.Description,
				VisibilityLevel:                        int(req.Visibility),
				DefaultBranch:                          opts.DefaultBranch,
				IssuesEnabled:                          opts.IssuesEnabled,
				MergeRequestsEnabled:                   opts.MergeRequestsEnabled,
				WikiEnabled:                            opts.WikiEnabled,
				SnippetsEnabled:                        opts.SnippetsEnabled,
				ContainerRegistryEnabled:               opts.ContainerRegistryEnabled,
				LFSEnabled:                             opts.LFSEnabled,
				SharedRunnersEnabled:                   opts.SharedRunnersEnabled,
				OnlyAllowMergeIfPipelineSucceeds:       opts.OnlyAllowMergeIfPipelineSucceeds,
				OnlyAllowMergeIfAllDiscussionsResolved: opts.OnlyAllowMergeIfAllDiscussionsResolved,
				AllowMergeOnSkippedPipeline:            opts.AllowMergeOnSkippedPipeline,
				RemoveSourceBranchAfterMerge:           opts.RemoveSourceBranchAfterMerge,
				PrintingMergeRequestLinkEnabled:        opts.PrintingMergeRequestLinkEnabled,
				CIConfigPath:                           opts.CIConfigPath,
				OrganizationID:                         org.ID,
				NamespaceID:                            ns.ID,
				CreatorID:                              creator.ID,
			}
			if err := p.store.CreateProject(ctx, proj); err != nil {
				return nil, err
			}
			return proj, nil
		},
		AfterCreate: func(ctx context.Context, e model.Entity) error {
			return p.seedRepository(ctx, e.(*model.Project), creator, opts.InitializeWithReadme)
		},
	})
}

func (p *Provisioner) projectNamespace(ctx context.Context, req request.Project, creator *model.User) (*model.Namespace, error) {
	switch {
	case req.NamespaceID > 0:
		return p.resolve.RequireNamespaceByID(ctx, req.NamespaceID)
	case req.NamespacePath != "":
		return p.resolve.RequireNamespace(ctx, req.NamespacePath)
	default:
		return p.resolve.RequirePersonalNamespace(ctx, creator)
	}
}

// seedRepository creates the on-disk repository and, when asked, commits an
// initial README to the default branch.
func (p *Provisioner) seedRepository(ctx context.Context, proj *model.Project, author *model.User, readme bool) error {
	if p.repos == nil {
		return nil
	}
	if err := p.repos.CreateRepository(ctx, proj); err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	if !readme {
		return nil
	}
	err := p.repos.WriteFile(ctx, proj, author, repository.FileWrite{
		Path:    "README.md",
		Content: "# " + proj.Name + "\n\n" + proj.Description,
		Message: "Add README",
		Branch:  proj.DefaultBranch,
	})
	if err != nil {
		return fmt.Errorf("write README: %w", err)
	}
	return nil
}

// Membership finds or creates a user's membership in a group.
func (p *Provisioner) Membership(ctx context.Context, req request.Membership) outcome.Outcome {
	group, err := p.resolve.RequireGroup(ctx, req.GroupPath)
	if err != nil {
		return failed(err)
	}
	var user *model.User
	if req.Username != "" {
		user, err = p.resolve.RequireUser(ctx, req.Username)
	} else {
		user, err = p.resolve.RequireUserByID(ctx, req.UserID)
	}
	if err != nil {
		return failed(err)
	}

	return p.Run(ctx, Descriptor{
		Kind:       model.KindMembership,
		Key:        model.MembershipKey(user.ID, group.ID),
		NaturalKey: store.MembershipKey,
		Create: func(ctx context.Context) (model.Entity, error) {
			m := &model.Membership{UserID: user.ID, GroupID: group.ID, AccessLevel: int(req.AccessLevel)}
			if err := p.store.CreateMembership(ctx, m); err != nil {
				return nil, err
			}
			return m, nil
		},
	})
}

// LookupGroup reports a group's id without creating anything.
func (p *Provisioner) LookupGroup(ctx context.Context, req request.GroupLookup) outcome.Outcome {
	g, err := p.resolve.Group(ctx, req.Path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return outcome.NotFound()
	case err != nil:
		return failed(err)
	default:
		return outcome.Found(g.ID)
	}
}
