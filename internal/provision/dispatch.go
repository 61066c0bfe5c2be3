package provision

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
)

// Provision normalizes in into the request for kind and provisions it.
// Missing inputs fail before the store is touched.
func (p *Provisioner) Provision(ctx context.Context, kind model.Kind, in request.Inputs) outcome.Outcome {
	switch kind {
	case model.KindOrganization:
		return dispatch(ctx, in, request.ResolveOrganization, p.Organization)
	case model.KindUser:
		return dispatch(ctx, in, request.ResolveUser, p.User)
	case model.KindGroup:
		return dispatch(ctx, in, request.ResolveGroup, p.Group)
	case model.KindProject:
		return dispatch(ctx, in, request.ResolveProject, p.Project)
	case model.KindMembership:
		return dispatch(ctx, in, request.ResolveMembership, p.Membership)
	default:
		return failed(fmt.Errorf("%s entities cannot be provisioned directly", kind))
	}
}

// Lookup resolves a group lookup request from in.
func (p *Provisioner) Lookup(ctx context.Context, in request.Inputs) outcome.Outcome {
	return dispatch(ctx, in, request.ResolveGroupLookup, p.LookupGroup)
}

func dispatch[R any](ctx context.Context, in request.Inputs, resolve func(request.Inputs) (R, error), build func(context.Context, R) outcome.Outcome) outcome.Outcome {
	req, err := resolve(in)
	if err != nil {
		return failed(err)
	}
	return build(ctx, req)
}
