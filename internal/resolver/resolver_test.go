package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
	"github.com/blackwell-systems/forge-provisioner/internal/store"
)

func setup(t *testing.T) (*Resolver, *store.GormStore, *model.Organization) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "store.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	org := &model.Organization{Name: "Acme", Path: "acme"}
	if err := s.CreateOrganization(context.Background(), org); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	return New(s), s, org
}

func TestResolve(t *testing.T) {
	r, s, org := setup(t)
	ctx := context.Background()

	g := &model.Group{Name: "Ops", Path: "ops", OrganizationID: org.ID}
	if err := s.CreateGroup(ctx, g, &model.Namespace{Name: "Ops", Path: "ops"}); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	tests := []struct {
		name    string
		kind    model.Kind
		key     string
		wantID  int64
		wantErr error
	}{
		{name: "organization", kind: model.KindOrganization, key: "acme", wantID: org.ID},
		{name: "group", kind: model.KindGroup, key: "ops", wantID: g.ID},
		{name: "missing group", kind: model.KindGroup, key: "dev", wantErr: store.ErrNotFound},
		{name: "missing project", kind: model.KindProject, key: "ops/app", wantErr: store.ErrNotFound},
		{name: "missing membership", kind: model.KindMembership, key: model.MembershipKey(1, g.ID), wantErr: store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Resolve(ctx, tt.kind, tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve error = %v, want %v", err, tt.wantErr)
				}
				if e != nil {
					t.Errorf("Resolve returned %v alongside an error", e)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if e.EntityID() != tt.wantID {
				t.Errorf("id = %d, want %d", e.EntityID(), tt.wantID)
			}
		})
	}
}

func TestResolveBadInput(t *testing.T) {
	r, _, _ := setup(t)
	if _, err := r.Resolve(context.Background(), model.Kind("widget"), "x"); err == nil {
		t.Error("unknown kind should fail")
	}
	if _, err := r.Resolve(context.Background(), model.KindMembership, "nope"); err == nil {
		t.Error("malformed membership key should fail")
	}
}

func TestRequireUnresolved(t *testing.T) {
	r, _, _ := setup(t)
	ctx := context.Background()

	_, err := r.RequireGroup(ctx, "ghost")
	if !outcome.IsKind(err, outcome.DependencyUnresolved) {
		t.Fatalf("RequireGroup error = %v, want DependencyUnresolved", err)
	}
	if err.Error() != "group 'ghost' not found" {
		t.Errorf("message = %q", err.Error())
	}

	_, err = r.RequireNamespaceByID(ctx, 99)
	if !outcome.IsKind(err, outcome.DependencyUnresolved) || err.Error() != "namespace with ID 99 not found" {
		t.Errorf("RequireNamespaceByID error = %v", err)
	}

	if o, err := r.RequireOrganization(ctx, "acme"); err != nil || o.Path != "acme" {
		t.Errorf("RequireOrganization = %v, %v", o, err)
	}
}
