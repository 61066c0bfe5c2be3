package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
)

const samplePlan = `
organizations:
  - name: Acme
    path: acme
users:
  - username: alice
    email: alice@example.com
    password: ${PLAN_TEST_PASSWORD}
    organization: acme
groups:
  - name: Platform
    path: platform
    visibility: internal
    organization: acme
projects:
  - name: api
    namespace: platform
    options:
      lfs_enabled: true
      default_branch: trunk
memberships:
  - user: alice
    group: platform
    access_level: maintainer
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	p, err := Load(writeFile(t, "plan.yaml", samplePlan))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Organizations) != 1 || len(p.Users) != 1 || len(p.Groups) != 1 || len(p.Projects) != 1 || len(p.Memberships) != 1 {
		t.Fatalf("unexpected plan %+v", p)
	}
	if p.Projects[0].Options["lfs_enabled"] != true {
		t.Errorf("options = %v", p.Projects[0].Options)
	}
}

func TestLoadJSON(t *testing.T) {
	doc := `{"groups": [{"name": "Ops", "path": "ops"}], "memberships": [{"user_id": 7, "group": "ops"}]}`
	p, err := Load(writeFile(t, "plan.json", doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Groups) != 1 || p.Memberships[0].UserID != 7 {
		t.Errorf("unexpected plan %+v", p)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestSaveAndLoad(t *testing.T) {
	orig := &Plan{Groups: []Group{{Name: "Ops", Path: "ops", Visibility: "public"}}}
	for _, name := range []string{"plan.yaml", "plan.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Save(orig, path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(got.Groups) != 1 || got.Groups[0] != orig.Groups[0] {
				t.Errorf("got %+v", got.Groups)
			}
		})
	}
}

func TestEntries(t *testing.T) {
	t.Setenv("PLAN_TEST_PASSWORD", "s3cret")
	p, err := Load(writeFile(t, "plan.yaml", samplePlan))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entries, err := p.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	wantKinds := []model.Kind{model.KindOrganization, model.KindUser, model.KindGroup, model.KindProject, model.KindMembership}
	wantKeys := []string{"acme", "alice", "platform", "platform/api", "alice@platform"}
	if len(entries) != len(wantKinds) {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Kind != wantKinds[i] || e.Key != wantKeys[i] {
			t.Errorf("entry %d = %s %s, want %s %s", i, e.Kind, e.Key, wantKinds[i], wantKeys[i])
		}
	}

	user, err := request.ResolveUser(entries[1].Inputs)
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if user.Password != "s3cret" || user.OrganizationPath != "acme" || user.Admin || !user.SkipConfirmation {
		t.Errorf("user request = %+v", user)
	}

	project, err := request.ResolveProject(entries[3].Inputs)
	if err != nil {
		t.Fatalf("ResolveProject: %v", err)
	}
	if !project.Options.LFSEnabled || project.Options.DefaultBranch != "trunk" || project.NamespacePath != "platform" {
		t.Errorf("project request = %+v", project)
	}

	member, err := request.ResolveMembership(entries[4].Inputs)
	if err != nil {
		t.Fatalf("ResolveMembership: %v", err)
	}
	if member.Username != "alice" || member.AccessLevel != 40 {
		t.Errorf("membership request = %+v", member)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		plan         Plan
		wantValid    bool
		wantError    string
		wantWarnings int
	}{
		{
			name: "complete plan",
			plan: Plan{
				Organizations: []Organization{{Name: "Acme", Path: "acme"}},
				Users:         []User{{Username: "alice", Email: "alice@example.com", Password: "pw", Organization: "acme"}},
				Groups:        []Group{{Name: "Ops", Path: "ops", Organization: "acme"}},
				Projects:      []Project{{Name: "api", Namespace: "ops"}},
				Memberships:   []Membership{{User: "alice", Group: "ops", AccessLevel: "owner"}},
			},
			wantValid: true,
		},
		{
			name:      "missing group path",
			plan:      Plan{Groups: []Group{{Name: "Ops"}}},
			wantError: "groups[0]: GROUP_NAME and GROUP_PATH are required",
		},
		{
			name:      "invalid path",
			plan:      Plan{Organizations: []Organization{{Name: "Bad", Path: "bad.git"}}},
			wantError: `organizations[0]: path "bad.git" can contain only`,
		},
		{
			name: "duplicate email",
			plan: Plan{Users: []User{
				{Username: "alice", Email: "same@example.com", Password: "pw"},
				{Username: "bob", Email: "same@example.com", Password: "pw"},
			}},
			wantError: `users[1]: duplicate email "same@example.com"`,
		},
		{
			name: "group shadows user namespace",
			plan: Plan{
				Users:  []User{{Username: "alice", Email: "alice@example.com", Password: "pw"}},
				Groups: []Group{{Name: "Alice", Path: "alice"}},
			},
			wantError: `groups[0]: path "alice" is already used by a user namespace`,
		},
		{
			name:      "unknown access level",
			plan:         Plan{Memberships: []Membership{{User: "alice", Group: "ops", AccessLevel: "superuser"}}},
			wantError:    `memberships[0]: access level "superuser" is not valid`,
			wantWarnings: 2,
		},
		{
			name:      "membership without user",
			plan:      Plan{Memberships: []Membership{{Group: "ops"}}},
			wantError: "memberships[0]: USER_ID and GROUP_PATH are required",
		},
		{
			name:         "undeclared references are warnings",
			plan:         Plan{Groups: []Group{{Name: "Ops", Path: "ops", Organization: "elsewhere", Visibility: "secret"}}},
			wantValid:    true,
			wantWarnings: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(&tt.plan)
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, errors = %v", result.Valid, result.Errors)
			}
			if tt.wantError != "" {
				found := false
				for _, e := range result.Errors {
					if strings.HasPrefix(e, tt.wantError) {
						found = true
					}
				}
				if !found {
					t.Errorf("errors %v do not contain %q", result.Errors, tt.wantError)
				}
			}
			if len(result.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", result.Warnings, tt.wantWarnings)
			}
		})
	}
}

func TestValidationResult(t *testing.T) {
	result := &ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if !result.Valid {
		t.Error("New ValidationResult should be valid initially")
	}

	result.addError("test %s", "error")

	if result.Valid {
		t.Error("ValidationResult should be invalid after adding error")
	}

	if len(result.Errors) != 1 {
		t.Errorf("Expected 1 error, got %d", len(result.Errors))
	}

	if result.Errors[0] != "test error" {
		t.Errorf("Expected 'test error', got %q", result.Errors[0])
	}
}

func TestPasswordReferences(t *testing.T) {
	t.Setenv("PLAN_TEST_PASSWORD", "from-env")

	tests := []struct {
		name     string
		password string
		want     string
	}{
		{name: "literal with dollar", password: "P@ss$1word", want: "P@ss$1word"},
		{name: "literal with braces inside", password: "a${PLAN_TEST_PASSWORD}b", want: "a${PLAN_TEST_PASSWORD}b"},
		{name: "bare dollar name", password: "$PLAN_TEST_PASSWORD", want: "$PLAN_TEST_PASSWORD"},
		{name: "whole value reference", password: "${PLAN_TEST_PASSWORD}", want: "from-env"},
		{name: "unset reference", password: "${PLAN_TEST_UNSET}", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{Username: "alice", Email: "alice@example.com", Password: tt.password}
			req, err := request.ResolveUser(u.inputs())
			if tt.want == "" {
				if err == nil {
					t.Errorf("an unset reference should leave USER_PASSWORD missing, got %q", req.Password)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveUser: %v", err)
			}
			if req.Password != tt.want {
				t.Errorf("password = %q, want %q", req.Password, tt.want)
			}
		})
	}
}
