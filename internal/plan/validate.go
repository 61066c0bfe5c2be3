package plan

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/forge-provisioner/internal/access"
	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
)

// ValidationResult contains validation errors and warnings
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks required fields, path syntax, duplicate natural keys and
// references between entries. A reference to an entity the plan does not
// declare is only a warning, because it may already exist in the store.
func Validate(p *Plan) *ValidationResult {
	result := &ValidationResult{Valid: true}

	orgs := make(map[string]bool)
	for i, o := range p.Organizations {
		where := fmt.Sprintf("organizations[%d]", i)
		if _, err := request.ResolveOrganization(o.inputs()); err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		validatePath(result, where, "path", o.Path)
		unique(result, orgs, where, "organization path", o.Path)
	}

	users := make(map[string]bool)
	emails := make(map[string]bool)
	for i, u := range p.Users {
		where := fmt.Sprintf("users[%d]", i)
		if _, err := request.ResolveUser(u.inputs()); err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		validatePath(result, where, "username", u.Username)
		unique(result, users, where, "username", u.Username)
		unique(result, emails, where, "email", u.Email)
		checkReference(result, orgs, where, "organization", u.Organization)
	}

	groups := make(map[string]bool)
	for i, g := range p.Groups {
		where := fmt.Sprintf("groups[%d]", i)
		if _, err := request.ResolveGroup(g.inputs()); err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		validatePath(result, where, "path", g.Path)
		unique(result, groups, where, "group path", g.Path)
		if users[g.Path] {
			result.addError("%s: path %q is already used by a user namespace", where, g.Path)
		}
		checkVisibility(result, where, g.Visibility)
		checkReference(result, orgs, where, "organization", g.Organization)
	}

	projects := make(map[string]bool)
	for i, pr := range p.Projects {
		where := fmt.Sprintf("projects[%d]", i)
		in, err := pr.inputs()
		if err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		if _, err := request.ResolveProject(in); err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		validatePath(result, where, "path", pr.path())
		checkVisibility(result, where, pr.Visibility)
		checkReference(result, orgs, where, "organization", pr.Organization)
		if pr.Namespace != "" && !groups[pr.Namespace] && !users[pr.Namespace] {
			result.addWarning("%s: namespace %q is not declared in this plan", where, pr.Namespace)
		}
		if pr.Namespace != "" && pr.NamespaceID > 0 {
			result.addWarning("%s: namespace_id takes precedence over namespace %q", where, pr.Namespace)
		}
		if pr.Namespace != "" || pr.NamespaceID == 0 {
			unique(result, projects, where, "project", pr.key())
		}
	}

	members := make(map[string]bool)
	for i, m := range p.Memberships {
		where := fmt.Sprintf("memberships[%d]", i)
		req, err := request.ResolveMembership(m.inputs())
		if err != nil {
			result.addError("%s: %v", where, err)
			continue
		}
		if !req.AccessLevel.Known() {
			result.addError("%s: access level %q is not valid", where, m.AccessLevel)
		}
		if m.User != "" {
			checkReference(result, users, where, "user", m.User)
		}
		checkReference(result, groups, where, "group", m.Group)
		unique(result, members, where, "membership", m.key())
	}

	return result
}

// validatePath checks a single path segment
func validatePath(r *ValidationResult, where, field, value string) {
	if !model.ValidPath(value) {
		r.addError("%s: %s %q can contain only letters, digits, '_', '-' and '.', and cannot start with '-' or end in '.', '.git' or '.atom'", where, field, value)
	}
}

func unique(r *ValidationResult, seen map[string]bool, where, what, key string) {
	if seen[key] {
		r.addError("%s: duplicate %s %q", where, what, key)
		return
	}
	seen[key] = true
}

func checkReference(r *ValidationResult, declared map[string]bool, where, what, key string) {
	if key != "" && !declared[key] {
		r.addWarning("%s: %s %q is not declared in this plan", where, what, key)
	}
}

func checkVisibility(r *ValidationResult, where, value string) {
	if value == "" {
		return
	}
	if access.ParseVisibility(value).String() != strings.ToLower(strings.TrimSpace(value)) {
		r.addWarning("%s: unknown visibility %q will be treated as private", where, value)
	}
}
