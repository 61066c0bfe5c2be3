// Package request normalizes the named string inputs of an invocation into
// one typed, fully-defaulted creation request per entity type.
package request

import (
	"strconv"
	"strings"

	"github.com/blackwell-systems/forge-provisioner/internal/access"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
)

// Inputs maps input names (GROUP_NAME, ...) to their raw values.
type Inputs map[string]string

// FromEnviron builds Inputs from os.Environ-style KEY=VALUE pairs.
func FromEnviron(environ []string) Inputs {
	in := make(Inputs, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			in[k] = v
		}
	}
	return in
}

// Get returns the value of name, or "" when absent.
func (in Inputs) Get(name string) string { return in[name] }

// require checks names in order and reports the first one that is empty.
func (in Inputs) require(names ...string) error {
	for _, n := range names {
		if in[n] == "" {
			return outcome.Missing(n, names...)
		}
	}
	return nil
}

type Organization struct {
	Name string
	Path string
}

func ResolveOrganization(in Inputs) (Organization, error) {
	if err := in.require("ORGANIZATION_NAME", "ORGANIZATION_PATH"); err != nil {
		return Organization{}, err
	}
	return Organization{Name: in.Get("ORGANIZATION_NAME"), Path: in.Get("ORGANIZATION_PATH")}, nil
}

type User struct {
	Username         string
	Email            string
	Password         string
	Name             string
	Admin            bool
	SkipConfirmation bool
	// OrganizationPath is empty when the default organization applies.
	OrganizationPath string
}

func ResolveUser(in Inputs) (User, error) {
	if err := in.require("USER_USERNAME", "USER_EMAIL", "USER_PASSWORD"); err != nil {
		return User{}, err
	}
	name := in.Get("USER_NAME")
	if name == "" {
		name = in.Get("USER_USERNAME")
	}
	u := User{
		Username:         in.Get("USER_USERNAME"),
		Email:            in.Get("USER_EMAIL"),
		Password:         in.Get("USER_PASSWORD"),
		Name:             name,
		Admin:            in.Get("USER_IS_ADMIN") == "true",
		SkipConfirmation: in.Get("USER_SKIP_CONFIRMATION") != "false",
		OrganizationPath: in.Get("USER_ORGANIZATION_PATH"),
	}
	return u, nil
}

type Group struct {
	Name             string
	Path             string
	Description      string
	Visibility       access.Visibility
	OrganizationPath string
}

func ResolveGroup(in Inputs) (Group, error) {
	if err := in.require("GROUP_NAME", "GROUP_PATH"); err != nil {
		return Group{}, err
	}
	return Group{
		Name:             in.Get("GROUP_NAME"),
		Path:             in.Get("GROUP_PATH"),
		Description:      in.Get("GROUP_DESCRIPTION"),
		Visibility:       access.ParseVisibility(in.Get("GROUP_VISIBILITY")),
		OrganizationPath: in.Get("GROUP_ORGANIZATION_PATH"),
	}, nil
}

type Project struct {
	Name        string
	Path        string
	Description string
	Visibility  access.Visibility
	// NamespaceID is 0 when no explicit namespace id was given.
	NamespaceID      int64
	NamespacePath    string
	OrganizationPath string
	Options          ProjectOptions
}

func ResolveProject(in Inputs) (Project, error) {
	if err := in.require("PROJECT_NAME"); err != nil {
		return Project{}, err
	}
	name := in.Get("PROJECT_NAME")
	path := in.Get("PROJECT_PATH")
	if path == "" {
		path = name
	}
	return Project{
		Name:             name,
		Path:             path,
		Description:      in.Get("PROJECT_DESCRIPTION"),
		Visibility:       access.ParseVisibility(in.Get("PROJECT_VISIBILITY")),
		NamespaceID:      parseNamespaceID(in.Get("PROJECT_NAMESPACE_ID")),
		NamespacePath:    in.Get("PROJECT_NAMESPACE_PATH"),
		OrganizationPath: in.Get("PROJECT_ORGANIZATION_PATH"),
		Options:          ParseProjectOptions(in.Get("PROJECT_CONFIG_JSON")),
	}, nil
}

// parseNamespaceID treats "", "nil", non-numeric and non-positive values as
// "no namespace given".
func parseNamespaceID(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "nil" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

type Membership struct {
	// UserID is 0 when the user is referenced by Username instead.
	UserID      int64
	Username    string
	GroupPath   string
	AccessLevel access.Level
}

func ResolveMembership(in Inputs) (Membership, error) {
	userField := "USER_ID"
	if in.Get("USER_ID") == "" && in.Get("USER_USERNAME") != "" {
		userField = "USER_USERNAME"
	}
	if err := in.require(userField, "GROUP_PATH"); err != nil {
		return Membership{}, err
	}
	m := Membership{
		Username:    in.Get("USER_USERNAME"),
		GroupPath:   in.Get("GROUP_PATH"),
		AccessLevel: access.ParseAccessLevel(in.Get("ACCESS_LEVEL")),
	}
	if userField == "USER_ID" {
		m.Username = ""
		// An unparsable id resolves to no user at all.
		m.UserID, _ = strconv.ParseInt(strings.TrimSpace(in.Get("USER_ID")), 10, 64)
	}
	return m, nil
}

type GroupLookup struct {
	Path string
}

func ResolveGroupLookup(in Inputs) (GroupLookup, error) {
	if err := in.require("GROUP_PATH"); err != nil {
		return GroupLookup{}, err
	}
	return GroupLookup{Path: in.Get("GROUP_PATH")}, nil
}
