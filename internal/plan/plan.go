// Package plan provides batch provisioning manifests.
//
// A plan lists organizations, users, groups, projects and memberships. Each
// entry converts into the same named inputs a single invocation reads from
// its environment, so defaults and required fields behave identically.
//
// Supports both YAML (.yaml, .yml) and JSON (.json) plan files.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/forge-provisioner/internal/model"
	"github.com/blackwell-systems/forge-provisioner/internal/request"
)

// Plan represents the plan file structure
type Plan struct {
	Organizations []Organization `yaml:"organizations,omitempty" json:"organizations,omitempty"`
	Users         []User         `yaml:"users,omitempty" json:"users,omitempty"`
	Groups        []Group        `yaml:"groups,omitempty" json:"groups,omitempty"`
	Projects      []Project      `yaml:"projects,omitempty" json:"projects,omitempty"`
	Memberships   []Membership   `yaml:"memberships,omitempty" json:"memberships,omitempty"`
}

type Organization struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// User is a user entry. A password written exactly as "${NAME}" is read
// from the environment variable NAME, so plans need not carry secrets. Any
// other value is used verbatim.
type User struct {
	Username         string `yaml:"username" json:"username"`
	Email            string `yaml:"email" json:"email"`
	Password         string `yaml:"password" json:"password"`
	Name             string `yaml:"name,omitempty" json:"name,omitempty"`
	Admin            bool   `yaml:"admin,omitempty" json:"admin,omitempty"`
	SkipConfirmation *bool  `yaml:"skip_confirmation,omitempty" json:"skip_confirmation,omitempty"`
	Organization     string `yaml:"organization,omitempty" json:"organization,omitempty"`
}

type Group struct {
	Name         string `yaml:"name" json:"name"`
	Path         string `yaml:"path" json:"path"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Visibility   string `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Organization string `yaml:"organization,omitempty" json:"organization,omitempty"`
}

type Project struct {
	Name         string         `yaml:"name" json:"name"`
	Path         string         `yaml:"path,omitempty" json:"path,omitempty"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Visibility   string         `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Namespace    string         `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	NamespaceID  int64          `yaml:"namespace_id,omitempty" json:"namespace_id,omitempty"`
	Organization string         `yaml:"organization,omitempty" json:"organization,omitempty"`
	Options      map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// Membership references its user by username, or by id when User is empty.
type Membership struct {
	User        string `yaml:"user,omitempty" json:"user,omitempty"`
	UserID      int64  `yaml:"user_id,omitempty" json:"user_id,omitempty"`
	Group       string `yaml:"group" json:"group"`
	AccessLevel string `yaml:"access_level,omitempty" json:"access_level,omitempty"`
}

// Entry is one provisioning step of a plan.
type Entry struct {
	Kind   model.Kind
	Key    string
	Inputs request.Inputs
}

// Load loads and parses a plan file (supports .yaml, .yml, and .json)
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan

	// Detect format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse plan YAML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse plan (unknown extension %s, tried YAML): %w", ext, err)
		}
	}

	return &p, nil
}

// Save saves a plan to file (format determined by file extension)
func Save(p *Plan, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err = json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal plan JSON: %w", err)
		}
	default:
		data, err = yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal plan YAML: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}

	return nil
}

// Entries returns the plan's steps in dependency order: organizations, users,
// groups, projects, memberships.
func (p *Plan) Entries() ([]Entry, error) {
	var entries []Entry
	for _, o := range p.Organizations {
		entries = append(entries, Entry{Kind: model.KindOrganization, Key: o.Path, Inputs: o.inputs()})
	}
	for _, u := range p.Users {
		entries = append(entries, Entry{Kind: model.KindUser, Key: u.Username, Inputs: u.inputs()})
	}
	for _, g := range p.Groups {
		entries = append(entries, Entry{Kind: model.KindGroup, Key: g.Path, Inputs: g.inputs()})
	}
	for _, pr := range p.Projects {
		in, err := pr.inputs()
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", pr.key(), err)
		}
		entries = append(entries, Entry{Kind: model.KindProject, Key: pr.key(), Inputs: in})
	}
	for _, m := range p.Memberships {
		entries = append(entries, Entry{Kind: model.KindMembership, Key: m.key(), Inputs: m.inputs()})
	}
	return entries, nil
}

func (o Organization) inputs() request.Inputs {
	return request.Inputs{"ORGANIZATION_NAME": o.Name, "ORGANIZATION_PATH": o.Path}
}

func (u User) inputs() request.Inputs {
	in := request.Inputs{
		"USER_USERNAME":          u.Username,
		"USER_EMAIL":             u.Email,
		"USER_PASSWORD":          secret(u.Password),
		"USER_NAME":              u.Name,
		"USER_IS_ADMIN":          strconv.FormatBool(u.Admin),
		"USER_ORGANIZATION_PATH": u.Organization,
	}
	if u.SkipConfirmation != nil {
		in["USER_SKIP_CONFIRMATION"] = strconv.FormatBool(*u.SkipConfirmation)
	}
	return in
}

var envReference = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

func secret(v string) string {
	if m := envReference.FindStringSubmatch(v); m != nil {
		return os.Getenv(m[1])
	}
	return v
}

func (g Group) inputs() request.Inputs {
	return request.Inputs{
		"GROUP_NAME":              g.Name,
		"GROUP_PATH":              g.Path,
		"GROUP_DESCRIPTION":       g.Description,
		"GROUP_VISIBILITY":        g.Visibility,
		"GROUP_ORGANIZATION_PATH": g.Organization,
	}
}

func (p Project) path() string {
	if p.Path == "" {
		return p.Name
	}
	return p.Path
}

// key is the project's full path when its namespace is named by path, and
// its bare path otherwise.
func (p Project) key() string {
	return model.ProjectFullPath(p.Namespace, p.path())
}

func (p Project) inputs() (request.Inputs, error) {
	in := request.Inputs{
		"PROJECT_NAME":              p.Name,
		"PROJECT_PATH":              p.Path,
		"PROJECT_DESCRIPTION":       p.Description,
		"PROJECT_VISIBILITY":        p.Visibility,
		"PROJECT_NAMESPACE_PATH":    p.Namespace,
		"PROJECT_ORGANIZATION_PATH": p.Organization,
	}
	if p.NamespaceID > 0 {
		in["PROJECT_NAMESPACE_ID"] = strconv.FormatInt(p.NamespaceID, 10)
	}
	if len(p.Options) > 0 {
		doc, err := json.Marshal(p.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		in["PROJECT_CONFIG_JSON"] = string(doc)
	}
	return in, nil
}

func (m Membership) key() string {
	user := m.User
	if user == "" {
		user = "#" + strconv.FormatInt(m.UserID, 10)
	}
	return user + "@" + m.Group
}

func (m Membership) inputs() request.Inputs {
	in := request.Inputs{
		"USER_USERNAME": m.User,
		"GROUP_PATH":    m.Group,
		"ACCESS_LEVEL":  m.AccessLevel,
	}
	if m.User == "" && m.UserID != 0 {
		in["USER_ID"] = strconv.FormatInt(m.UserID, 10)
	}
	return in
}
