// Package model defines the persisted entities and their natural keys.
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind names an entity type.
type Kind string

const (
	KindOrganization Kind = "organization"
	KindUser         Kind = "user"
	KindNamespace    Kind = "namespace"
	KindGroup        Kind = "group"
	KindProject      Kind = "project"
	KindMembership   Kind = "membership"
)

// Entity is anything with a numeric store id.
type Entity interface {
	EntityID() int64
}

// NamespaceType distinguishes personal namespaces from group namespaces.
type NamespaceType string

const (
	NamespaceUser  NamespaceType = "User"
	NamespaceGroup NamespaceType = "Group"
)

type Organization struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null" validate:"required,max=255"`
	Path      string `gorm:"not null;uniqueIndex:idx_organizations_path" validate:"required,max=255,path"`
	OwnerID   *int64
	CreatedAt time.Time
}

func (o *Organization) EntityID() int64 { return o.ID }

type User struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Username          string `gorm:"not null;uniqueIndex:idx_users_username" validate:"required,max=255,path"`
	Email             string `gorm:"not null;uniqueIndex:idx_users_email" validate:"required,email"`
	Name              string `gorm:"not null" validate:"required,max=255"`
	EncryptedPassword string `gorm:"not null" validate:"required"`
	Admin             bool   `gorm:"not null;default:false"`
	ConfirmedAt       *time.Time
	OrganizationID    int64 `validate:"required"`
	CreatedAt         time.Time
}

func (u *User) EntityID() int64 { return u.ID }

// Namespace scopes the paths of projects. Every user owns exactly one
// personal namespace; every group has exactly one group namespace.
type Namespace struct {
	ID             int64         `gorm:"primaryKey;autoIncrement"`
	Name           string        `gorm:"not null" validate:"required,max=255"`
	Path           string        `gorm:"not null;uniqueIndex:idx_namespaces_path" validate:"required,max=255,path"`
	Type           NamespaceType `gorm:"not null" validate:"oneof=User Group"`
	OwnerID        *int64        `gorm:"index"`
	GroupID        *int64        `gorm:"index"`
	OrganizationID int64         `validate:"required"`
	CreatedAt      time.Time
}

func (n *Namespace) EntityID() int64 { return n.ID }

// FullPath is the prefix of every project path inside n.
func (n *Namespace) FullPath() string { return n.Path }

type Group struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Name            string `gorm:"not null" validate:"required,max=255"`
	Path            string `gorm:"not null;uniqueIndex:idx_groups_path" validate:"required,max=255,path"`
	Description     string `validate:"max=500"`
	VisibilityLevel int    `gorm:"not null;default:0" validate:"oneof=0 10 20"`
	OrganizationID  int64  `validate:"required"`
	CreatedAt       time.Time
}

func (g *Group) EntityID() int64 { return g.ID }

type Project struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	Name            string `gorm:"not null" validate:"required,max=255"`
	Path            string `gorm:"not null" validate:"required,max=255,path"`
	FullPath        string `gorm:"not null;uniqueIndex:idx_projects_full_path" validate:"required"`
	Description     string `validate:"max=2000"`
	VisibilityLevel int    `gorm:"not null;default:0" validate:"oneof=0 10 20"`
	DefaultBranch   string `gorm:"not null" validate:"required,max=255"`

	IssuesEnabled                          bool
	MergeRequestsEnabled                   bool
	WikiEnabled                            bool
	SnippetsEnabled                        bool
	ContainerRegistryEnabled               bool
	LFSEnabled                             bool `gorm:"column:lfs_enabled"`
	SharedRunnersEnabled                   bool
	OnlyAllowMergeIfPipelineSucceeds       bool
	OnlyAllowMergeIfAllDiscussionsResolved bool `gorm:"column:only_allow_merge_if_all_discussions_are_resolved"`
	AllowMergeOnSkippedPipeline            bool
	RemoveSourceBranchAfterMerge           bool
	PrintingMergeRequestLinkEnabled        bool
	CIConfigPath                           string `gorm:"column:ci_config_path"`

	OrganizationID int64 `validate:"required"`
	NamespaceID    int64 `gorm:"index" validate:"required"`
	CreatorID      int64 `validate:"required"`
	CreatedAt      time.Time
}

func (p *Project) EntityID() int64 { return p.ID }

var pathPattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]*$`)

// ValidPath reports whether s can be used as a single path segment: letters,
// digits, '_', '-' and '.', not starting with '-' or '.', and not ending in
// '.', '.git' or '.atom'.
func ValidPath(s string) bool {
	return pathPattern.MatchString(s) && !strings.HasSuffix(s, ".") &&
		!strings.HasSuffix(s, ".git") && !strings.HasSuffix(s, ".atom")
}

// ProjectFullPath joins a namespace full path and a project path.
func ProjectFullPath(namespacePath, projectPath string) string {
	if namespacePath == "" {
		return projectPath
	}
	return namespacePath + "/" + projectPath
}

type Membership struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	UserID      int64 `gorm:"not null;uniqueIndex:idx_members_user_group,priority:1" validate:"required"`
	GroupID     int64 `gorm:"not null;uniqueIndex:idx_members_user_group,priority:2" validate:"required"`
	AccessLevel int   `gorm:"not null" validate:"oneof=5 10 20 30 40 50"`
	CreatedAt   time.Time
}

func (m *Membership) EntityID() int64 { return m.ID }

// TableName keeps the table short enough to read in constraint messages.
func (Membership) TableName() string { return "members" }

// MembershipKey encodes the (user, group) natural key of a membership.
func MembershipKey(userID, groupID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(groupID, 10)
}

// ParseMembershipKey is the inverse of MembershipKey.
func ParseMembershipKey(key string) (userID, groupID int64, err error) {
	u, g, ok := strings.Cut(key, ":")
	if !ok {
		return 0, 0, fmt.Errorf("membership key %q: want <user_id>:<group_id>", key)
	}
	if userID, err = strconv.ParseInt(u, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("membership key %q: %w", key, err)
	}
	if groupID, err = strconv.ParseInt(g, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("membership key %q: %w", key, err)
	}
	return userID, groupID, nil
}
