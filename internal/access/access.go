// Package access maps human-readable visibility and membership access-level
// names onto the numeric encoding stored with each entity.
package access

import (
	"strconv"
	"strings"
)

// Visibility is the ordered numeric encoding of how widely an entity is
// visible. Higher is more permissive.
type Visibility int

const (
	Private  Visibility = 0
	Internal Visibility = 10
	Public   Visibility = 20
)

// ParseVisibility maps private/internal/public (case-insensitive) to its
// level. Anything else, including the empty string, maps to Private so that
// unknown input never widens visibility.
func ParseVisibility(s string) Visibility {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "internal":
		return Internal
	case "public":
		return Public
	default:
		return Private
	}
}

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Internal:
		return "internal"
	case Public:
		return "public"
	default:
		return "unknown(" + strconv.Itoa(int(v)) + ")"
	}
}

// Level is a membership's permission tier within a group.
type Level int

const (
	NoAccess   Level = 0
	Minimal    Level = 5
	Guest      Level = 10
	Reporter   Level = 20
	Developer  Level = 30
	Maintainer Level = 40
	Owner      Level = 50
)

var levelNames = map[string]Level{
	"minimal":    Minimal,
	"guest":      Guest,
	"reporter":   Reporter,
	"developer":  Developer,
	"maintainer": Maintainer,
	"owner":      Owner,
}

// ParseAccessLevel returns Developer for empty input. A leading integer is
// passed through unchanged, even when it is not on the scale, and trailing
// text after it is ignored ("30abc" is 30); the store decides whether to
// accept the level. Tier names are accepted as a convenience. Anything else
// yields NoAccess.
func ParseAccessLevel(s string) Level {
	s = strings.TrimSpace(s)
	if s == "" {
		return Developer
	}
	if n, ok := leadingInt(s); ok {
		return Level(n)
	}
	if l, ok := levelNames[strings.ToLower(s)]; ok {
		return l
	}
	return NoAccess
}

// leadingInt parses an optionally signed run of digits at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// Known reports whether l is one of the tiers the store accepts.
func (l Level) Known() bool {
	switch l {
	case Minimal, Guest, Reporter, Developer, Maintainer, Owner:
		return true
	}
	return false
}

func (l Level) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return strconv.Itoa(int(l))
}
