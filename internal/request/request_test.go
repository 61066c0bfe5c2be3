package request

import (
	"testing"

	"github.com/blackwell-systems/forge-provisioner/internal/access"
	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
)

func TestFromEnviron(t *testing.T) {
	in := FromEnviron([]string{"GROUP_NAME=Ops", "GROUP_DESCRIPTION=a=b", "BROKEN"})
	if in.Get("GROUP_NAME") != "Ops" {
		t.Errorf("GROUP_NAME = %q", in.Get("GROUP_NAME"))
	}
	if in.Get("GROUP_DESCRIPTION") != "a=b" {
		t.Errorf("values containing '=' must survive, got %q", in.Get("GROUP_DESCRIPTION"))
	}
	if _, ok := in["BROKEN"]; ok {
		t.Error("entries without '=' should be skipped")
	}
}

func TestMissingRequiredField(t *testing.T) {
	tests := []struct {
		name      string
		resolve   func(Inputs) error
		in        Inputs
		wantField string
		wantMsg   string
	}{
		{
			name:      "group with empty path",
			resolve:   func(in Inputs) error { _, err := ResolveGroup(in); return err },
			in:        Inputs{"GROUP_NAME": "Ops", "GROUP_PATH": ""},
			wantField: "GROUP_PATH",
			wantMsg:   "GROUP_NAME and GROUP_PATH are required",
		},
		{
			name:      "user without email",
			resolve:   func(in Inputs) error { _, err := ResolveUser(in); return err },
			in:        Inputs{"USER_USERNAME": "alice", "USER_PASSWORD": "x"},
			wantField: "USER_EMAIL",
			wantMsg:   "USER_USERNAME, USER_EMAIL and USER_PASSWORD are required",
		},
		{
			name:      "project without name",
			resolve:   func(in Inputs) error { _, err := ResolveProject(in); return err },
			in:        Inputs{"PROJECT_PATH": "demo"},
			wantField: "PROJECT_NAME",
			wantMsg:   "PROJECT_NAME is required",
		},
		{
			name:      "membership without user",
			resolve:   func(in Inputs) error { _, err := ResolveMembership(in); return err },
			in:        Inputs{"GROUP_PATH": "ops"},
			wantField: "USER_ID",
			wantMsg:   "USER_ID and GROUP_PATH are required",
		},
		{
			name:      "lookup without path",
			resolve:   func(in Inputs) error { _, err := ResolveGroupLookup(in); return err },
			in:        Inputs{},
			wantField: "GROUP_PATH",
			wantMsg:   "GROUP_PATH is required",
		},
		{
			name:      "organization without name",
			resolve:   func(in Inputs) error { _, err := ResolveOrganization(in); return err },
			in:        Inputs{"ORGANIZATION_PATH": "acme"},
			wantField: "ORGANIZATION_NAME",
			wantMsg:   "ORGANIZATION_NAME and ORGANIZATION_PATH are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resolve(tt.in)
			oe := outcome.Classify(err)
			if err == nil || oe.Kind != outcome.MissingRequiredField {
				t.Fatalf("error = %v, want MissingRequiredField", err)
			}
			if oe.Field != tt.wantField {
				t.Errorf("field = %q, want %q", oe.Field, tt.wantField)
			}
			if oe.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", oe.Message, tt.wantMsg)
			}
		})
	}
}

func TestResolveUserDefaults(t *testing.T) {
	u, err := ResolveUser(Inputs{
		"USER_USERNAME": "alice",
		"USER_EMAIL":    "alice@example.com",
		"USER_PASSWORD": "P@ss1",
	})
	if err != nil {
		t.Fatalf("ResolveUser: %v", err)
	}
	if u.Name != "alice" {
		t.Errorf("name should default to username, got %q", u.Name)
	}
	if u.Admin {
		t.Error("admin should default to false")
	}
	if !u.SkipConfirmation {
		t.Error("skip confirmation should default to true")
	}

	u, _ = ResolveUser(Inputs{
		"USER_USERNAME":          "bob",
		"USER_EMAIL":             "bob@example.com",
		"USER_PASSWORD":          "pw",
		"USER_IS_ADMIN":          "TRUE",
		"USER_SKIP_CONFIRMATION": "false",
	})
	if u.Admin {
		t.Error("only the exact string \"true\" grants admin")
	}
	if u.SkipConfirmation {
		t.Error("USER_SKIP_CONFIRMATION=false should disable skipping")
	}
}

func TestResolveGroup(t *testing.T) {
	g, err := ResolveGroup(Inputs{"GROUP_NAME": "Ops", "GROUP_PATH": "ops", "GROUP_VISIBILITY": "Internal"})
	if err != nil {
		t.Fatalf("ResolveGroup: %v", err)
	}
	if g.Visibility != access.Internal {
		t.Errorf("visibility = %v, want internal", g.Visibility)
	}

	g, _ = ResolveGroup(Inputs{"GROUP_NAME": "Ops", "GROUP_PATH": "ops", "GROUP_VISIBILITY": "world"})
	if g.Visibility != access.Private {
		t.Errorf("unknown visibility should be private, got %v", g.Visibility)
	}
}

func TestResolveProject(t *testing.T) {
	tests := []struct {
		name            string
		in              Inputs
		wantPath        string
		wantNamespaceID int64
	}{
		{name: "path from name", in: Inputs{"PROJECT_NAME": "demo"}, wantPath: "demo"},
		{name: "explicit path", in: Inputs{"PROJECT_NAME": "Demo App", "PROJECT_PATH": "demo-app"}, wantPath: "demo-app"},
		{name: "namespace id", in: Inputs{"PROJECT_NAME": "demo", "PROJECT_NAMESPACE_ID": "7"}, wantPath: "demo", wantNamespaceID: 7},
		{name: "nil namespace", in: Inputs{"PROJECT_NAME": "demo", "PROJECT_NAMESPACE_ID": "nil"}, wantPath: "demo"},
		{name: "zero namespace", in: Inputs{"PROJECT_NAME": "demo", "PROJECT_NAMESPACE_ID": "0"}, wantPath: "demo"},
		{name: "garbage namespace", in: Inputs{"PROJECT_NAME": "demo", "PROJECT_NAMESPACE_ID": "abc"}, wantPath: "demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ResolveProject(tt.in)
			if err != nil {
				t.Fatalf("ResolveProject: %v", err)
			}
			if p.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", p.Path, tt.wantPath)
			}
			if p.NamespaceID != tt.wantNamespaceID {
				t.Errorf("namespace id = %d, want %d", p.NamespaceID, tt.wantNamespaceID)
			}
			if p.Visibility != access.Private {
				t.Errorf("visibility = %v, want private", p.Visibility)
			}
		})
	}
}

func TestResolveMembership(t *testing.T) {
	m, err := ResolveMembership(Inputs{"USER_ID": "12", "GROUP_PATH": "ops"})
	if err != nil {
		t.Fatalf("ResolveMembership: %v", err)
	}
	if m.UserID != 12 || m.AccessLevel != access.Developer {
		t.Errorf("got %+v, want user 12 at developer", m)
	}

	m, err = ResolveMembership(Inputs{"USER_USERNAME": "alice", "GROUP_PATH": "ops", "ACCESS_LEVEL": "50"})
	if err != nil {
		t.Fatalf("ResolveMembership by username: %v", err)
	}
	if m.Username != "alice" || m.UserID != 0 || m.AccessLevel != access.Owner {
		t.Errorf("got %+v", m)
	}

	m, _ = ResolveMembership(Inputs{"USER_ID": "x1", "GROUP_PATH": "ops"})
	if m.UserID != 0 {
		t.Errorf("unparsable id should resolve to 0, got %d", m.UserID)
	}
}
