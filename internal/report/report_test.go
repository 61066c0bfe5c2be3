package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
)

func TestWrite(t *testing.T) {
	tests := []struct {
		name     string
		outcome  outcome.Outcome
		wantLine string
		wantCode int
	}{
		{
			name:     "created",
			outcome:  outcome.Success(42, outcome.Created),
			wantLine: "SUCCESS:42\n",
			wantCode: 0,
		},
		{
			name:     "already exists is still success",
			outcome:  outcome.Success(7, outcome.AlreadyExists),
			wantLine: "SUCCESS:7\n",
			wantCode: 0,
		},
		{
			name:     "reconciled conflict is success",
			outcome:  outcome.Success(8, outcome.ConflictReconciled),
			wantLine: "SUCCESS:8\n",
			wantCode: 0,
		},
		{
			name:     "missing field",
			outcome:  outcome.Failure(outcome.Missing("GROUP_PATH", "GROUP_NAME", "GROUP_PATH")),
			wantLine: "ERROR:GROUP_NAME and GROUP_PATH are required\n",
			wantCode: 1,
		},
		{
			name:     "multi-line message is flattened",
			outcome:  outcome.Failure(outcome.Invalid([]string{"Name can't be blank\nreally"}, nil)),
			wantLine: "ERROR:Name can't be blank really\n",
			wantCode: 1,
		},
		{
			name:     "lookup found",
			outcome:  outcome.Found(12),
			wantLine: "12\n",
			wantCode: 0,
		},
		{
			name:     "lookup not found",
			outcome:  outcome.NotFound(),
			wantLine: "nil\n",
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := Write(&buf, tt.outcome)
			if buf.String() != tt.wantLine {
				t.Errorf("Write() wrote %q, want %q", buf.String(), tt.wantLine)
			}
			if code != tt.wantCode {
				t.Errorf("Write() code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestLookupErrorIsNotNil(t *testing.T) {
	o := outcome.Failure(outcome.Missing("GROUP_PATH", "GROUP_PATH"))
	if got := Line(o); !strings.HasPrefix(got, "ERROR:") {
		t.Errorf("failed lookup should use ERROR prefix, got %q", got)
	}
}

func TestPanic(t *testing.T) {
	var buf bytes.Buffer
	stack := []byte("goroutine 1 [running]:\na\nb\nc\nd\ne\nf\ng\n")

	code := Panic(&buf, errors.New("boom"), stack)
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "ERROR:unexpected failure: boom" {
		t.Errorf("first line = %q", lines[0])
	}
	if len(lines) != 1+maxStackLines {
		t.Errorf("got %d lines, want %d", len(lines), 1+maxStackLines)
	}
}
