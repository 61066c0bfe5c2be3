// Package report serializes a terminal outcome to the one-line stdout
// protocol and the process exit status.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blackwell-systems/forge-provisioner/internal/outcome"
)

const (
	ExitOK      = 0
	ExitFailure = 1

	// maxStackLines bounds the diagnostic tail written after a panic.
	maxStackLines = 5
)

// Line renders o as the single protocol line, without a trailing newline.
func Line(o outcome.Outcome) string {
	switch {
	case o.Err != nil:
		return "ERROR:" + oneLine(o.Err.Message)
	case o.Lookup() && o.ID == 0:
		return "nil"
	case o.Lookup():
		return strconv.FormatInt(o.ID, 10)
	default:
		return "SUCCESS:" + strconv.FormatInt(o.ID, 10)
	}
}

// ExitCode is the process status for o.
func ExitCode(o outcome.Outcome) int {
	if o.OK() {
		return ExitOK
	}
	return ExitFailure
}

// Write prints the protocol line for o and returns the exit status.
func Write(w io.Writer, o outcome.Outcome) int {
	fmt.Fprintln(w, Line(o))
	return ExitCode(o)
}

// Panic reports a recovered panic. The first line still carries the ERROR:
// prefix; up to five lines of stack follow it.
func Panic(w io.Writer, recovered any, stack []byte) int {
	code := Write(w, outcome.Failure(outcome.Unexpected(fmt.Errorf("%v", recovered))))
	lines := strings.Split(strings.TrimSpace(string(stack)), "\n")
	if len(lines) > maxStackLines {
		lines = lines[:maxStackLines]
	}
	for _, l := range lines {
		if l != "" {
			fmt.Fprintln(w, l)
		}
	}
	return code
}

// oneLine keeps multi-line store messages from breaking the protocol.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
