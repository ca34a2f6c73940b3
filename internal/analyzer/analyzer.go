// Package analyzer defines the capability contract wrapping both the
// deterministic scanners and the generative reviewer, plus the two
// adapter implementations.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// Error reports an adapter-level failure: timeout, crash or unusable
// output. The engine degrades the affected source rather than aborting
// the run.
type Error struct {
	Source finding.Source
	Reason string // e.g. "timeout", "unavailable"
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s analyzer: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s analyzer: %s", e.Source, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is the raw output of one adapter run. Warnings carry partial
// failures (a scanner crash, a malformed model reply) that did not
// abort the run.
type Result struct {
	Findings []finding.RawFinding
	Warnings []string
}

// Analyzer is the sole contract with wrapped tools and models. Any
// backend can be substituted by implementing Run.
type Analyzer interface {
	Name() string
	Source() finding.Source
	Run(ctx context.Context, cs *diffparse.ChangeSet) (*Result, error)
}

// timeoutErr maps a context deadline to the adapter timeout error.
func timeoutErr(ctx context.Context, src finding.Source) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Source: src, Reason: "timeout", Err: ctx.Err()}
	}
	return ctx.Err()
}
