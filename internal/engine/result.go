package engine

import (
	"sync"

	"github.com/sprite-ai/crosscheck/internal/finding"
	"github.com/sprite-ai/crosscheck/internal/patch"
	"github.com/sprite-ai/crosscheck/internal/policy"
)

// Patch statuses for a finding in the result.
const (
	PatchVerified       = "verified"
	PatchManualReview   = "manual-review-required"
	PatchNotSynthesized = "not-synthesized"
)

// FindingResult pairs a merged finding with its patch outcome and
// policy disposition.
type FindingResult struct {
	Finding     finding.MergedFinding `json:"finding"`
	Patch       *patch.Patch          `json:"patch,omitempty"`
	PatchStatus string                `json:"patch_status"`
	PatchReason string                `json:"patch_reason,omitempty"`
	Disposition policy.Disposition    `json:"disposition"`
}

// Diagnostic records a downgrade or partial failure. Nothing is
// silently dropped: every degraded source, dropped finding and demoted
// patch appears here.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Timing is the latency breakdown of one run in milliseconds.
type Timing struct {
	StaticMs int64 `json:"static_ms"`
	ModelMs  int64 `json:"model_ms"`
	TotalMs  int64 `json:"total_ms"`
}

// Result is the outcome of one engine invocation.
type Result struct {
	RunID       string          `json:"run_id"`
	Mode        Mode            `json:"mode"`
	Findings    []FindingResult `json:"findings"`
	Cancelled   bool            `json:"cancelled,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	Timing      Timing          `json:"timing"`
	Policy      policy.Config   `json:"policy"`

	mu sync.Mutex
}

func (r *Result) addDiagnostic(stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: stage, Message: message})
}

func (r *Result) addWarnings(stage string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range warnings {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: stage, Message: w})
	}
}

// Summary counts findings by severity.
type Summary struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summarize computes severity counts over the result's findings.
func (r *Result) Summarize() Summary {
	var s Summary
	for _, fr := range r.Findings {
		switch fr.Finding.Severity {
		case finding.SeverityLow:
			s.Low++
		case finding.SeverityMedium:
			s.Medium++
		case finding.SeverityHigh:
			s.High++
		}
	}
	return s
}
