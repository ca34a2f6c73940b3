package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// ExecScanner wraps an external tool invoked on a checked-out working
// tree. The tool must print JSON in one of the supported formats.
// Findings on files outside the change set are dropped later during
// normalization, so scanners may analyze the whole tree.
type ExecScanner struct {
	Tool   string   // binary name, also used as the tool tag
	Args   []string // arguments; the working-tree dir is appended
	Dir    string   // checked-out tree to scan
	Format string   // "semgrep" or "bandit"
}

func (s *ExecScanner) Name() string { return s.Tool }

func (s *ExecScanner) Scan(ctx context.Context, _ *diffparse.ChangeSet) ([]finding.RawFinding, error) {
	cmd := exec.CommandContext(ctx, s.Tool, append(s.Args, s.Dir)...)
	out, err := cmd.Output()
	// Most scanners exit nonzero when they find issues; only a missing
	// binary or empty output is treated as a scanner failure.
	if len(out) == 0 {
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", s.Tool, err)
		}
		return nil, nil
	}

	switch s.Format {
	case "bandit":
		return s.parseBandit(out)
	default:
		return s.parseSemgrep(out)
	}
}

// relPath strips the scanned dir prefix so findings line up with diff paths.
func (s *ExecScanner) relPath(path string) string {
	if s.Dir == "" {
		return path
	}
	if rel, err := filepath.Rel(s.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

type semgrepOutput struct {
	Results []struct {
		CheckID string `json:"check_id"`
		Path    string `json:"path"`
		Start   struct {
			Line int `json:"line"`
		} `json:"start"`
		Extra struct {
			Message  string `json:"message"`
			Severity string `json:"severity"`
			Fix      string `json:"fix"`
		} `json:"extra"`
	} `json:"results"`
}

func (s *ExecScanner) parseSemgrep(out []byte) ([]finding.RawFinding, error) {
	var doc semgrepOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s output: %w", s.Tool, err)
	}

	findings := make([]finding.RawFinding, 0, len(doc.Results))
	for _, r := range doc.Results {
		findings = append(findings, finding.RawFinding{
			Tool:       s.Tool,
			RuleID:     r.CheckID,
			Severity:   r.Extra.Severity,
			File:       s.relPath(r.Path),
			Line:       r.Start.Line,
			Message:    r.Extra.Message,
			Suggestion: r.Extra.Fix,
		})
	}
	return findings, nil
}

type banditOutput struct {
	Results []struct {
		Filename   string `json:"filename"`
		TestID     string `json:"test_id"`
		LineNumber int    `json:"line_number"`
		IssueText  string `json:"issue_text"`
		Severity   string `json:"issue_severity"`
		Confidence string `json:"issue_confidence"`
	} `json:"results"`
}

func (s *ExecScanner) parseBandit(out []byte) ([]finding.RawFinding, error) {
	var doc banditOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s output: %w", s.Tool, err)
	}

	findings := make([]finding.RawFinding, 0, len(doc.Results))
	for _, r := range doc.Results {
		f := finding.RawFinding{
			Tool:     s.Tool,
			RuleID:   r.TestID,
			Severity: r.Severity,
			File:     s.relPath(r.Filename),
			Line:     r.LineNumber,
			Message:  r.IssueText,
		}
		if !strings.EqualFold(r.Confidence, "high") {
			f.Confidence = 0.5
			f.HasConfidence = true
		}
		findings = append(findings, f)
	}
	return findings, nil
}
