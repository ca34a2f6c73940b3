package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

const riskyDiff = `diff --git a/server/handler.py b/server/handler.py
index 1111111..2222222 100644
--- a/server/handler.py
+++ b/server/handler.py
@@ -1,3 +1,9 @@
 import os

+API_KEY = "sk-1234567890abcdef"
+cursor.execute("SELECT * FROM users WHERE name = '" + name + "'")
+# TODO: remove before release
+try:
+    pass
+except:
     pass
`

func parseRisky(t *testing.T) *diffparse.ChangeSet {
	t.Helper()
	cs, err := diffparse.Parse(riskyDiff)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func findRule(findings []finding.RawFinding, rule string) *finding.RawFinding {
	for i := range findings {
		if findings[i].RuleID == rule {
			return &findings[i]
		}
	}
	return nil
}

func TestSecurityScanner(t *testing.T) {
	cs := parseRisky(t)
	found, err := (&SecurityScanner{}).Scan(context.Background(), cs)
	if err != nil {
		t.Fatal(err)
	}

	if f := findRule(found, "hardcoded-secret"); f == nil {
		t.Error("missed hardcoded secret")
	} else {
		if f.Severity != "high" {
			t.Errorf("hardcoded-secret severity = %q", f.Severity)
		}
		if f.Line != 3 {
			t.Errorf("hardcoded-secret line = %d, want 3", f.Line)
		}
	}
	if f := findRule(found, "sql-exec"); f == nil {
		t.Error("missed sql execution")
	} else if f.Line != 4 {
		t.Errorf("sql-exec line = %d, want 4", f.Line)
	}

	for _, f := range found {
		if f.File != "server/handler.py" {
			t.Errorf("unexpected file %q", f.File)
		}
		if f.Category != "security" {
			t.Errorf("rule %s: category %q", f.RuleID, f.Category)
		}
	}
}

func TestSecurityScannerSkipsComments(t *testing.T) {
	const diff = `diff --git a/a.py b/a.py
index 1111111..2222222 100644
--- a/a.py
+++ b/a.py
@@ -1,2 +1,3 @@
 import os
+# the password is checked elsewhere
 pass
`
	cs, err := diffparse.Parse(diff)
	if err != nil {
		t.Fatal(err)
	}
	found, err := (&SecurityScanner{}).Scan(context.Background(), cs)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("comment line flagged: %+v", found)
	}
}

func TestAntiPatternScanner(t *testing.T) {
	cs := parseRisky(t)
	found, err := (&AntiPatternScanner{}).Scan(context.Background(), cs)
	if err != nil {
		t.Fatal(err)
	}

	if f := findRule(found, "broad-exception"); f == nil {
		t.Error("missed bare except")
	} else if f.Line != 8 {
		t.Errorf("broad-exception line = %d, want 8", f.Line)
	}
	if f := findRule(found, "leftover-todo"); f == nil {
		t.Error("missed TODO marker")
	} else if f.Severity != "low" {
		t.Errorf("leftover-todo severity = %q", f.Severity)
	}
}

type stubScanner struct {
	name string
	out  []finding.RawFinding
	err  error
}

func (s *stubScanner) Name() string { return s.name }
func (s *stubScanner) Scan(context.Context, *diffparse.ChangeSet) ([]finding.RawFinding, error) {
	return s.out, s.err
}

func TestStaticScannerFailureDegrades(t *testing.T) {
	ok := &stubScanner{name: "ok", out: []finding.RawFinding{{
		Tool: "ok", File: "a.py", Line: 1, Message: "m",
	}}}
	broken := &stubScanner{name: "broken", err: errors.New("tool crashed")}

	s := NewStatic(zerolog.Nop(), broken, ok)
	res, err := s.Run(context.Background(), &diffparse.ChangeSet{})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Findings) != 1 {
		t.Errorf("surviving scanner output lost: %d findings", len(res.Findings))
	}
	if res.Findings[0].Source != finding.SourceStatic {
		t.Errorf("source not stamped: %q", res.Findings[0].Source)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "broken") {
		t.Errorf("expected failure warning, got %v", res.Warnings)
	}
}

type stubClient struct {
	replies []string
	calls   int
	prompts []string
	err     error
}

func (c *stubClient) Name() string { return "stub" }
func (c *stubClient) Complete(_ context.Context, _, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	reply := c.replies[c.calls]
	if c.calls < len(c.replies)-1 {
		c.calls++
	}
	return reply, nil
}

const modelReply = `[{"rule_id": "sql-injection", "severity": "high",
"category": "security", "file": "server/handler.py", "line": 4,
"message": "query built from user input",
"suggestion": "use a parameterized query", "confidence": 0.9}]`

func TestModelRun(t *testing.T) {
	client := &stubClient{replies: []string{modelReply}}
	m := NewModel(client, zerolog.Nop())

	res, err := m.Run(context.Background(), parseRisky(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(res.Findings))
	}

	f := res.Findings[0]
	if f.Source != finding.SourceModel {
		t.Errorf("source = %q", f.Source)
	}
	if f.RuleID != "sql-injection" || f.Line != 4 {
		t.Errorf("unexpected finding: %+v", f)
	}
	if !f.HasConfidence || f.Confidence != 0.9 {
		t.Errorf("confidence not carried: %+v", f)
	}

	// The prompt embeds the diff inside a fenced block.
	if !strings.Contains(client.prompts[0], "```diff") {
		t.Error("prompt missing fenced diff")
	}
	if !strings.Contains(client.prompts[0], "server/handler.py") {
		t.Error("prompt missing changed file")
	}
}

func TestModelFencedReply(t *testing.T) {
	client := &stubClient{replies: []string{"```json\n" + modelReply + "\n```"}}
	m := NewModel(client, zerolog.Nop())

	res, err := m.Run(context.Background(), parseRisky(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Errorf("fenced reply not parsed: %d findings", len(res.Findings))
	}
}

func TestModelRepairPass(t *testing.T) {
	client := &stubClient{replies: []string{"Sure! Here are the findings: ...", modelReply}}
	m := NewModel(client, zerolog.Nop())

	res, err := m.Run(context.Background(), parseRisky(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("repair pass failed: %d findings, warnings %v", len(res.Findings), res.Warnings)
	}
	if len(client.prompts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(client.prompts))
	}
	if !strings.Contains(client.prompts[1], "not valid JSON") {
		t.Errorf("repair prompt missing explanation: %q", client.prompts[1])
	}
}

func TestModelUnusableReplyDegrades(t *testing.T) {
	client := &stubClient{replies: []string{"still not json"}}
	m := NewModel(client, zerolog.Nop())

	res, err := m.Run(context.Background(), parseRisky(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 0 {
		t.Errorf("expected no findings, got %d", len(res.Findings))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "unusable") {
		t.Errorf("expected unusable warning, got %v", res.Warnings)
	}
}

func TestModelTransportError(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	m := NewModel(client, zerolog.Nop())

	_, err := m.Run(context.Background(), parseRisky(t))
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected adapter Error, got %v", err)
	}
	if aerr.Source != finding.SourceModel || aerr.Reason != "unavailable" {
		t.Errorf("unexpected error: %+v", aerr)
	}
}

func TestModelContextInPrompt(t *testing.T) {
	client := &stubClient{replies: []string{"[]"}}
	m := NewModel(client, zerolog.Nop())

	prior := []finding.Finding{{
		File: "server/handler.py", Line: 4, RuleID: "sql-exec",
		Message: "sql built from input",
	}}
	if _, err := m.RunWithContext(context.Background(), parseRisky(t), prior); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.prompts[0], "Static analysis findings") {
		t.Error("prompt missing static context section")
	}
	if !strings.Contains(client.prompts[0], "sql-exec") {
		t.Error("prompt missing prior finding")
	}
}

func TestStaticTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -time.Nanosecond)
	defer cancel()

	s := NewStatic(zerolog.Nop())
	_, err := s.Run(ctx, parseRisky(t))

	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected adapter Error, got %v", err)
	}
	if aerr.Source != finding.SourceStatic {
		t.Errorf("source = %q, want static", aerr.Source)
	}
	if aerr.Reason != "timeout" {
		t.Errorf("reason = %q, want timeout", aerr.Reason)
	}
}

// hangingClient never replies before the deadline.
type hangingClient struct{}

func (hangingClient) Name() string { return "hanging" }
func (hangingClient) Complete(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestModelTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -time.Nanosecond)
	defer cancel()

	m := NewModel(hangingClient{}, zerolog.Nop())
	_, err := m.Run(ctx, parseRisky(t))

	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected adapter Error, got %v", err)
	}
	if aerr.Source != finding.SourceModel {
		t.Errorf("source = %q, want model", aerr.Source)
	}
	if aerr.Reason != "timeout" {
		t.Errorf("reason = %q, want timeout", aerr.Reason)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[]", "[]"},
		{"```json\n[]\n```", "[]"},
		{"```\n[]\n```", "[]"},
		{"  ```json\n[1]\n```  ", "[1]"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
