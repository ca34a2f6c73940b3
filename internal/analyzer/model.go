package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// DefaultModelTimeout bounds one generative review call chain.
const DefaultModelTimeout = 3 * time.Minute

const systemPrompt = `You are a senior code reviewer. Analyze the supplied diff for bugs,
security vulnerabilities, performance problems and code quality issues.
Comment only on changed lines, using new-file line numbers. Respond
STRICTLY with a JSON array of findings and no conversational text:
[{"rule_id": "short-id", "severity": "low|medium|high",
  "category": "security|bug|style|performance|other",
  "file": "path", "line": 1, "message": "description",
  "suggestion": "replacement source line(s), or empty",
  "confidence": 0.0}]`

// Client is the transport to one generative backend.
type Client interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Model sends a change set to the generative reviewer and parses its
// structured reply. Malformed output degrades to zero findings plus a
// warning after one repair attempt; it never crashes the run.
type Model struct {
	Client  Client
	Timeout time.Duration
	Log     zerolog.Logger
}

// NewModel returns a model adapter over the given client.
func NewModel(client Client, log zerolog.Logger) *Model {
	return &Model{Client: client, Timeout: DefaultModelTimeout, Log: log}
}

func (m *Model) Name() string           { return "model" }
func (m *Model) Source() finding.Source { return finding.SourceModel }

// Run implements Analyzer without prior static context.
func (m *Model) Run(ctx context.Context, cs *diffparse.ChangeSet) (*Result, error) {
	return m.RunWithContext(ctx, cs, nil)
}

// RunWithContext reviews the change set, optionally forwarding prior
// static findings for the model to corroborate or dismiss.
func (m *Model) RunWithContext(ctx context.Context, cs *diffparse.ChangeSet, prior []finding.Finding) (*Result, error) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultModelTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := buildPrompt(cs, prior)

	start := time.Now()
	reply, err := m.Client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, timeoutErr(ctx, finding.SourceModel)
		}
		return nil, &Error{Source: finding.SourceModel, Reason: "unavailable", Err: err}
	}

	res := &Result{}
	raws, err := parseReply(reply)
	if err != nil {
		// One repair pass: ask the model to fix its own JSON.
		m.Log.Warn().Err(err).Msg("model_reply_malformed")
		repair := fmt.Sprintf("Your previous response was not valid JSON (%v). "+
			"Respond again with ONLY the corrected JSON array.\n\nPrevious response:\n%s", err, reply)
		reply2, err2 := m.Client.Complete(ctx, systemPrompt, repair)
		if err2 == nil {
			raws, err = parseReply(reply2)
		}
		if err != nil || err2 != nil {
			if ctx.Err() != nil {
				return nil, timeoutErr(ctx, finding.SourceModel)
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("model reply unusable after repair: %v", err))
			return res, nil
		}
	}

	m.Log.Debug().
		Int("findings", len(raws)).
		Dur("elapsed", time.Since(start)).
		Str("client", m.Client.Name()).
		Msg("llm_review_complete")

	res.Findings = raws
	return res, nil
}

func buildPrompt(cs *diffparse.ChangeSet, prior []finding.Finding) string {
	var b strings.Builder

	if len(prior) > 0 {
		b.WriteString("Static analysis findings (verify these; ignore false positives):\n")
		for _, f := range prior {
			fmt.Fprintf(&b, "- %s:%d [%s] %s\n", f.File, f.Line, f.RuleID, f.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("Diff under review:\n```diff\n")
	b.WriteString(diffparse.Format(cs))
	b.WriteString("```\n")

	return b.String()
}

// modelFinding is the JSON shape the reviewer is instructed to return.
type modelFinding struct {
	RuleID     string   `json:"rule_id"`
	Severity   string   `json:"severity"`
	Category   string   `json:"category"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Confidence *float64 `json:"confidence"`
}

func parseReply(content string) ([]finding.RawFinding, error) {
	content = stripFences(content)

	var raw []modelFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	findings := make([]finding.RawFinding, 0, len(raw))
	for _, r := range raw {
		f := finding.RawFinding{
			Source:     finding.SourceModel,
			Tool:       "model-review",
			RuleID:     r.RuleID,
			Severity:   r.Severity,
			Category:   r.Category,
			File:       r.File,
			Line:       r.Line,
			Message:    r.Message,
			Suggestion: r.Suggestion,
		}
		if r.Confidence != nil {
			f.Confidence = *r.Confidence
			f.HasConfidence = true
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	end := len(lines)
	if strings.TrimSpace(lines[end-1]) == "```" {
		end--
	}
	return strings.Join(lines[1:end], "\n")
}
