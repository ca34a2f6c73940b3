package patch

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/sprite-ai/crosscheck/internal/policy"
)

// VerifyResult records the outcome of verifying one patch. A failed
// check demotes the patch to manual review, it never discards it.
type VerifyResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// Verifier validates synthesized patches for a single review. It
// tracks how many distinct files have been patched so far, so a fresh
// Verifier is needed per engine invocation.
type Verifier struct {
	cfg   policy.Config
	files map[string]bool
}

// NewVerifier returns a verifier bound to an already-validated policy.
func NewVerifier(cfg policy.Config) *Verifier {
	return &Verifier{cfg: cfg, files: make(map[string]bool)}
}

// Verify runs the checks in order: syntax, patch size, denylist, file
// budget. The first failure is recorded as the reason.
func (v *Verifier) Verify(p *Patch) VerifyResult {
	if reason := checkSyntax(p); reason != "" {
		return VerifyResult{Reason: reason}
	}
	if p.LOC > v.cfg.MaxLOC {
		return VerifyResult{Reason: fmt.Sprintf("max-loc-exceeded: %d > %d", p.LOC, v.cfg.MaxLOC)}
	}
	if denied, pat := v.cfg.Denied(p.File); denied {
		return VerifyResult{Reason: fmt.Sprintf("denylisted-path: %s matches %s", p.File, pat)}
	}
	if !v.files[p.File] && len(v.files) >= v.cfg.MaxFilesPerPatch {
		return VerifyResult{Reason: fmt.Sprintf("max-files-exceeded: limit %d", v.cfg.MaxFilesPerPatch)}
	}

	v.files[p.File] = true
	return VerifyResult{OK: true}
}

// checkSyntax lexes the patched region and rejects it if the lexer
// emits error tokens. Files with no known lexer skip the check.
func checkSyntax(p *Patch) string {
	lexer := lexers.Match(p.File)
	if lexer == nil {
		return ""
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, strings.Join(p.After, "\n")+"\n")
	if err != nil {
		return "syntax-error: " + err.Error()
	}
	for _, tok := range it.Tokens() {
		if tok.Type == chroma.Error && strings.TrimSpace(tok.Value) != "" {
			return fmt.Sprintf("syntax-error: unparseable input near %q", strings.TrimSpace(tok.Value))
		}
	}
	return ""
}
