package policy

import "github.com/sprite-ai/crosscheck/internal/finding"

// Disposition is the policy outcome for a reviewed finding.
type Disposition string

const (
	DispositionAutoApply      Disposition = "AUTO_APPLY"
	DispositionRequestChanges Disposition = "REQUEST_CHANGES"
	DispositionCommentOnly    Disposition = "COMMENT_ONLY"
)

// Decide is the pure gate for a finding carrying a synthesized patch.
// AUTO_APPLY requires both a passed verification and confidence at or
// above the auto-commit threshold; an unverified patch is capped at
// REQUEST_CHANGES. Identical inputs always yield the identical
// disposition.
func Decide(m finding.MergedFinding, verified bool, cfg Config) Disposition {
	if verified && m.Confidence >= cfg.AutoCommitThreshold {
		return DispositionAutoApply
	}
	if m.Severity.Rank() >= finding.SeverityMedium.Rank() {
		return DispositionRequestChanges
	}
	return DispositionCommentOnly
}
