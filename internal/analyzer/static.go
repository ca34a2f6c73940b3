package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
)

// DefaultStaticTimeout bounds one full static adapter run.
const DefaultStaticTimeout = 2 * time.Minute

// Scanner is one deterministic tool run by the static adapter.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, cs *diffparse.ChangeSet) ([]finding.RawFinding, error)
}

// Static runs all configured scanners against a change set and
// concatenates their findings. One scanner failing degrades to a
// warning without aborting the others.
type Static struct {
	Scanners []Scanner
	Timeout  time.Duration
	Log      zerolog.Logger
}

// NewStatic returns a static adapter over the given scanners, or the
// built-in scanners when none are given.
func NewStatic(log zerolog.Logger, scanners ...Scanner) *Static {
	if len(scanners) == 0 {
		scanners = BuiltinScanners()
	}
	return &Static{Scanners: scanners, Timeout: DefaultStaticTimeout, Log: log}
}

func (s *Static) Name() string           { return "static" }
func (s *Static) Source() finding.Source { return finding.SourceStatic }

// Run implements Analyzer.
func (s *Static) Run(ctx context.Context, cs *diffparse.ChangeSet) (*Result, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultStaticTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := &Result{}
	for _, sc := range s.Scanners {
		if ctx.Err() != nil {
			return nil, timeoutErr(ctx, finding.SourceStatic)
		}

		start := time.Now()
		found, err := sc.Scan(ctx, cs)
		if err != nil {
			// Partial failure: record and move on to the next scanner.
			s.Log.Warn().Str("scanner", sc.Name()).Err(err).Msg("scanner_failed")
			res.Warnings = append(res.Warnings, fmt.Sprintf("scanner %s failed: %v", sc.Name(), err))
			continue
		}
		s.Log.Debug().
			Str("scanner", sc.Name()).
			Int("findings", len(found)).
			Dur("elapsed", time.Since(start)).
			Msg("scanner_complete")

		for i := range found {
			found[i].Source = finding.SourceStatic
		}
		res.Findings = append(res.Findings, found...)
	}

	if ctx.Err() != nil {
		return nil, timeoutErr(ctx, finding.SourceStatic)
	}
	return res, nil
}
