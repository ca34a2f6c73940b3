// Package engine orchestrates one review invocation: run the selected
// analyzers, normalize and reconcile their findings, synthesize and
// verify patches, and apply the policy gate.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/crosscheck/internal/analyzer"
	"github.com/sprite-ai/crosscheck/internal/diffparse"
	"github.com/sprite-ai/crosscheck/internal/finding"
	"github.com/sprite-ai/crosscheck/internal/normalize"
	"github.com/sprite-ai/crosscheck/internal/patch"
	"github.com/sprite-ai/crosscheck/internal/policy"
	"github.com/sprite-ai/crosscheck/internal/reconcile"
)

// Options tunes one engine instance.
type Options struct {
	BucketWidth int // reconciliation line-bucket half-width; 0 = default
}

// Engine runs reviews. It holds no per-invocation state, so one Engine
// is safe to invoke repeatedly in parallel on independent inputs.
type Engine struct {
	static analyzer.Analyzer
	model  analyzer.Analyzer
	cfg    policy.Config
	opts   Options
	log    zerolog.Logger
}

// contextRunner is satisfied by adapters that accept prior findings as
// review context (the model adapter in hybrid mode).
type contextRunner interface {
	RunWithContext(ctx context.Context, cs *diffparse.ChangeSet, prior []finding.Finding) (*analyzer.Result, error)
}

// New constructs an engine. The policy is validated here; an invalid
// policy is rejected before any analyzer can run.
func New(static, model analyzer.Analyzer, cfg policy.Config, opts Options, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{static: static, model: model, cfg: cfg, opts: opts, log: log}, nil
}

// Policy returns the engine's policy configuration.
func (e *Engine) Policy() policy.Config { return e.cfg }

// Analyze runs one review of the change set in the given mode.
// Structural failures (bad mode) abort; per-source failures degrade to
// diagnostics and the run continues with whatever results are
// available. Caller cancellation yields a Cancelled result.
func (e *Engine) Analyze(ctx context.Context, cs *diffparse.ChangeSet, mode Mode) (*Result, error) {
	if !validMode(mode) {
		return nil, &InvalidModeError{Value: string(mode)}
	}

	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Mode:   mode,
		Policy: e.cfg,
	}
	log := e.log.With().Str("run_id", res.RunID).Str("mode", string(mode)).Logger()
	log.Info().Int("files", len(cs.Files)).Msg("analysis_started")

	var merged []finding.MergedFinding
	switch mode {
	case ModeHybrid:
		merged = e.runHybrid(ctx, cs, res, log)
	default:
		merged = e.runSingle(ctx, cs, mode, res, log)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		// Abandon in-progress work; a cancelled run never gates patches,
		// so it can never yield an AUTO_APPLY disposition.
		res.Cancelled = true
		res.addDiagnostic("engine", "run cancelled by caller")
		res.Timing.TotalMs = time.Since(start).Milliseconds()
		log.Warn().Msg("analysis_cancelled")
		return res, nil
	}

	e.gatePatches(cs, merged, res, log)

	res.Timing.TotalMs = time.Since(start).Milliseconds()
	log.Info().
		Int("findings", len(res.Findings)).
		Int64("total_ms", res.Timing.TotalMs).
		Msg("analysis_complete")
	return res, nil
}

// runSingle runs one adapter and passes its findings through as
// singleton merges.
func (e *Engine) runSingle(ctx context.Context, cs *diffparse.ChangeSet, mode Mode, res *Result, log zerolog.Logger) []finding.MergedFinding {
	ad := e.static
	if mode == ModeModelOnly {
		ad = e.model
	}

	found, elapsed := e.runAdapter(ctx, ad, cs, res, log)
	if ad.Source() == finding.SourceStatic {
		res.Timing.StaticMs = elapsed
	} else {
		res.Timing.ModelMs = elapsed
	}
	return reconcile.Singletons(found)
}

// runHybrid runs both adapters as independent tasks. The model task
// consumes the static task's normalized findings through a channel so
// it can forward them as context; the channel closes empty when the
// static source fails, keeping the join bounded by the adapters' own
// timeouts.
func (e *Engine) runHybrid(ctx context.Context, cs *diffparse.ChangeSet, res *Result, log zerolog.Logger) []finding.MergedFinding {
	staticCh := make(chan []finding.Finding, 1)
	var staticFindings, modelFindings []finding.Finding

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		found := e.collect(gctx, e.static, cs, res, log)
		res.Timing.StaticMs = time.Since(start).Milliseconds()
		staticFindings = found
		staticCh <- found
		close(staticCh)
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		var prior []finding.Finding
		select {
		case prior = <-staticCh:
		case <-gctx.Done():
		}

		var raws []finding.RawFinding
		if cr, ok := e.model.(contextRunner); ok {
			raws = e.collectRaw(func() (*analyzer.Result, error) {
				return cr.RunWithContext(gctx, cs, prior)
			}, e.model, res, log)
		} else {
			raws = e.collectRaw(func() (*analyzer.Result, error) {
				return e.model.Run(gctx, cs)
			}, e.model, res, log)
		}

		found, warnings := normalize.Findings(raws, cs)
		res.addWarnings("normalize", warnings)
		res.Timing.ModelMs = time.Since(start).Milliseconds()
		modelFindings = found
		return nil
	})

	// Adapter failures surface as diagnostics, never as group errors.
	_ = g.Wait()

	all := append(append([]finding.Finding(nil), staticFindings...), modelFindings...)
	return reconcile.Merge(all, reconcile.Options{BucketWidth: e.opts.BucketWidth})
}

// runAdapter executes one adapter and normalizes its output.
func (e *Engine) runAdapter(ctx context.Context, ad analyzer.Analyzer, cs *diffparse.ChangeSet, res *Result, log zerolog.Logger) ([]finding.Finding, int64) {
	start := time.Now()
	found := e.collect(ctx, ad, cs, res, log)
	return found, time.Since(start).Milliseconds()
}

// collect runs an adapter and normalizes its findings, recording all
// warnings and degradations.
func (e *Engine) collect(ctx context.Context, ad analyzer.Analyzer, cs *diffparse.ChangeSet, res *Result, log zerolog.Logger) []finding.Finding {
	raws := e.collectRaw(func() (*analyzer.Result, error) {
		return ad.Run(ctx, cs)
	}, ad, res, log)
	found, warnings := normalize.Findings(raws, cs)
	res.addWarnings("normalize", warnings)
	return found
}

func (e *Engine) collectRaw(run func() (*analyzer.Result, error), ad analyzer.Analyzer, res *Result, log zerolog.Logger) []finding.RawFinding {
	out, err := run()
	if err != nil {
		// Degrade: the source is unavailable, the run continues with
		// the remaining sources.
		log.Warn().Str("analyzer", ad.Name()).Err(err).Msg("analyzer_failed")
		res.addDiagnostic(ad.Name(), "source unavailable: "+err.Error())
		return nil
	}
	res.addWarnings(ad.Name(), out.Warnings)
	log.Debug().Str("analyzer", ad.Name()).Int("raw_findings", len(out.Findings)).Msg("analyzer_complete")
	return out.Findings
}

// gatePatches synthesizes, verifies and gates a patch for each merged
// finding, filling res.Findings in reconciled order.
func (e *Engine) gatePatches(cs *diffparse.ChangeSet, merged []finding.MergedFinding, res *Result, log zerolog.Logger) {
	verifier := patch.NewVerifier(e.cfg)

	for _, m := range merged {
		fr := FindingResult{Finding: m}

		p, err := patch.Synthesize(m, cs)
		if err != nil {
			var synthErr *patch.SynthesisError
			if errors.As(err, &synthErr) && synthErr.Reason == "no-fix" {
				// No member supplied a fix: the finding stays comment-only.
				fr.PatchStatus = PatchNotSynthesized
				fr.PatchReason = synthErr.Reason
				fr.Disposition = policy.DispositionCommentOnly
			} else {
				fr.PatchStatus = PatchNotSynthesized
				fr.PatchReason = err.Error()
				fr.Disposition = policy.Decide(m, false, e.cfg)
				res.addDiagnostic("synthesize", m.ID+": "+err.Error())
			}
			res.Findings = append(res.Findings, fr)
			continue
		}

		fr.Patch = p
		verdict := verifier.Verify(p)
		if verdict.OK {
			fr.PatchStatus = PatchVerified
			fr.Disposition = policy.Decide(m, true, e.cfg)
		} else {
			// Demoted, not discarded.
			fr.PatchStatus = PatchManualReview
			fr.PatchReason = verdict.Reason
			fr.Disposition = policy.Decide(m, false, e.cfg)
			res.addDiagnostic("verify", m.ID+": "+verdict.Reason)
			log.Debug().Str("finding", m.ID).Str("reason", verdict.Reason).Msg("patch_demoted")
		}
		res.Findings = append(res.Findings, fr)
	}
}
