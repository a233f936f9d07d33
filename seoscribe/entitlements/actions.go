package entitlements

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// validates, gates, then generates an article. a successful generation is
// counted locally right away; an embedded usage snapshot is merged in.
func (s *State) Generate(ctx context.Context, in GenerateInput) (*profiles.GenerateResult, error) {
	req, err := ValidateGenerate(in)
	if err != nil {
		return nil, err
	}

	s.ensureLoaded(ctx)

	snap := s.Snapshot()
	if d := Explain(snap, usage.KindGeneration, ""); !d.Allowed {
		return nil, QuotaError(snap, usage.KindGeneration, "", d)
	}

	token := s.Credentials().AccessToken

	result, err := s.remote.Generate(ctx, token, req)
	if err != nil {
		return nil, s.actionFailed(ctx, token, usage.KindGeneration, "", err)
	}

	s.mu.Lock()

	principal := s.principalLocked()
	if principal == usage.Visitor {
		s.store.MarkDemoUsed(ctx)
		s.demo = s.store.Demo(ctx)
	}

	counter := s.store.Increment(ctx, principal, usage.KindGeneration, "")

	if result.Usage != nil {
		counter = Merge(counter, result.Usage, s.store.Period())
		s.store.Adopt(ctx, principal, counter)
	}

	s.counter = counter
	next := s.snapshotLocked()
	s.mu.Unlock()

	logger.Info("article generated",
		"plan", next.Plan,
		"generations_today", counter.GenerationsToday,
	)

	s.notify(next)

	return result, nil
}

// validates, gates, then runs a tool. a successful run is counted locally.
func (s *State) RunTool(ctx context.Context, tool string, input map[string]any) (json.RawMessage, error) {
	if err := ValidateTool(tool); err != nil {
		return nil, err
	}

	s.ensureLoaded(ctx)

	snap := s.Snapshot()
	if d := Explain(snap, usage.KindTool, tool); !d.Allowed {
		return nil, QuotaError(snap, usage.KindTool, tool, d)
	}

	token := s.Credentials().AccessToken

	result, err := s.remote.RunTool(ctx, token, tool, input)
	if err != nil {
		return nil, s.actionFailed(ctx, token, usage.KindTool, tool, err)
	}

	s.mu.Lock()
	s.counter = s.store.Increment(ctx, s.principalLocked(), usage.KindTool, tool)
	next := s.snapshotLocked()
	s.mu.Unlock()

	logger.Info("tool used", "tool", tool, "plan", next.Plan, "uses_today", next.Usage.ToolUses(tool))

	s.notify(next)

	return result, nil
}

// loads state on first use so gating never runs on an empty state
func (s *State) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	uninitialized := s.status == StatusUninitialized
	s.mu.RUnlock()

	if uninitialized {
		s.Refresh(ctx) //nolint:errcheck,gosec // degraded state is still usable
	}
}

// maps a failed remote action onto state changes and the returned error
func (s *State) actionFailed(ctx context.Context, token string, kind usage.Kind, tool string, err error) error {
	var authErr *errors.AuthError
	if stderrors.As(err, &authErr) {
		s.mu.Lock()
		if s.credentials.AccessToken == token && token != "" {
			s.applyFailureLocked(ctx, s.credentials, err)
		}
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.notify(snap)
		return err
	}

	var quotaErr *errors.QuotaExceededError
	if stderrors.As(err, &quotaErr) {
		snap := s.Snapshot()

		// the server saw the demo used; remember it locally
		if snap.Plan == plans.Visitor && kind == usage.KindGeneration && !snap.demoLocked() {
			s.store.MarkDemoUsed(ctx)

			s.mu.Lock()
			s.demo = s.store.Demo(ctx)
			snap = s.snapshotLocked()
			s.mu.Unlock()

			s.notify(snap)
		}

		enriched := QuotaError(snap, kind, tool, Explain(snap, kind, tool))

		if enriched.Message == "" {
			enriched.Message = quotaErr.Message
		}

		if enriched.Message == "" {
			enriched.Message = defaultQuotaMessage(snap.Plan, kind)
		}

		if enriched.Upsell == "" {
			enriched.Upsell = string(defaultUpsell(snap.Plan))
		}

		return enriched
	}

	return err
}

// message for a server-side quota rejection the local counters did not predict
func defaultQuotaMessage(plan plans.Plan, kind usage.Kind) string {
	switch {
	case plan == plans.Visitor:
		return "Demo used. Sign up for daily articles."
	case plan == plans.Free && kind == usage.KindGeneration:
		return "Daily limit reached! Upgrade to Pro for 15 articles/day."
	case plan == plans.Free:
		return "You've used your SEO tool for today. Upgrade to Pro for 10 tool uses per day!"
	default:
		return "Daily limit reached. Your limit resets tomorrow."
	}
}

func defaultUpsell(plan plans.Plan) Upsell {
	switch plan {
	case plans.Visitor:
		return UpsellSignUp
	case plans.Free:
		return UpsellUpgrade
	default:
		return UpsellNone
	}
}
