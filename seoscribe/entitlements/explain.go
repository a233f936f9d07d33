package entitlements

import (
	"fmt"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// gating decision plus the message and upsell shown when denied
func Explain(s Snapshot, kind usage.Kind, tool string) Decision {
	switch kind {
	case usage.KindTool:
		return explainTool(s, tool)
	default:
		return explainGeneration(s)
	}
}

// converts a denied decision into the error returned by actions
func QuotaError(s Snapshot, kind usage.Kind, tool string, d Decision) *errors.QuotaExceededError {
	return &errors.QuotaExceededError{
		Action:  string(kind),
		Tool:    tool,
		Plan:    string(s.Plan),
		Limit:   d.Limit,
		Used:    d.Used,
		Message: d.Message,
		Upsell:  string(d.Upsell),
	}
}

func explainGeneration(s Snapshot) Decision {
	c := s.current()

	d := Decision{
		Allowed: CanGenerate(s),
		Used:    c.GenerationsToday,
		Limit:   generationLimit(s),
	}

	if s.Plan == plans.Visitor {
		d.Limit = 1
		d.Used = 0

		if s.demoLocked() {
			d.Used = 1
		}
	}

	if d.Allowed {
		return d
	}

	switch s.Plan {
	case plans.Visitor:
		days, _ := TimeUntilDemoReset(s)
		d.ResetInDays = days
		d.Upsell = UpsellSignUp
		d.Message = fmt.Sprintf("Demo used. Sign up for daily articles. Demo resets in %s.", pluralDays(days))
	case plans.Free:
		d.Upsell = UpsellUpgrade
		d.Message = fmt.Sprintf("Daily limit reached! Upgrade to Pro for %d articles/day.", plans.For(plans.Pro).GenerationsPerDay)
	default:
		d.ResetInDays = 1
		d.Message = fmt.Sprintf("You've used all %d articles today. Your limit resets tomorrow.", d.Limit)
	}

	return d
}

func explainTool(s Snapshot, tool string) Decision {
	d := Decision{
		Allowed: CanUseTool(s, tool),
		Used:    s.current().ToolUses(tool),
		Limit:   toolLimit(s),
	}

	if d.Allowed {
		return d
	}

	pro := plans.For(plans.Pro).ToolUsesPerDay

	switch s.Plan {
	case plans.Visitor:
		d.Upsell = UpsellSignUp
		d.Message = fmt.Sprintf("You've used your %d free SEO tool for today. Sign up to get %d tool use per day (or %d/day with Pro)!",
			d.Limit, plans.For(plans.Free).ToolUsesPerDay, pro)
	case plans.Free:
		d.Upsell = UpsellUpgrade
		d.Message = fmt.Sprintf("You've used your %d SEO tool for today. Upgrade to Pro for %d tool uses per day!", d.Limit, pro)
	default:
		d.ResetInDays = 1
		d.Message = fmt.Sprintf("You've used this SEO tool %d times today. Your limit resets tomorrow.", d.Limit)
	}

	return d
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}

	return fmt.Sprintf("%d days", n)
}
