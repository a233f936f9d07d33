package entitlements

import (
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// reconciles local counters with a server usage snapshot for period.
// each field takes the larger of the two values, so merging the same remote
// snapshot again changes nothing. a stale local counter counts as zero.
// a nil remote leaves the local counter as is.
func Merge(local usage.Counter, remote *profiles.UsageSnapshot, period usage.Period) usage.Counter {
	merged, _ := local.Normalize(period)

	if remote == nil {
		return merged
	}

	fromRemote := usage.Counter{
		GenerationsToday:     remote.Today.Generations,
		GenerationsThisMonth: remote.MonthTotal(),
		ToolUsesToday:        remote.Today.Tools.PerTool,
		Day:                  period.Day,
		Month:                period.Month,
	}

	// a bare number covers every tool
	if remote.Today.Tools.PerTool == nil {
		fromRemote.ToolUsesTotal = remote.Today.Tools.Total
	}

	return maxCounter(merged, fromRemote)
}

// field-wise maximum of two counters in the same period
func maxCounter(a, b usage.Counter) usage.Counter {
	out := a.Clone()

	out.GenerationsToday = max(a.GenerationsToday, b.GenerationsToday)
	out.GenerationsThisMonth = max(a.GenerationsThisMonth, b.GenerationsThisMonth)
	out.ToolUsesTotal = max(a.ToolUsesTotal, b.ToolUsesTotal)

	for tool, n := range b.ToolUsesToday {
		if n <= out.ToolUsesToday[tool] {
			continue
		}

		if out.ToolUsesToday == nil {
			out.ToolUsesToday = make(map[string]int)
		}

		out.ToolUsesToday[tool] = n
	}

	// today's generations are part of this month's
	out.GenerationsThisMonth = max(out.GenerationsThisMonth, out.GenerationsToday)

	return out
}
