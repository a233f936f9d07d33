package entitlements

import (
	"math"
	"strconv"
	"time"

	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// reports whether the snapshot's principal may generate another article
func CanGenerate(s Snapshot) bool {
	if s.Plan == plans.Visitor {
		return !s.demoLocked()
	}

	return plans.For(s.Plan).AllowsGeneration(s.current().GenerationsToday)
}

// reports whether the snapshot's principal may use tool once more today
func CanUseTool(s Snapshot, tool string) bool {
	used := s.current().ToolUses(tool)
	limit := toolLimit(s)

	return limit < 0 || used < limit
}

// whole days until the visitor demo unlocks, rounded up. ok is false when
// the demo is not locked.
func TimeUntilDemoReset(s Snapshot) (days int, ok bool) {
	remaining := s.Demo.Remaining(s.now(), s.lockout())
	if remaining <= 0 {
		return 0, false
	}

	return int(math.Ceil(float64(remaining) / float64(24*time.Hour))), true
}

// daily per-tool cap for the snapshot's plan; -1 when unlimited
func toolLimit(s Snapshot) int {
	if s.Plan == plans.Enterprise {
		return s.EnterpriseToolUsesPerDay
	}

	return plans.For(s.Plan).ToolUsesPerDay
}

// daily generation cap; -1 when unlimited
func generationLimit(s Snapshot) int {
	l := plans.For(s.Plan)
	if l.Unlimited {
		return -1
	}

	return l.GenerationsPerDay
}

// dashboard figures for the snapshot
func StatsFor(s Snapshot) Stats {
	c := s.current()

	stats := Stats{
		Plan:          s.Plan.DisplayName(),
		ArticlesToday: c.GenerationsToday,
		ArticlesMax:   plans.For(s.Plan).GenerationCapLabel(),
		ArticlesMonth: c.GenerationsThisMonth,
		ToolUsesToday: c.TotalToolUses(),
		ToolUsesMax:   limitLabel(toolLimit(s)),
	}

	if limit := generationLimit(s); limit > 0 {
		stats.ArticlesProgress = math.Min(100, float64(c.GenerationsToday)/float64(limit)*100)
	}

	if days, ok := TimeUntilDemoReset(s); ok {
		stats.DemoResetInDays = days
	}

	return stats
}

// counter as seen at the snapshot's time; stale periods read as zero
func (s Snapshot) current() usage.Counter {
	c, _ := s.Usage.Normalize(usage.PeriodAt(s.now()))
	return c
}

// a snapshot without a time is read as of now
func (s Snapshot) now() time.Time {
	if s.At.IsZero() {
		return time.Now()
	}

	return s.At
}

func (s Snapshot) demoLocked() bool {
	return s.Demo.Locked(s.now(), s.lockout())
}

func (s Snapshot) lockout() time.Duration {
	if s.DemoLockout <= 0 {
		return usage.DefaultDemoLockout
	}

	return s.DemoLockout
}

func limitLabel(limit int) string {
	if limit < 0 {
		return "∞"
	}

	return strconv.Itoa(limit)
}
