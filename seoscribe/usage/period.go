package usage

import (
	"strings"
	"time"
)

// returns the period keys for t in t's location
func PeriodAt(t time.Time) Period {
	return Period{
		Day:   t.Format("2006-01-02"),
		Month: t.Format("2006-01"),
	}
}

// returns a deep copy
func (c Counter) Clone() Counter {
	out := c

	if c.ToolUsesToday != nil {
		out.ToolUsesToday = make(map[string]int, len(c.ToolUsesToday))

		for k, v := range c.ToolUsesToday {
			out.ToolUsesToday[k] = v
		}
	}

	return out
}

// today's uses of a single tool. a server-reported total without a
// per-tool breakdown counts against every tool.
func (c Counter) ToolUses(tool string) int {
	return max(c.ToolUsesToday[tool], c.ToolUsesTotal)
}

// today's uses across all tools
func (c Counter) TotalToolUses() int {
	total := 0

	for _, n := range c.ToolUsesToday {
		total += n
	}

	return max(total, c.ToolUsesTotal)
}

// returns the counter as seen in period p: daily fields reset on a day
// change, the monthly field on a month change. negative values read as zero.
// changed reports whether anything differs from c.
func (c Counter) Normalize(p Period) (out Counter, changed bool) {
	out = c.Clone()

	if out.Day != p.Day {
		out.GenerationsToday = 0
		out.ToolUsesToday = nil
		out.ToolUsesTotal = 0
		out.Day = p.Day
		changed = true
	}

	if out.Month != p.Month {
		out.GenerationsThisMonth = 0
		out.Month = p.Month
		changed = true
	}

	if out.GenerationsToday < 0 {
		out.GenerationsToday = 0
		changed = true
	}

	if out.GenerationsThisMonth < 0 {
		out.GenerationsThisMonth = 0
		changed = true
	}

	if out.ToolUsesTotal < 0 {
		out.ToolUsesTotal = 0
		changed = true
	}

	for tool, n := range out.ToolUsesToday {
		if n < 0 {
			out.ToolUsesToday[tool] = 0
			changed = true
		}
	}

	return out, changed
}

// reports whether the marker locks the demo at now
func (d DemoMarker) Locked(now time.Time, lockout time.Duration) bool {
	if !d.Used || d.UsedAt == nil {
		return false
	}

	return elapsed(now, *d.UsedAt) < lockout
}

// time left until the lockout ends; zero when not locked
func (d DemoMarker) Remaining(now time.Time, lockout time.Duration) time.Duration {
	if !d.Locked(now, lockout) {
		return 0
	}

	return lockout - elapsed(now, *d.UsedAt)
}

// clock skew can put usedAt in the future; treat that as just used
func elapsed(now, usedAt time.Time) time.Duration {
	if d := now.Sub(usedAt); d > 0 {
		return d
	}

	return 0
}

// builds a backend key for a principal within a scope
func Key(scope string, p Principal) string {
	return scope + ":" + string(p)
}

// extracts the scope from a backend key
func ScopeOf(key string) string {
	scope, _, _ := strings.Cut(key, ":")
	return scope
}
