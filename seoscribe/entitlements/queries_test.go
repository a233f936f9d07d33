package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

var queryNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func snapshotFor(plan plans.Plan, c usage.Counter) Snapshot {
	period := usage.PeriodAt(queryNow)
	if c.Day == "" {
		c.Day = period.Day
		c.Month = period.Month
	}

	return Snapshot{
		Status:                   StatusReady,
		Plan:                     plan,
		Usage:                    c,
		EnterpriseToolUsesPerDay: -1,
		At:                       queryNow,
	}
}

func demoUsedAgo(d time.Duration) usage.DemoMarker {
	at := queryNow.Add(-d)
	return usage.DemoMarker{Used: true, UsedAt: &at}
}

func TestCanGenerate(t *testing.T) {
	tests := []struct {
		name  string
		plan  plans.Plan
		today int
		want  bool
	}{
		{"free fresh", plans.Free, 0, true},
		{"free used", plans.Free, 1, false},
		{"pro below cap", plans.Pro, 14, true},
		{"pro at cap", plans.Pro, 15, false},
		{"enterprise", plans.Enterprise, 500, true},
		{"unknown plan uses free limits", plans.Plan("gold"), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshotFor(tt.plan, usage.Counter{GenerationsToday: tt.today})
			assert.Equal(t, tt.want, CanGenerate(s))
		})
	}
}

func TestCanGenerate_Visitor(t *testing.T) {
	s := snapshotFor(plans.Visitor, usage.Counter{})
	assert.True(t, CanGenerate(s), "unused demo")

	s.Demo = demoUsedAgo(time.Hour)
	assert.False(t, CanGenerate(s))

	s.Demo = demoUsedAgo(29 * 24 * time.Hour)
	assert.False(t, CanGenerate(s))

	s.Demo = demoUsedAgo(30 * 24 * time.Hour)
	assert.True(t, CanGenerate(s), "lockout over")
}

func TestCanGenerate_StalePeriodReadsAsZero(t *testing.T) {
	s := snapshotFor(plans.Free, usage.Counter{
		GenerationsToday: 1,
		Day:              "2026-03-13",
		Month:            "2026-03",
	})

	assert.True(t, CanGenerate(s))
	assert.Equal(t, 0, StatsFor(s).ArticlesToday)
}

func TestCanUseTool(t *testing.T) {
	used := func(n int) usage.Counter {
		return usage.Counter{ToolUsesToday: map[string]int{"keyword-cluster": n}}
	}

	assert.True(t, CanUseTool(snapshotFor(plans.Visitor, used(0)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Visitor, used(1)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Free, used(1)), "keyword-cluster"))
	assert.True(t, CanUseTool(snapshotFor(plans.Free, used(1)), "meta-description"), "limits are per tool")
	assert.True(t, CanUseTool(snapshotFor(plans.Pro, used(9)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Pro, used(10)), "keyword-cluster"))
	assert.True(t, CanUseTool(snapshotFor(plans.Enterprise, used(1000)), "keyword-cluster"))
}

func TestCanUseTool_EnterpriseLimit(t *testing.T) {
	s := snapshotFor(plans.Enterprise, usage.Counter{ToolUsesToday: map[string]int{"keyword-cluster": 50}})
	s.EnterpriseToolUsesPerDay = 50

	assert.False(t, CanUseTool(s, "keyword-cluster"))
	assert.True(t, CanUseTool(s, "meta-description"))
}

func TestCanUseTool_ServerTotalWithoutBreakdown(t *testing.T) {
	total := func(n int) usage.Counter {
		return usage.Counter{ToolUsesTotal: n}
	}

	assert.True(t, CanUseTool(snapshotFor(plans.Free, total(0)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Free, total(1)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Free, total(1)), "meta-description"))
	assert.True(t, CanUseTool(snapshotFor(plans.Pro, total(9)), "keyword-cluster"))
	assert.False(t, CanUseTool(snapshotFor(plans.Pro, total(10)), "keyword-cluster"))

	d := Explain(snapshotFor(plans.Pro, total(10)), usage.KindTool, "keyword-cluster")
	assert.False(t, d.Allowed)
	assert.Equal(t, 10, d.Used)

	assert.Equal(t, 10, StatsFor(snapshotFor(plans.Pro, total(10))).ToolUsesToday)
}

func TestCanUseTool_EnterpriseZeroCapDeniesAll(t *testing.T) {
	s := snapshotFor(plans.Enterprise, usage.Counter{})
	s.EnterpriseToolUsesPerDay = 0

	assert.False(t, CanUseTool(s, "keyword-cluster"))
	assert.Equal(t, "0", StatsFor(s).ToolUsesMax)
}

func TestQueries_ZeroTimeReadsAsNow(t *testing.T) {
	now := time.Now()
	period := usage.PeriodAt(now)
	usedAt := now.Add(-time.Hour)

	s := Snapshot{
		Status: StatusReady,
		Plan:   plans.Free,
		Usage: usage.Counter{
			GenerationsToday:     3,
			GenerationsThisMonth: 3,
			ToolUsesToday:        map[string]int{"keyword-cluster": 1},
			Day:                  period.Day,
			Month:                period.Month,
		},
		EnterpriseToolUsesPerDay: -1,
	}

	assert.False(t, CanGenerate(s))
	assert.False(t, CanUseTool(s, "keyword-cluster"))
	assert.Equal(t, 3, StatsFor(s).ArticlesToday)

	s.Plan = plans.Visitor
	s.Demo = usage.DemoMarker{Used: true, UsedAt: &usedAt}
	assert.False(t, CanGenerate(s))

	days, ok := TimeUntilDemoReset(s)
	assert.True(t, ok)
	assert.Equal(t, 30, days)
}

func TestTimeUntilDemoReset(t *testing.T) {
	s := snapshotFor(plans.Visitor, usage.Counter{})

	_, ok := TimeUntilDemoReset(s)
	assert.False(t, ok)

	s.Demo = demoUsedAgo(time.Minute)
	days, ok := TimeUntilDemoReset(s)
	assert.True(t, ok)
	assert.Equal(t, 30, days)

	s.Demo = demoUsedAgo(10*24*time.Hour + time.Hour)
	days, _ = TimeUntilDemoReset(s)
	assert.Equal(t, 20, days, "partial days round up")

	// never increases as time passes
	prev := 31
	for h := 0; h < 30*24; h += 7 {
		s.Demo = demoUsedAgo(time.Duration(h) * time.Hour)
		days, ok := TimeUntilDemoReset(s)
		assert.True(t, ok)
		assert.LessOrEqual(t, days, prev)
		prev = days
	}

	s.Demo = demoUsedAgo(30 * 24 * time.Hour)
	_, ok = TimeUntilDemoReset(s)
	assert.False(t, ok)
}

func TestTimeUntilDemoReset_CustomLockout(t *testing.T) {
	s := snapshotFor(plans.Visitor, usage.Counter{})
	s.DemoLockout = 7 * 24 * time.Hour
	s.Demo = demoUsedAgo(time.Hour)

	days, ok := TimeUntilDemoReset(s)
	assert.True(t, ok)
	assert.Equal(t, 7, days)
}

func TestStatsFor(t *testing.T) {
	s := snapshotFor(plans.Pro, usage.Counter{
		GenerationsToday:     3,
		GenerationsThisMonth: 40,
		ToolUsesToday:        map[string]int{"keyword-cluster": 2, "meta-description": 1},
	})

	stats := StatsFor(s)
	assert.Equal(t, "Pro", stats.Plan)
	assert.Equal(t, 3, stats.ArticlesToday)
	assert.Equal(t, "15", stats.ArticlesMax)
	assert.InDelta(t, 20.0, stats.ArticlesProgress, 0.001)
	assert.Equal(t, 40, stats.ArticlesMonth)
	assert.Equal(t, 3, stats.ToolUsesToday)
	assert.Equal(t, "10", stats.ToolUsesMax)
	assert.Zero(t, stats.DemoResetInDays)
}

func TestStatsFor_Enterprise(t *testing.T) {
	stats := StatsFor(snapshotFor(plans.Enterprise, usage.Counter{GenerationsToday: 99}))

	assert.Equal(t, "∞", stats.ArticlesMax)
	assert.Equal(t, "∞", stats.ToolUsesMax)
	assert.Zero(t, stats.ArticlesProgress)
}

func TestStatsFor_ProgressCapped(t *testing.T) {
	stats := StatsFor(snapshotFor(plans.Free, usage.Counter{GenerationsToday: 3}))
	assert.InDelta(t, 100.0, stats.ArticlesProgress, 0.001)
}

func TestStatsFor_VisitorDemo(t *testing.T) {
	s := snapshotFor(plans.Visitor, usage.Counter{})
	s.Demo = demoUsedAgo(5 * 24 * time.Hour)

	assert.Equal(t, 25, StatsFor(s).DemoResetInDays)
}
