package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

func TestExplain_Generation(t *testing.T) {
	t.Run("allowed has no message", func(t *testing.T) {
		d := Explain(snapshotFor(plans.Pro, usage.Counter{GenerationsToday: 14}), usage.KindGeneration, "")

		assert.True(t, d.Allowed)
		assert.Empty(t, d.Message)
		assert.Equal(t, 14, d.Used)
		assert.Equal(t, 15, d.Limit)
	})

	t.Run("free offers upgrade", func(t *testing.T) {
		d := Explain(snapshotFor(plans.Free, usage.Counter{GenerationsToday: 1}), usage.KindGeneration, "")

		assert.False(t, d.Allowed)
		assert.Equal(t, UpsellUpgrade, d.Upsell)
		assert.Equal(t, "Daily limit reached! Upgrade to Pro for 15 articles/day.", d.Message)
	})

	t.Run("pro resets tomorrow", func(t *testing.T) {
		d := Explain(snapshotFor(plans.Pro, usage.Counter{GenerationsToday: 15}), usage.KindGeneration, "")

		assert.False(t, d.Allowed)
		assert.Equal(t, UpsellNone, d.Upsell)
		assert.Equal(t, "You've used all 15 articles today. Your limit resets tomorrow.", d.Message)
		assert.Equal(t, 1, d.ResetInDays)
	})

	t.Run("enterprise is unlimited", func(t *testing.T) {
		d := Explain(snapshotFor(plans.Enterprise, usage.Counter{GenerationsToday: 1000}), usage.KindGeneration, "")

		assert.True(t, d.Allowed)
		assert.Equal(t, -1, d.Limit)
	})

	t.Run("visitor demo used", func(t *testing.T) {
		s := snapshotFor(plans.Visitor, usage.Counter{})
		s.Demo = demoUsedAgo(24*time.Hour + time.Minute)

		d := Explain(s, usage.KindGeneration, "")

		assert.False(t, d.Allowed)
		assert.Equal(t, UpsellSignUp, d.Upsell)
		assert.Equal(t, 1, d.Used)
		assert.Equal(t, 1, d.Limit)
		assert.Equal(t, 29, d.ResetInDays)
		assert.Equal(t, "Demo used. Sign up for daily articles. Demo resets in 29 days.", d.Message)
	})

	t.Run("visitor last day", func(t *testing.T) {
		s := snapshotFor(plans.Visitor, usage.Counter{})
		s.Demo = demoUsedAgo(29*24*time.Hour + time.Hour)

		d := Explain(s, usage.KindGeneration, "")
		assert.Contains(t, d.Message, "Demo resets in 1 day.")
	})

	t.Run("visitor demo available", func(t *testing.T) {
		d := Explain(snapshotFor(plans.Visitor, usage.Counter{}), usage.KindGeneration, "")

		assert.True(t, d.Allowed)
		assert.Equal(t, 0, d.Used)
	})
}

func TestExplain_Tool(t *testing.T) {
	used := usage.Counter{ToolUsesToday: map[string]int{"readability": 1}}

	d := Explain(snapshotFor(plans.Visitor, used), usage.KindTool, "readability")
	assert.False(t, d.Allowed)
	assert.Equal(t, UpsellSignUp, d.Upsell)
	assert.Contains(t, d.Message, "Sign up")

	d = Explain(snapshotFor(plans.Free, used), usage.KindTool, "readability")
	assert.False(t, d.Allowed)
	assert.Equal(t, UpsellUpgrade, d.Upsell)
	assert.Equal(t, "You've used your 1 SEO tool for today. Upgrade to Pro for 10 tool uses per day!", d.Message)

	d = Explain(snapshotFor(plans.Free, used), usage.KindTool, "serp-preview")
	assert.True(t, d.Allowed)

	pro := usage.Counter{ToolUsesToday: map[string]int{"readability": 10}}
	d = Explain(snapshotFor(plans.Pro, pro), usage.KindTool, "readability")
	assert.False(t, d.Allowed)
	assert.Equal(t, "You've used this SEO tool 10 times today. Your limit resets tomorrow.", d.Message)
}

func TestQuotaError(t *testing.T) {
	s := snapshotFor(plans.Free, usage.Counter{GenerationsToday: 1})
	d := Explain(s, usage.KindGeneration, "")

	err := QuotaError(s, usage.KindGeneration, "", d)

	assert.Equal(t, "generation", err.Action)
	assert.Equal(t, "free", err.Plan)
	assert.Equal(t, 1, err.Limit)
	assert.Equal(t, 1, err.Used)
	assert.Equal(t, "upgrade", err.Upsell)
	assert.Equal(t, d.Message, err.Message)
}
