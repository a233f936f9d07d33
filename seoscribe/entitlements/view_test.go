package entitlements

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

func TestViewOf(t *testing.T) {
	s := snapshotFor(plans.Free, usage.Counter{
		GenerationsToday: 1,
		ToolUsesToday:    map[string]int{"readability": 1},
	})

	v := ViewOf(s)

	assert.False(t, v.Generation.Allowed)
	assert.Equal(t, UpsellUpgrade, v.Generation.Upsell)
	assert.Len(t, v.Tools, len(plans.Tools()))
	assert.False(t, v.Tools["readability"].Allowed)
	assert.True(t, v.Tools["serp-preview"].Allowed)
	assert.Equal(t, "Free", v.Stats.Plan)
}

func TestViewOf_JSON(t *testing.T) {
	data, err := json.Marshal(ViewOf(snapshotFor(plans.Pro, usage.Counter{})))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "snapshot")
	assert.Contains(t, decoded, "stats")
	assert.Contains(t, decoded, "generation")
	assert.Contains(t, decoded, "tools")
}
