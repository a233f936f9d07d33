package entitlements

import (
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// everything a dashboard renders for one snapshot
type View struct {
	Snapshot   Snapshot            `json:"snapshot"`
	Stats      Stats               `json:"stats"`
	Generation Decision            `json:"generation"`
	Tools      map[string]Decision `json:"tools"`
}

// evaluates every gate against s
func ViewOf(s Snapshot) View {
	catalogue := plans.Tools()

	v := View{
		Snapshot:   s,
		Stats:      StatsFor(s),
		Generation: Explain(s, usage.KindGeneration, ""),
		Tools:      make(map[string]Decision, len(catalogue)),
	}

	for _, tool := range catalogue {
		v.Tools[tool.ID] = Explain(s, usage.KindTool, tool.ID)
	}

	return v
}
