package plans

type Plan string

const (
	// unauthenticated caller, tracked by device storage only
	Visitor    Plan = "visitor"
	Free       Plan = "free"
	Pro        Plan = "pro"
	Enterprise Plan = "enterprise"
)

// per-plan daily caps. Unlimited overrides both numbers.
type Limits struct {
	GenerationsPerDay int  `json:"generations_per_day"`
	ToolUsesPerDay    int  `json:"tool_uses_per_day"` // per tool
	Unlimited         bool `json:"unlimited"`
}

// a tool gated by the per-tool daily cap
type Tool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
