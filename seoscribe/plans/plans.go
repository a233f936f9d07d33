package plans

import (
	"strconv"
	"strings"
)

var limits = map[Plan]Limits{
	Visitor:    {GenerationsPerDay: 1, ToolUsesPerDay: 1},
	Free:       {GenerationsPerDay: 1, ToolUsesPerDay: 1},
	Pro:        {GenerationsPerDay: 15, ToolUsesPerDay: 10},
	Enterprise: {Unlimited: true},
}

// returns the limits for a plan; unknown plans get the free limits
func For(p Plan) Limits {
	if l, ok := limits[p]; ok {
		return l
	}

	return limits[Free]
}

// normalizes a plan name reported by the remote API.
// empty or unrecognized values fall back to free.
func Parse(s string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))

	switch p {
	case Free, Pro, Enterprise:
		return p
	default:
		return Free
	}
}

// reports whether the plan belongs to a signed-in account
func (p Plan) IsAccount() bool {
	return p != Visitor
}

// human-readable plan name
func (p Plan) DisplayName() string {
	switch p {
	case Visitor:
		return "Visitor"
	case Pro:
		return "Pro"
	case Enterprise:
		return "Enterprise"
	default:
		return "Free"
	}
}

// reports whether another generation fits under the daily cap
func (l Limits) AllowsGeneration(usedToday int) bool {
	return l.Unlimited || usedToday < l.GenerationsPerDay
}

// reports whether another use of a single tool fits under the daily cap
func (l Limits) AllowsToolUse(usedToday int) bool {
	return l.Unlimited || usedToday < l.ToolUsesPerDay
}

// daily generation cap for display ("∞" when unlimited)
func (l Limits) GenerationCapLabel() string {
	if l.Unlimited {
		return "∞"
	}

	return strconv.Itoa(l.GenerationsPerDay)
}
