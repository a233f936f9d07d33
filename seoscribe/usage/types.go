package usage

import (
	"context"
	"time"
)

// action being counted
type Kind string

const (
	KindGeneration Kind = "generation"
	KindTool       Kind = "tool"
)

// whose usage a counter tracks: "visitor" or "account:<id>"
type Principal string

const Visitor Principal = "visitor"

// returns the principal for a signed-in account
func Account(id string) Principal {
	return Principal("account:" + id)
}

// reports whether the principal is a signed-in account
func (p Principal) IsAccount() bool {
	return p != Visitor && p != ""
}

// period keys a counter is valid for
type Period struct {
	Day   string `json:"day"`   // YYYY-MM-DD
	Month string `json:"month"` // YYYY-MM
}

// usage within one period. only valid while Day/Month match the current period.
type Counter struct {
	GenerationsToday     int            `json:"generations_today"`
	ToolUsesToday        map[string]int `json:"tool_uses_today,omitempty"`

	// today's uses across all tools when the server reports only a total;
	// any single tool may account for all of them
	ToolUsesTotal int `json:"tool_uses_total,omitempty"`

	GenerationsThisMonth int            `json:"generations_this_month"`
	Day                  string         `json:"day"`
	Month                string         `json:"month"`
}

// visitor trial flag
type DemoMarker struct {
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"used_at,omitempty"`
}

// what a backend persists per key
type Record struct {
	Counter   Counter     `json:"counter"`
	Demo      *DemoMarker `json:"demo,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// persistence for usage records. Load returns (nil, nil) for a missing key.
type Backend interface {
	Load(ctx context.Context, key string) (*Record, error)
	Save(ctx context.Context, key string, rec *Record) error
}

// optional backend capability: signals when another process changed a scope.
// the returned channel is closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, scope string) (<-chan struct{}, error)
}

// optional backend capability: deletes records whose day key is older than
// before and whose demo marker is absent or older than demoBefore.
type Pruner interface {
	Prune(ctx context.Context, before string, demoBefore time.Time) (int64, error)
}

type Option func(*Store)

// default visitor demo lockout window
const DefaultDemoLockout = 30 * 24 * time.Hour
