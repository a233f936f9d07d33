package entitlements

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// lifecycle of a State
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusAnonymous     Status = "anonymous" // no usable credential; visitor rules apply
)

// follow-up offered with a gating message
type Upsell string

const (
	UpsellNone    Upsell = ""
	UpsellSignUp  Upsell = "sign_up"
	UpsellUpgrade Upsell = "upgrade"
)

// remote operations the state depends on
type ProfileSource interface {
	FetchProfile(ctx context.Context, token string) (*profiles.Profile, error)
	FetchDemoUsage(ctx context.Context) (bool, error)
	Generate(ctx context.Context, token string, req profiles.GenerateRequest) (*profiles.GenerateResult, error)
	RunTool(ctx context.Context, token, tool string, input map[string]any) (json.RawMessage, error)
}

// where credentials survive restarts
type CredentialStore interface {
	Load() (auth.Credentials, error)
	Save(creds auth.Credentials) error
	Clear() error
}

// immutable view of the entitlement state; every query reads one of these.
// snapshots come from State.Snapshot, which fills in the configured limits.
// a hand-built snapshot must set EnterpriseToolUsesPerDay itself: 0 is a
// real cap that denies every enterprise tool use. a zero At reads as now.
type Snapshot struct {
	Status      Status           `json:"status"`
	Plan        plans.Plan       `json:"plan"`
	User        *profiles.User   `json:"user,omitempty"`
	Usage       usage.Counter    `json:"usage"`
	Demo        usage.DemoMarker `json:"demo"`
	DemoLockout time.Duration    `json:"-"`

	// -1 means unlimited, 0 allows none
	EnterpriseToolUsesPerDay int `json:"-"`

	// last profile refresh failed; usage may lag the server
	Stale       bool      `json:"stale"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
	LastError   string    `json:"last_error,omitempty"`

	At time.Time `json:"at"`
}

// user-facing input for a generation
type GenerateInput struct {
	Topic      string `json:"topic"`
	WebsiteURL string `json:"website_url"`
	Tone       string `json:"tone"`
	TemplateID string `json:"template_id"`
}

// gating outcome for one action
type Decision struct {
	Allowed     bool   `json:"allowed"`
	Message     string `json:"message,omitempty"`
	Upsell      Upsell `json:"upsell,omitempty"`
	Used        int    `json:"used"`
	Limit       int    `json:"limit"` // -1 when unlimited
	ResetInDays int    `json:"reset_in_days,omitempty"`
}

// dashboard figures derived from a snapshot
type Stats struct {
	Plan             string  `json:"plan"`
	ArticlesToday    int     `json:"articles_today"`
	ArticlesMax      string  `json:"articles_max"`
	ArticlesProgress float64 `json:"articles_progress"` // 0-100
	ArticlesMonth    int     `json:"articles_month"`
	ToolUsesToday    int     `json:"tool_uses_today"`
	ToolUsesMax      string  `json:"tool_uses_max"` // per tool
	DemoResetInDays  int     `json:"demo_reset_in_days,omitempty"`
}

type Option func(*State)

// entitlement engine for one device: plan, effective usage, demo marker
type State struct {
	store  *usage.Store
	remote ProfileSource
	creds  CredentialStore

	enterpriseToolLimit int

	mu          sync.RWMutex
	credentials auth.Credentials
	rejected    string // access token the server refused
	status      Status
	plan        plans.Plan
	user        *profiles.User
	counter     usage.Counter
	demo        usage.DemoMarker
	stale       bool
	lastRefresh time.Time
	lastErr     string

	group singleflight.Group

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}
