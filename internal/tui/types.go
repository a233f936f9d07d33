package tui

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
)

// represents the screen the dashboard shows
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenComposer
	ScreenArticle
)

// main TUI application model
type Model struct {
	state       *entitlements.State
	interval    time.Duration
	updates     chan entitlements.Snapshot
	unsubscribe func()

	screen Screen
	width  int
	height int

	view     entitlements.View
	loaded   bool
	tools    []plans.Tool
	selected int

	topic    textinput.Model
	tones    []string
	tone     int
	spinner  spinner.Model
	busy     bool
	progress progress.Model
	article  viewport.Model
	renderer *glamour.TermRenderer
	markdown string

	notice string
	err    error
}

// carries a snapshot pushed by the state
type SnapshotMsg struct {
	Snapshot entitlements.Snapshot
}

// sent when a refresh finishes
type RefreshedMsg struct {
	Snapshot entitlements.Snapshot
}

// sent when an article was generated
type GeneratedMsg struct {
	Result *profiles.GenerateResult
}

// sent when a tool run finished
type ToolRanMsg struct {
	Tool   string
	Result json.RawMessage
}

// sent when a gated action failed or was denied
type ActionErrorMsg struct {
	Err error
}

type tickMsg time.Time
