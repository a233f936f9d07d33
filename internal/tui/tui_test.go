package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles/profilestest"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

func newModel(t *testing.T, opts ...entitlements.Option) (*Model, *profilestest.Server) {
	t.Helper()

	api := profilestest.NewServer()
	t.Cleanup(api.Close)

	store := usage.NewStore(usage.NewMemoryBackend(), "tui")
	state := entitlements.New(store, profiles.NewClient(api.URL), opts...)

	m := NewDashboard(state, time.Hour)
	t.Cleanup(m.Close)

	return m, api
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// runs cmd and feeds its message back into the model
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestDashboard_LoadsVisitor(t *testing.T) {
	m, _ := newModel(t)

	assert.Contains(t, m.View(), "loading")

	run(t, m, refreshCmd(m.state, time.Second))

	view := m.View()
	assert.Contains(t, view, "Visitor")
	assert.Contains(t, view, "Articles today")
	assert.Contains(t, view, "Readability Checker")
	assert.Contains(t, view, "Generate available")
}

func TestDashboard_SignedInPlan(t *testing.T) {
	m, api := newModel(t, entitlements.WithCredentials(auth.Credentials{AccessToken: "tok"}))
	api.AddAccount("tok", profiles.Profile{User: profiles.User{ID: "u1", Email: "ada@example.com"}, Plan: "pro"})

	run(t, m, refreshCmd(m.state, time.Second))

	view := m.View()
	assert.Contains(t, view, "ada@example.com")
	assert.Contains(t, view, "0 / 15")
}

func TestDashboard_RunTool(t *testing.T) {
	m, api := newModel(t)
	run(t, m, refreshCmd(m.state, time.Second))

	m.Update(key("down"))
	_, cmd := m.Update(key("enter"))
	assert.True(t, m.busy)

	run(t, m, cmd)

	assert.False(t, m.busy)
	assert.Contains(t, m.notice, "readability")
	assert.Equal(t, 1, api.ToolRuns("readability"))
	assert.False(t, m.view.Tools["readability"].Allowed)

	// a denied tool shows the gating message without calling the API
	_, cmd = m.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "Sign up")
	assert.Equal(t, 1, api.ToolRuns("readability"))
}

func TestComposer_GeneratesArticle(t *testing.T) {
	m, api := newModel(t)
	run(t, m, refreshCmd(m.state, time.Second))

	m.Update(key("g"))
	require.Equal(t, ScreenComposer, m.screen)

	for _, r := range "Bakery SEO" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m.Update(key("tab"))
	assert.Equal(t, m.tones[1], m.tones[m.tone])

	_, cmd := m.Update(key("enter"))
	run(t, m, cmd)

	assert.Equal(t, ScreenArticle, m.screen)
	assert.Equal(t, 1, api.Drafts())
	assert.Contains(t, m.markdown, "Bakery SEO")
	assert.False(t, m.view.Generation.Allowed)

	m.Update(key("esc"))
	assert.Equal(t, ScreenDashboard, m.screen)
	assert.Contains(t, m.View(), "Demo used")
}

func TestComposer_ValidationError(t *testing.T) {
	m, api := newModel(t)
	run(t, m, refreshCmd(m.state, time.Second))

	m.Update(key("g"))
	_, cmd := m.Update(key("enter"))
	run(t, m, cmd)

	assert.Equal(t, ScreenComposer, m.screen)
	assert.Equal(t, "Please enter a topic", m.notice)
	assert.Zero(t, api.Drafts())
}

func TestModel_PushKeepsNewestSnapshot(t *testing.T) {
	m, _ := newModel(t)

	first := entitlements.Snapshot{Status: entitlements.StatusLoading}
	second := entitlements.Snapshot{Status: entitlements.StatusAnonymous}

	m.push(first)
	m.push(second)

	msg := waitForSnapshot(m.updates)()
	require.IsType(t, SnapshotMsg{}, msg)
	assert.Equal(t, entitlements.StatusAnonymous, msg.(SnapshotMsg).Snapshot.Status)
}

func TestModel_SubscribesToState(t *testing.T) {
	m, _ := newModel(t)

	_, err := m.state.Refresh(context.Background())
	require.NoError(t, err)

	msg := waitForSnapshot(m.updates)()
	require.IsType(t, SnapshotMsg{}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.True(t, m.loaded)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
