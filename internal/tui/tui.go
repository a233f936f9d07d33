package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	maxNoticeLen  = 200
)

// creates the dashboard for state. it refreshes every interval while open.
func NewDashboard(state *entitlements.State, interval time.Duration) *Model {
	topic := textinput.New()
	topic.Placeholder = "what should the article be about?"
	topic.CharLimit = 200
	topic.Width = defaultWidth - 10
	topic.Prompt = "> "
	topic.PromptStyle = promptStyle

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		state:    state,
		interval: interval,
		updates:  make(chan entitlements.Snapshot, 1),
		screen:   ScreenDashboard,
		width:    defaultWidth,
		height:   defaultHeight,
		view:     entitlements.ViewOf(state.Snapshot()),
		tools:    plans.Tools(),
		topic:    topic,
		tones:    entitlements.Tones(),
		spinner:  s,
		progress: progress.New(progress.WithSolidFill(string(colorBrand)), progress.WithoutPercentage()),
		article:  viewport.New(defaultWidth, defaultHeight-6),
	}

	m.progress.Width = 30
	m.unsubscribe = state.Subscribe(m.push)

	return m
}

// keeps only the newest snapshot; the state must never block on the UI
func (m *Model) push(snap entitlements.Snapshot) {
	select {
	case m.updates <- snap:
		return
	default:
	}

	select {
	case <-m.updates:
	default:
	}

	select {
	case m.updates <- snap:
	default:
	}
}

// stops receiving snapshots
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.state, m.refreshTimeout()),
		waitForSnapshot(m.updates),
		tick(m.interval),
		m.spinner.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.screen {
		case ScreenComposer:
			return m.updateComposer(msg)
		case ScreenArticle:
			return m.updateArticle(msg)
		default:
			return m.updateDashboard(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.topic.Width = max(10, msg.Width-10)
		m.article.Width = msg.Width
		m.article.Height = max(3, msg.Height-6)
		m.renderer = nil

		if m.markdown != "" {
			m.article.SetContent(m.render(m.markdown))
		}

		return m, nil

	case SnapshotMsg:
		m.setSnapshot(msg.Snapshot)
		return m, waitForSnapshot(m.updates)

	case RefreshedMsg:
		m.setSnapshot(msg.Snapshot)
		return m, nil

	case tickMsg:
		return m, tea.Batch(refreshCmd(m.state, m.refreshTimeout()), tick(m.interval))

	case GeneratedMsg:
		m.busy = false
		m.markdown = msg.Result.Markdown()
		m.article.SetContent(m.render(m.markdown))
		m.article.GotoTop()
		m.screen = ScreenArticle
		m.notice = "Article generated: " + msg.Result.Title
		m.setSnapshot(m.state.Snapshot())
		return m, nil

	case ToolRanMsg:
		m.busy = false
		m.notice = fmt.Sprintf("%s: %s", msg.Tool, compactJSON(msg.Result))
		m.setSnapshot(m.state.Snapshot())
		return m, nil

	case ActionErrorMsg:
		m.busy = false
		m.notice = errors.UserMessage(msg.Err)
		m.setSnapshot(m.state.Snapshot())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "r":
		return m, refreshCmd(m.state, m.refreshTimeout())

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.tools)-1 {
			m.selected++
		}

	case "enter":
		if m.busy {
			return m, nil
		}

		tool := m.tools[m.selected]
		if d := m.view.Tools[tool.ID]; !d.Allowed {
			m.notice = d.Message
			return m, nil
		}

		m.busy = true
		m.notice = "running " + tool.Name + "..."
		return m, runToolCmd(m.state, tool.ID)

	case "g":
		m.screen = ScreenComposer
		m.notice = ""
		return m, m.topic.Focus()

	case "a":
		if m.markdown != "" {
			m.screen = ScreenArticle
		}
	}

	return m, nil
}

func (m *Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.topic.Blur()
		m.screen = ScreenDashboard
		return m, nil

	case "tab":
		m.tone = (m.tone + 1) % len(m.tones)
		return m, nil

	case "enter":
		if m.busy {
			return m, nil
		}

		if d := m.view.Generation; !d.Allowed {
			m.notice = d.Message
			return m, nil
		}

		m.busy = true
		m.notice = "writing your article..."

		return m, generateCmd(m.state, entitlements.GenerateInput{
			Topic: m.topic.Value(),
			Tone:  m.tones[m.tone],
		})
	}

	var cmd tea.Cmd
	m.topic, cmd = m.topic.Update(msg)

	return m, cmd
}

func (m *Model) updateArticle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.screen = ScreenDashboard
		return m, nil
	}

	var cmd tea.Cmd
	m.article, cmd = m.article.Update(msg)

	return m, cmd
}

func (m *Model) View() string {
	switch m.screen {
	case ScreenComposer:
		return m.composerView()
	case ScreenArticle:
		return m.articleView()
	default:
		return m.dashboardView()
	}
}

func (m *Model) setSnapshot(snap entitlements.Snapshot) {
	m.view = entitlements.ViewOf(snap)
	m.loaded = snap.Status != entitlements.StatusUninitialized && snap.Status != entitlements.StatusLoading
}

func (m *Model) refreshTimeout() time.Duration {
	return max(10*time.Second, m.interval)
}

// renders markdown for the article viewport, falling back to the raw text
func (m *Model) render(markdown string) string {
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(20, m.width-4)),
		)
		if err != nil {
			logger.Warn("markdown renderer unavailable", "error", err)
			return markdown
		}

		m.renderer = r
	}

	out, err := m.renderer.Render(markdown)
	if err != nil {
		logger.Warn("failed to render article", "error", err)
		return markdown
	}

	return out
}

func compactJSON(raw json.RawMessage) string {
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return string(raw)
	}

	out := b.String()
	if len(out) > maxNoticeLen {
		out = out[:maxNoticeLen] + "…"
	}

	return out
}

// runs the dashboard full screen until the user quits
func Run(state *entitlements.State, interval time.Duration) error {
	m := NewDashboard(state, interval)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	return nil
}
