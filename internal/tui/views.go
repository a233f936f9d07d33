package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

func (m *Model) dashboardView() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString(m.spinner.View() + " loading your plan...\n")
		return b.String()
	}

	stats := m.view.Stats
	snap := m.view.Snapshot

	usageBox := lipgloss.JoinVertical(lipgloss.Left,
		row("Plan", stats.Plan),
		row("Articles today", fmt.Sprintf("%d / %s", stats.ArticlesToday, stats.ArticlesMax)),
		"  "+m.progress.ViewAs(stats.ArticlesProgress/100),
		row("This month", fmt.Sprintf("%d", stats.ArticlesMonth)),
		row("Tool uses today", fmt.Sprintf("%d (max %s per tool)", stats.ToolUsesToday, stats.ToolUsesMax)),
	)

	b.WriteString(borderStyle.Width(max(40, m.width-4)).Render(usageBox))
	b.WriteString("\n")

	b.WriteString(decisionLine("Generate", m.view.Generation))
	b.WriteString("\n")

	if snap.Stale {
		b.WriteString(warningStyle.Render("offline: showing last known usage. " + snap.LastError))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(valueStyle.Render("SEO tools"))
	b.WriteString("\n")

	for i, tool := range m.tools {
		d := m.view.Tools[tool.ID]

		mark := allowedStyle.Render("●")
		if !d.Allowed {
			mark = deniedStyle.Render("○")
		}

		line := fmt.Sprintf("%s %s %s", mark, tool.Name, labelStyle.Render(fmt.Sprintf("(%d/%s)", d.Used, limitText(d.Limit))))

		if i == m.selected {
			b.WriteString(menuItemSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(menuItemStyle.Render("  " + line))
		}

		b.WriteString("\n")
	}

	b.WriteString(m.footer("[↑/↓] select  [enter] run tool  [g] generate  [a] last article  [r] refresh  [q] quit"))

	return b.String()
}

func (m *Model) composerView() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(valueStyle.Render("New article"))
	b.WriteString("\n\n")
	b.WriteString(borderStyle.Width(max(40, m.width-4)).Render(m.topic.View()))
	b.WriteString("\n")
	b.WriteString(row("Tone", m.tones[m.tone]))
	b.WriteString("\n")
	b.WriteString(decisionLine("Generate", m.view.Generation))
	b.WriteString("\n")
	b.WriteString(m.footer("[enter] generate  [tab] change tone  [esc] back"))

	return b.String()
}

func (m *Model) articleView() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.article.View())
	b.WriteString("\n")
	b.WriteString(m.footer(fmt.Sprintf("[↑/↓] scroll %3.f%%  [esc] back", m.article.ScrollPercent()*100)))

	return b.String()
}

func (m *Model) header() string {
	title := titleStyle.Render(logo)

	who := "visitor"
	if user := m.view.Snapshot.User; user != nil {
		who = user.Email
		if who == "" {
			who = user.ID
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitleStyle.Render(fmt.Sprintf("%s · %s", who, m.view.Stats.Plan)),
	)
}

func (m *Model) footer(help string) string {
	var b strings.Builder

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " ")
		b.WriteString(infoStyle.Render(m.notice))
	} else if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-16s", label)) + valueStyle.Render(value)
}

func decisionLine(action string, d entitlements.Decision) string {
	if d.Allowed {
		return allowedStyle.Render("✓ " + action + " available")
	}

	return deniedStyle.Render("✗ " + d.Message)
}

func limitText(limit int) string {
	if limit < 0 {
		return "∞"
	}

	return fmt.Sprintf("%d", limit)
}
