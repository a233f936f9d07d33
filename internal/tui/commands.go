package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

const actionTimeout = 2 * time.Minute

func refreshCmd(state *entitlements.State, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// a failed refresh is reflected in the snapshot
		snap, _ := state.Refresh(ctx) //nolint:errcheck // degraded state is still rendered
		return RefreshedMsg{Snapshot: snap}
	}
}

// waits for the next snapshot pushed by the state
func waitForSnapshot(updates <-chan entitlements.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}

		return SnapshotMsg{Snapshot: snap}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func generateCmd(state *entitlements.State, in entitlements.GenerateInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		result, err := state.Generate(ctx, in)
		if err != nil {
			return ActionErrorMsg{Err: err}
		}

		return GeneratedMsg{Result: result}
	}
}

func runToolCmd(state *entitlements.State, tool string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		result, err := state.RunTool(ctx, tool, map[string]any{})
		if err != nil {
			return ActionErrorMsg{Err: err}
		}

		return ToolRanMsg{Tool: tool, Result: result}
	}
}
