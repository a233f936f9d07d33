package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
)

// reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func printView(w io.Writer, v entitlements.View) {
	s := v.Snapshot
	stats := v.Stats

	who := "visitor"
	if s.User != nil {
		who = s.User.Email
		if who == "" {
			who = s.User.ID
		}
	}

	fmt.Fprintf(w, "Account:         %s\n", who)
	fmt.Fprintf(w, "Plan:            %s\n", stats.Plan)
	fmt.Fprintf(w, "Articles today:  %d / %s\n", stats.ArticlesToday, stats.ArticlesMax)
	fmt.Fprintf(w, "This month:      %d\n", stats.ArticlesMonth)
	fmt.Fprintf(w, "Tool uses today: %d (%s per tool)\n", stats.ToolUsesToday, stats.ToolUsesMax)

	if s.Stale {
		fmt.Fprintf(w, "\nUsage may be out of date: %s\n", s.LastError)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generate: %s\n", decisionText(v.Generation))

	fmt.Fprintln(w, "Tools:")
	for _, tool := range plans.Tools() {
		fmt.Fprintf(w, "  %-20s %s\n", tool.ID, decisionText(v.Tools[tool.ID]))
	}
}

func decisionText(d entitlements.Decision) string {
	if d.Allowed {
		if d.Limit < 0 {
			return "available"
		}

		return fmt.Sprintf("available (%d/%d used)", d.Used, d.Limit)
	}

	return d.Message
}

// one line per snapshot for the watch command
func watchLine(s entitlements.Snapshot) string {
	stats := entitlements.StatsFor(s)

	line := fmt.Sprintf("%s  articles %d/%s  month %d  tools %d",
		stats.Plan, stats.ArticlesToday, stats.ArticlesMax, stats.ArticlesMonth, stats.ToolUsesToday)

	if s.Stale {
		line += "  (offline)"
	}

	return line
}

// renders markdown for terminals; pipes and raw mode get it verbatim
func writeMarkdown(w io.Writer, markdown string, raw bool) error {
	if raw || !isTerminal(w) {
		_, err := io.WriteString(w, markdown)
		return err
	}

	out, err := glamour.Render(markdown, "dark")
	if err != nil {
		_, err = io.WriteString(w, markdown)
		return err
	}

	_, err = io.WriteString(w, out)
	return err
}

func writeJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = w.Write(append(raw, '\n'))
		return err
	}

	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// turns key=value flags into tool input. values that parse as JSON
// (numbers, booleans, arrays) keep their type; everything else is a string.
func parseInputs(pairs []string) (map[string]any, error) {
	input := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, &errors.ValidationError{Field: "input", Message: fmt.Sprintf("Input %q must look like key=value", pair)}
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			if _, isString := decoded.(string); !isString {
				input[key] = decoded
				continue
			}
		}

		input[key] = value
	}

	return input, nil
}

func toolHelp() string {
	tools := plans.Tools()
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID < tools[j].ID })

	var b strings.Builder
	b.WriteString("Run an SEO tool. Available tools:\n\n")

	for _, tool := range tools {
		fmt.Fprintf(&b, "  %-20s %s\n", tool.ID, tool.Description)
	}

	return b.String()
}
