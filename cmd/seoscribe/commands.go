package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/internal/tui"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

const actionTimeout = 2 * time.Minute

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seoscribe",
		Short:         "SEOScribe - AI article generation and SEO tools",
		Long:          `SEOScribe generates SEO articles and runs SEO tools against your daily allowance.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd)
		},
	}

	root.AddCommand(
		newDashboardCmd(),
		newStatusCmd(),
		newGenerateCmd(),
		newToolCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	return root
}

// opens the app for one command and closes it afterwards
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// error text shown for a denied or failed action
func userError(err error) error {
	return stderrors.New(errors.UserMessage(err))
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Long:  `Open the full-screen dashboard. Prints the status instead when stdout is not a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd)
		},
	}
}

func runDashboard(cmd *cobra.Command) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return runStatus(cmd, false)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		// the dashboard owns the screen; logs go to a file in the data dir
		if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		logFile, err := os.OpenFile(filepath.Join(a.cfg.DataDir, "seoscribe.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close() //nolint:errcheck // best-effort cleanup

		logger.SetOutput(logFile)
		defer logger.SetOutput(os.Stderr)

		return tui.Run(a.state, a.cfg.PollInterval)
	})
}

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show plan, usage and what you can do today",
		Example: `  seoscribe status
  seoscribe status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full view as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, asJSON bool) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		view := entitlements.ViewOf(a.refresh(ctx))

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}

		printView(cmd.OutOrStdout(), view)
		return nil
	})
}

func newGenerateCmd() *cobra.Command {
	var (
		websiteURL string
		tone       string
		templateID string
		raw        bool
	)

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate an SEO article",
		Example: `  seoscribe generate "home espresso on a budget"
  seoscribe generate "cold brew ratios" --url https://example.com --tone friendly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
				defer cancel()

				result, err := a.state.Generate(actionCtx, entitlements.GenerateInput{
					Topic:      args[0],
					WebsiteURL: websiteURL,
					Tone:       tone,
					TemplateID: templateID,
				})
				if err != nil {
					return userError(err)
				}

				return writeMarkdown(cmd.OutOrStdout(), result.Markdown(), raw)
			})
		},
	}

	cmd.Flags().StringVar(&websiteURL, "url", "", "website the article is written for")
	cmd.Flags().StringVar(&tone, "tone", "professional", fmt.Sprintf("writing tone %v", entitlements.Tones()))
	cmd.Flags().StringVar(&templateID, "template", "", "article template id")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering")

	return cmd
}

func newToolCmd() *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "tool <id>",
		Short: "Run an SEO tool",
		Long:  toolHelp(),
		Example: `  seoscribe tool readability --input text="Short sentences read well."
  seoscribe tool serp-preview --input title="Espresso" --input url=https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseInputs(inputs)
			if err != nil {
				return userError(err)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
				defer cancel()

				result, err := a.state.RunTool(actionCtx, args[0], input)
				if err != nil {
					return userError(err)
				}

				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "tool input as key=value (repeatable)")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var (
		token        string
		refreshToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an access token",
		Long:  `Store an access token from the SEOScribe website and load your account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("SEOSCRIBE_TOKEN")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				creds := auth.Credentials{AccessToken: token, RefreshToken: refreshToken}
				if err := a.state.SetAuth(creds); err != nil {
					return userError(err)
				}

				snap, err := a.state.Refresh(ctx)

				var authErr *errors.AuthError
				if stderrors.As(err, &authErr) {
					return userError(err)
				}

				if err != nil {
					logger.Warn("profile refresh failed after login", "error", err)
				}

				who := "your account"
				if snap.User != nil && snap.User.Email != "" {
					who = snap.User.Email
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s plan)\n", who, snap.Plan.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "access token (or SEOSCRIBE_TOKEN)")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "refresh token")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				a.state.SignOut(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print usage whenever it changes",
		Long:  `Poll the server and print a line each time plan or usage changes. Stops on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if interval <= 0 {
					interval = a.cfg.PollInterval
				}

				lines := make(chan string, 16)
				unsubscribe := a.state.Subscribe(func(snap entitlements.Snapshot) {
					if snap.Status == entitlements.StatusLoading {
						return
					}

					select {
					case lines <- watchLine(snap):
					default:
					}
				})
				defer unsubscribe()

				poller := entitlements.NewPoller(a.state, interval)
				poller.Start()
				defer poller.Stop()

				// poller refreshes always notify; print only changes
				var last string
				for {
					select {
					case <-ctx.Done():
						return nil
					case line := <-lines:
						if line == last {
							continue
						}

						last = line
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default POLL_INTERVAL)")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seoscribe %s\n", Version)
			if GitCommit != "unknown" {
				fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
			}
		},
	}
}
