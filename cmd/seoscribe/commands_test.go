package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles/profilestest"
)

// points the client at a fake API and a fresh data dir
func setupCLI(t *testing.T) (*profilestest.Server, string) {
	t.Helper()

	api := profilestest.NewServer()
	t.Cleanup(api.Close)

	dataDir := t.TempDir()

	t.Setenv("API_URL", api.URL)
	t.Setenv("DATA_DIR", dataDir)
	t.Setenv("USAGE_STORE", "file")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("DEMO_LOCKOUT_DAYS", "")
	t.Setenv("ENTERPRISE_TOOL_USES_PER_DAY", "")
	t.Setenv("SEOSCRIBE_TOKEN", "")

	return api, dataDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return executeContext(ctx, args...)
}

func executeContext(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	// nil args make cobra read os.Args
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func proProfile() profiles.Profile {
	return profiles.Profile{
		User: profiles.User{ID: "u-1", Email: "pro@example.com"},
		Plan: "pro",
	}
}

func TestStatus_Visitor(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Account:         visitor")
	assert.Contains(t, out, "Plan:            Visitor")
	assert.Contains(t, out, "Generate: available")
	assert.Contains(t, out, "readability")
}

func TestStatus_JSON(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	var view entitlements.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	assert.Equal(t, entitlements.StatusAnonymous, view.Snapshot.Status)
	assert.True(t, view.Generation.Allowed)
	assert.Len(t, view.Tools, 8)
}

func TestDashboard_FallsBackToStatusWhenPiped(t *testing.T) {
	setupCLI(t)

	out, err := execute(t, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan:            Visitor")

	out, err = execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan:            Visitor")
}

func TestGenerate_VisitorDemoPersistsAcrossRuns(t *testing.T) {
	api, _ := setupCLI(t)

	out, err := execute(t, "generate", "home espresso", "--tone", "friendly")
	require.NoError(t, err)
	assert.Contains(t, out, "# home espresso")
	assert.Equal(t, 1, api.Drafts())

	_, err = execute(t, "generate", "cold brew")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Demo used. Sign up for daily articles.")
	assert.Equal(t, 1, api.Drafts())

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Demo resets in 30 days")
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"blank topic", []string{"generate", "   "}, "Please enter a topic"},
		{"bad tone", []string{"generate", "espresso", "--tone", "sarcastic"}, "Tone must be one of"},
		{"bad url", []string{"generate", "espresso", "--url", "not a url"}, "URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := setupCLI(t)

			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Zero(t, api.Drafts())
		})
	}
}

func TestGenerate_RequiresTopic(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "generate")
	assert.Error(t, err)
}

func TestTool_RunsOncePerDayForVisitors(t *testing.T) {
	api, _ := setupCLI(t)

	out, err := execute(t, "tool", "readability", "--input", "text=Short sentences read well.", "-i", "grade=8")
	require.NoError(t, err)
	assert.Contains(t, out, `"score": 80`)
	assert.Equal(t, 1, api.ToolRuns("readability"))

	_, err = execute(t, "tool", "readability", "--input", "text=again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sign up")
	assert.Equal(t, 1, api.ToolRuns("readability"))

	// the allowance is per tool
	_, err = execute(t, "tool", "serp-preview")
	require.NoError(t, err)
}

func TestTool_Unknown(t *testing.T) {
	api, _ := setupCLI(t)

	_, err := execute(t, "tool", "backlink-magic")
	require.Error(t, err)
	assert.Zero(t, api.ToolRuns("backlink-magic"))
}

func TestTool_BadInput(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "tool", "readability", "--input", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}

func TestLoginLogout(t *testing.T) {
	api, dataDir := setupCLI(t)
	api.AddAccount("pro-token", proProfile())

	out, err := execute(t, "login", "--token", "pro-token")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as pro@example.com (Pro plan)")
	assert.FileExists(t, filepath.Join(dataDir, "credentials.json"))

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Account:         pro@example.com")
	assert.Contains(t, out, "Articles today:  0 / 15")

	out, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.NoFileExists(t, filepath.Join(dataDir, "credentials.json"))

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan:            Visitor")
}

func TestLogin_TokenFromEnvironment(t *testing.T) {
	api, _ := setupCLI(t)
	api.AddAccount("env-token", proProfile())
	t.Setenv("SEOSCRIBE_TOKEN", "env-token")

	out, err := execute(t, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "pro@example.com")
}

func TestLogin_RejectedToken(t *testing.T) {
	_, dataDir := setupCLI(t)

	_, err := execute(t, "login", "--token", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please sign in")

	_, statErr := os.Stat(filepath.Join(dataDir, "credentials.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogin_MissingToken(t *testing.T) {
	setupCLI(t)

	_, err := execute(t, "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access token is required")
}

func TestWatch_PrintsUntilCancelled(t *testing.T) {
	setupCLI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out, err := executeContext(ctx, "watch", "--interval", "50ms")
	require.NoError(t, err)

	assert.Contains(t, out, "Visitor  articles 0/")
	// unchanged snapshots print once
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Visitor  articles")))
}

func TestVersionCmd(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	defer func() {
		Version, GitCommit = oldVersion, oldCommit
	}()

	Version = "1.2.3"
	GitCommit = "abcdef"

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "seoscribe 1.2.3")
	assert.Contains(t, out, "Commit: abcdef")
}

func TestParseInputs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{"empty", nil, map[string]any{}, false},
		{"string", []string{"text=hello world"}, map[string]any{"text": "hello world"}, false},
		{"number", []string{"grade=8"}, map[string]any{"grade": float64(8)}, false},
		{"bool", []string{"strict=true"}, map[string]any{"strict": true}, false},
		{"array", []string{`keywords=["a","b"]`}, map[string]any{"keywords": []any{"a", "b"}}, false},
		{"quoted string stays raw", []string{`title="x"`}, map[string]any{"title": `"x"`}, false},
		{"value with equals", []string{"url=https://a.test/?q=1"}, map[string]any{"url": "https://a.test/?q=1"}, false},
		{"missing equals", []string{"text"}, nil, true},
		{"missing key", []string{"=x"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInputs(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
