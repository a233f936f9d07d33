package profiles

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// client for the remote SEOScribe API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

type Option func(*Client)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// server view of an account
type Profile struct {
	User  User           `json:"user"`
	Plan  string         `json:"plan"`
	Usage *UsageSnapshot `json:"usage,omitempty"`
}

// usage as reported by the server for the current period
type UsageSnapshot struct {
	Today     TodayUsage  `json:"today"`
	ThisMonth *MonthUsage `json:"thisMonth,omitempty"`
	Month     *MonthUsage `json:"month,omitempty"` // older responses
}

type TodayUsage struct {
	Generations int       `json:"generations"`
	Tools       ToolUsage `json:"tools"`
}

type MonthUsage struct {
	Total       int `json:"total"`
	Generations int `json:"generations"`
}

// per-tool counts. the server sends either an object keyed by tool id or a
// bare number with the day's total across tools.
type ToolUsage struct {
	PerTool map[string]int
	Total   int
}

// monthly generation total, whichever shape the server used
func (u *UsageSnapshot) MonthTotal() int {
	if u == nil {
		return 0
	}

	for _, m := range []*MonthUsage{u.ThisMonth, u.Month} {
		if m == nil {
			continue
		}

		if m.Total > 0 {
			return m.Total
		}

		if m.Generations > 0 {
			return m.Generations
		}
	}

	return 0
}

func (t *ToolUsage) UnmarshalJSON(data []byte) error {
	var total int
	if err := json.Unmarshal(data, &total); err == nil {
		t.PerTool = nil
		t.Total = total
		return nil
	}

	var perTool map[string]int
	if err := json.Unmarshal(data, &perTool); err != nil {
		return fmt.Errorf("tools usage must be a number or an object: %w", err)
	}

	t.PerTool = perTool
	t.Total = 0

	for _, n := range perTool {
		t.Total += n
	}

	return nil
}

func (t ToolUsage) MarshalJSON() ([]byte, error) {
	if t.PerTool == nil {
		return json.Marshal(t.Total)
	}

	return json.Marshal(t.PerTool)
}

// body of POST /api/draft
type GenerateRequest struct {
	Topic          string `json:"topic"`
	WebsiteURL     string `json:"website_url"`
	Tone           string `json:"tone"`
	GenerateSocial bool   `json:"generate_social"`
	Research       bool   `json:"research"`
	TemplateID     string `json:"template_id,omitempty"`
}

// generated article. the body is passed through untouched.
type GenerateResult struct {
	Article json.RawMessage
	Title   string
	Usage   *UsageSnapshot
}

type demoUsageResponse struct {
	Used bool `json:"used"`
}

// fields read from a generated article
type articleEnvelope struct {
	Title string         `json:"title"`
	Usage *UsageSnapshot `json:"usage,omitempty"`
}

// error body returned by the remote API
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
