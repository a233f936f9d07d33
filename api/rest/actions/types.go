package actions

import (
	"encoding/json"

	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
)

// GenerateRequest represents the request body for article generation
type GenerateRequest struct {
	Topic      string `json:"topic"`
	WebsiteURL string `json:"website_url"`
	Tone       string `json:"tone"`
	TemplateID string `json:"template_id"`
}

// GenerateResponse carries the article and the updated entitlements
type GenerateResponse struct {
	Title   string            `json:"title,omitempty"`
	Article json.RawMessage   `json:"article"`
	View    entitlements.View `json:"view"`
}

// ToolResponse carries a tool result and the updated entitlements
type ToolResponse struct {
	Tool   string            `json:"tool"`
	Result json.RawMessage   `json:"result"`
	View   entitlements.View `json:"view"`
}

// ToolsResponse lists the tool catalogue
type ToolsResponse struct {
	Tools []plans.Tool `json:"tools"`
}

// receives one outcome per gated action
type Recorder interface {
	RecordDecision(action, plan, outcome string)
	RecordActionError(category string)
}

const (
	outcomeAllowed = "allowed"
	outcomeDenied  = "denied"
	outcomeFailed  = "failed"
)
