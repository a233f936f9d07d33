package entitlements

import (
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/seoscribe/plans"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
)

const (
	maxTopicLength = 200
	defaultTone    = "professional"
)

var tones = []string{"professional", "casual", "friendly", "authoritative", "conversational"}

// returns the accepted tones
func Tones() []string {
	return slices.Clone(tones)
}

// checks generation input and builds the remote request
func ValidateGenerate(in GenerateInput) (profiles.GenerateRequest, error) {
	topic := strings.TrimSpace(in.Topic)

	if topic == "" {
		return profiles.GenerateRequest{}, &errors.ValidationError{Field: "topic", Message: "Please enter a topic"}
	}

	if utf8.RuneCountInString(topic) > maxTopicLength {
		return profiles.GenerateRequest{}, &errors.ValidationError{
			Field:   "topic",
			Message: "Topic must be 200 characters or fewer",
		}
	}

	websiteURL := strings.TrimSpace(in.WebsiteURL)
	if websiteURL != "" {
		u, err := url.Parse(websiteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return profiles.GenerateRequest{}, &errors.ValidationError{
				Field:   "website_url",
				Message: "Website URL must be a full http(s) address",
			}
		}
	}

	tone := strings.ToLower(strings.TrimSpace(in.Tone))
	if tone == "" {
		tone = defaultTone
	}

	if !slices.Contains(tones, tone) {
		return profiles.GenerateRequest{}, &errors.ValidationError{
			Field:   "tone",
			Message: "Tone must be one of: " + strings.Join(tones, ", "),
		}
	}

	return profiles.GenerateRequest{
		Topic:          topic,
		WebsiteURL:     websiteURL,
		Tone:           tone,
		GenerateSocial: true,
		Research:       true,
		TemplateID:     strings.TrimSpace(in.TemplateID),
	}, nil
}

// checks that tool names a known tool
func ValidateTool(tool string) error {
	if tool == "" {
		return &errors.ValidationError{Field: "tool", Message: "Please choose a tool"}
	}

	if _, ok := plans.LookupTool(tool); !ok {
		return &errors.ValidationError{Field: "tool", Message: "Unknown tool: " + tool}
	}

	return nil
}
