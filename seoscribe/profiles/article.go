package profiles

import (
	"bytes"
	"encoding/json"
	"strings"
)

// body fields that may carry the article text, in order of preference
var articleFields = []string{"content", "article", "markdown", "body"}

// returns the article as markdown. bodies without a known text field are
// rendered as a fenced JSON block.
func (r *GenerateResult) Markdown() string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Article, &fields); err == nil {
		for _, name := range articleFields {
			var text string
			if err := json.Unmarshal(fields[name], &text); err == nil && strings.TrimSpace(text) != "" {
				if r.Title != "" && !strings.HasPrefix(strings.TrimSpace(text), "#") {
					return "# " + r.Title + "\n\n" + text
				}

				return text
			}
		}
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, r.Article, "", "  "); err != nil {
		return string(r.Article)
	}

	return "```json\n" + pretty.String() + "\n```"
}
