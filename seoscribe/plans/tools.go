package plans

var catalogue = []Tool{
	{ID: "headline-analyzer", Name: "Headline Analyzer", Description: "Score a headline for clarity, emotion and length"},
	{ID: "readability", Name: "Readability Checker", Description: "Flesch reading ease and grade level"},
	{ID: "serp-preview", Name: "SERP Preview", Description: "Preview how a page renders in search results"},
	{ID: "plagiarism", Name: "Plagiarism Checker", Description: "Check text against published content"},
	{ID: "competitor-analysis", Name: "Competitor Analysis", Description: "Compare a page against ranking competitors"},
	{ID: "keyword-cluster", Name: "Keyword Clustering", Description: "Group keywords by search intent"},
	{ID: "content-brief", Name: "Content Brief", Description: "Outline a brief for a target keyword"},
	{ID: "meta-description", Name: "Meta Description Generator", Description: "Write a meta description under 160 characters"},
}

// returns the known tools in display order
func Tools() []Tool {
	out := make([]Tool, len(catalogue))
	copy(out, catalogue)
	return out
}

// looks up a tool by id
func LookupTool(id string) (Tool, bool) {
	for _, t := range catalogue {
		if t.ID == id {
			return t, true
		}
	}

	return Tool{}, false
}
