package router

// DefaultProfiles is the built-in routing table over the default capability
// sets. Declaration order matters: it is the tie-break for equal scores.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Set:         "retrieval",
			Description: "Fetch and extract source material",
			Patterns: []Pattern{
				{Expr: `https?://`, Weight: 1.0},
				{Expr: `\b(fetch|download|scrape|crawl)\b`, Weight: 0.9},
				{Expr: `\b(search|query|find|look\s+up)\b`, Weight: 0.7},
				{Expr: `\b(url|web\s*page|website|link)\b`, Weight: 0.8},
			},
		},
		{
			Set:         "documents",
			Description: "Extract and condense document content",
			Patterns: []Pattern{
				{Expr: `\b(pdf|document|paper|report|attachment)\b`, Weight: 1.0},
				{Expr: `\bsummari[sz]e\b`, Weight: 0.8},
				{Expr: `\bextract\s+(text|pages?|content)\b`, Weight: 0.9},
			},
		},
		{
			Set:         "analysis",
			Description: "Analyze the gathered material",
			Patterns: []Pattern{
				{Expr: `\b(analy[sz]e|analysis|compare|compute)\b`, Weight: 1.0},
				{Expr: `\b(statistical|statistics|stats|significance|correlation)\b`, Weight: 0.9},
				{Expr: `\b(pattern|trend|distribution|outlier)\b`, Weight: 0.7},
			},
		},
		{
			Set:         "interpretation",
			Description: "Interpret the analysis for the user",
			Patterns: []Pattern{
				{Expr: `\b(interpret|explain|meaning|significance|implication)\b`, Weight: 1.0},
				{Expr: `\bwhy\s+(is|does|would)\b`, Weight: 0.6},
				{Expr: `\bwhat\s+does\s+(this|it)\s+mean\b`, Weight: 0.9},
			},
			After: []string{"analysis", "retrieval", "documents"},
		},
		{
			Set:         "review",
			Description: "Review the produced results",
			Patterns: []Pattern{
				{Expr: `\b(review|critique|validate|verify|sanity\s+check)\b`, Weight: 1.0},
				{Expr: `\b(quality|correct|accurate|double.?check)\b`, Weight: 0.7},
			},
			After: []string{"analysis", "interpretation"},
		},
	}
}
