package analyzer

import "strings"

// LineCounts is the per-file classification result. Every line is counted
// as exactly one of code, comment or blank, so Total is always their sum.
type LineCounts struct {
	Language string
	Total    int
	Code     int
	Comment  int
	Blank    int
}

// ClassifyContent splits raw text content on line feeds and classifies
// every line as blank, comment or code using the language's prefix tables.
// The language is inferred from the path's extension.
//
// The comment check is a prefix-only heuristic: a line opening a multi-line
// comment counts as a comment, but continuation lines of that comment count
// as code. This is an intentional simplification, not a parser.
func ClassifyContent(content, path string) LineCounts {
	lang := LanguageForPath(path)
	patterns := patternsByLanguage[lang]

	counts := LineCounts{Language: lang}
	if content == "" {
		return counts
	}
	// A trailing line feed terminates the last line, it does not open a new one
	content = strings.TrimSuffix(content, "\n")

	for _, line := range strings.Split(content, "\n") {
		counts.Total++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			counts.Blank++
			continue
		}
		if isComment(trimmed, patterns) {
			counts.Comment++
			continue
		}
		counts.Code++
	}
	return counts
}

func isComment(trimmed string, patterns commentPatterns) bool {
	for _, prefix := range patterns.LinePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	for _, start := range patterns.BlockStarts {
		if strings.HasPrefix(trimmed, start) {
			return true
		}
	}
	return false
}
