package analyzer

import "strings"

// languageByExtension maps a lowercase file extension to a language name.
// The file selector's allow-list is derived from this map's keys, so an
// extension that is selectable is always classifiable.
var languageByExtension = map[string]string{
	"go":     "Go",
	"js":     "JavaScript",
	"jsx":    "JavaScript",
	"mjs":    "JavaScript",
	"ts":     "TypeScript",
	"tsx":    "TypeScript",
	"py":     "Python",
	"java":   "Java",
	"c":      "C",
	"h":      "C",
	"cpp":    "C++",
	"cc":     "C++",
	"hpp":    "C++",
	"cs":     "C#",
	"rb":     "Ruby",
	"php":    "PHP",
	"swift":  "Swift",
	"kt":     "Kotlin",
	"rs":     "Rust",
	"scala":  "Scala",
	"sh":     "Shell",
	"bash":   "Shell",
	"pl":     "Perl",
	"lua":    "Lua",
	"r":      "R",
	"dart":   "Dart",
	"vue":    "Vue",
	"html":   "HTML",
	"css":    "CSS",
	"scss":   "SCSS",
	"less":   "Less",
	"sql":    "SQL",
	"yaml":   "YAML",
	"yml":    "YAML",
	"json":   "JSON",
	"xml":    "XML",
	"md":     "Markdown",
}

// otherLanguage is the fallback for extensions absent from the map
const otherLanguage = "Other"

// commentPatterns holds the per-language comment prefix tables. LinePrefixes
// open single-line comments; BlockStarts open multi-line comments. Only the
// opening line of a block comment is counted as a comment.
type commentPatterns struct {
	LinePrefixes []string
	BlockStarts  []string
}

// patternsByLanguage maps a language name to its comment prefixes. Languages
// absent from this table get no prefixes, so every non-blank line counts as
// code.
var patternsByLanguage = map[string]commentPatterns{
	"Go":         {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"JavaScript": {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"TypeScript": {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Python":     {LinePrefixes: []string{"#"}, BlockStarts: []string{`"""`, "'''"}},
	"Java":       {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"C":          {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"C++":        {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"C#":         {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Ruby":       {LinePrefixes: []string{"#"}, BlockStarts: []string{"=begin"}},
	"PHP":        {LinePrefixes: []string{"//", "#"}, BlockStarts: []string{"/*"}},
	"Swift":      {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Kotlin":     {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Rust":       {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Scala":      {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Shell":      {LinePrefixes: []string{"#"}},
	"Perl":       {LinePrefixes: []string{"#"}, BlockStarts: []string{"=pod"}},
	"Lua":        {LinePrefixes: []string{"--"}, BlockStarts: []string{"--[["}},
	"R":          {LinePrefixes: []string{"#"}},
	"Dart":       {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Vue":        {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*", "<!--"}},
	"HTML":       {BlockStarts: []string{"<!--"}},
	"CSS":        {BlockStarts: []string{"/*"}},
	"SCSS":       {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"Less":       {LinePrefixes: []string{"//"}, BlockStarts: []string{"/*"}},
	"SQL":        {LinePrefixes: []string{"--"}, BlockStarts: []string{"/*"}},
	"YAML":       {LinePrefixes: []string{"#"}},
	"XML":        {BlockStarts: []string{"<!--"}},
	"Markdown":   {BlockStarts: []string{"<!--"}},
}

// LanguageForPath returns the language for a file path based on its
// extension, or "Other" when the extension is unrecognized.
func LanguageForPath(path string) string {
	ext := extensionOf(path)
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return otherLanguage
}

// extensionOf returns the lowercase substring after the final '.' of the
// path, or "" when the path has no extension.
func extensionOf(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
