package domain

import "time"

// LanguageStat holds the per-language slice of a repository's line counts.
// Percentage is lines / totalLines * 100, recomputed once all files are
// counted; it stays 0 when the repository has no countable lines.
type LanguageStat struct {
	Lines      int     `json:"lines"`
	Files      int     `json:"files"`
	Percentage float64 `json:"percentage"`
}

// CodeStats is the line-analysis result for a single repository.
type CodeStats struct {
	Repository   string                   `json:"repository"`
	TotalLines   int                      `json:"total_lines"`
	CodeLines    int                      `json:"code_lines"`
	CommentLines int                      `json:"comment_lines"`
	BlankLines   int                      `json:"blank_lines"`
	FileCount    int                      `json:"file_count"`
	Languages    map[string]*LanguageStat `json:"languages"`
}

// UserStats holds per-member contribution statistics derived by attributing
// commits (by author email) and pull requests (by login) to the roster.
type UserStats struct {
	Login        string    `json:"login"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url"`
	Commits      int       `json:"commits"`
	PullRequests int       `json:"pull_requests"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	LastActivity time.Time `json:"last_activity"`
}

// LanguageTotal is one entry of the organization-wide language ranking.
type LanguageTotal struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

// RecentActivity holds the bounded recent-activity lists, each sorted
// descending by date and capped at 50 entries.
type RecentActivity struct {
	Commits      []*Commit      `json:"commits"`
	PullRequests []*PullRequest `json:"pull_requests"`
}

// OrganizationStats is the final output of one analysis run.
type OrganizationStats struct {
	RunID             string          `json:"run_id"`
	Organization      *Organization   `json:"organization"`
	TotalRepositories int             `json:"total_repositories"`
	TotalMembers      int             `json:"total_members"`
	TotalCommits      int             `json:"total_commits"`
	TotalPullRequests int             `json:"total_pull_requests"`
	TotalLinesOfCode  int             `json:"total_lines_of_code"`
	TopLanguages      []LanguageTotal `json:"top_languages"`
	Repositories      []*Repository   `json:"repositories"`
	Members           []*Member       `json:"members"`
	UserStats         []*UserStats    `json:"user_stats"`
	CodeStats         []*CodeStats    `json:"code_stats"`
	RecentActivity    RecentActivity  `json:"recent_activity"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// RateLimit is the remaining call allowance against the GitHub API within
// the current rate-limit window.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}
