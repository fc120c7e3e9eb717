package domain

import "time"

// Commit represents a single commit fetched from a repository's default
// branch. The SHA is unique within a repository+branch.
type Commit struct {
	SHA            string    `json:"sha"`
	Repo           string    `json:"repo"`
	Message        string    `json:"message"`
	AuthorName     string    `json:"author_name"`
	AuthorEmail    string    `json:"author_email"`
	AuthorLogin    string    `json:"author_login"`
	CommitterName  string    `json:"committer_name"`
	CommitterEmail string    `json:"committer_email"`
	Date           time.Time `json:"date"`
	HTMLURL        string    `json:"html_url"`
}

// Pull request states. Merged takes precedence over the raw closed state
// when a merge timestamp is present.
const (
	PRStateOpen   = "open"
	PRStateClosed = "closed"
	PRStateMerged = "merged"
)

// PullRequest represents a pull request with its resolved state and
// change-size counters.
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Repo         string     `json:"repo"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	AuthorLogin  string     `json:"author_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	HTMLURL      string     `json:"html_url"`
}

// ResolvePRState maps a raw provider state to the resolved state: a closed
// pull request with a merge timestamp is reported as merged.
func ResolvePRState(raw string, mergedAt *time.Time) string {
	if mergedAt != nil {
		return PRStateMerged
	}
	if raw == PRStateOpen {
		return PRStateOpen
	}
	return PRStateClosed
}
