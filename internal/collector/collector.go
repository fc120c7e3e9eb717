package collector

import (
	"context"

	"github.com/orgscope/orgscope/internal/domain"
)

// Collector defines the interface for fetching organization data from the
// GitHub API. Collection-returning operations page transparently with a
// fixed page size of 100; pagination stops on the first page shorter than
// the page size.
type Collector interface {
	// GetOrganization retrieves the organization profile. A failure here is
	// critical and aborts the analysis run.
	GetOrganization(ctx context.Context, org string) (*domain.Organization, error)

	// ValidateToken checks that the configured token is accepted by the API
	ValidateToken(ctx context.Context) (bool, error)

	// GetMembers retrieves all members of an organization, enriched with
	// profile details (name, email) where available
	GetMembers(ctx context.Context, org string) ([]*domain.Member, error)

	// GetRepositories retrieves all repositories of an organization
	GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error)

	// GetCommits retrieves commits on the given branch, newest first,
	// bounded at 10 pages per repository+branch
	GetCommits(ctx context.Context, org, repo, branch string) ([]*domain.Commit, error)

	// GetPullRequests retrieves pull requests in any state, newest first,
	// bounded at 5 pages per repository
	GetPullRequests(ctx context.Context, org, repo string) ([]*domain.PullRequest, error)

	// GetTree retrieves the full recursive file tree of a branch
	GetTree(ctx context.Context, org, repo, branch string) ([]*domain.TreeEntry, error)

	// GetFileContent retrieves and decodes a file's content. Content with an
	// encoding other than base64 is reported as an error and contributes
	// nothing to the analysis.
	GetFileContent(ctx context.Context, org, repo, path string) (string, error)

	// GetRateLimit retrieves the remaining API quota
	GetRateLimit(ctx context.Context) (*domain.RateLimit, error)
}
