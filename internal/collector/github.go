package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/orgscope/orgscope/internal/domain"
	apperrors "github.com/orgscope/orgscope/internal/errors"
)

const (
	// pageSize is the fixed page size for every paginated endpoint.
	// Pagination stops on the first page shorter than this.
	pageSize = 100

	// maxCommitPages bounds commit history to 1000 commits per
	// repository+branch to keep worst-case request volume in check
	maxCommitPages = 10

	// maxPRPages bounds pull request history to 500 PRs per repository
	maxPRPages = 5

	// memberDetailWorkers bounds the concurrent per-member profile
	// enrichment requests within a single page
	memberDetailWorkers = 10
)

// githubCollector implements Collector using the GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
	logger      *log.Logger
}

// NewGitHubCollector creates a new GitHub collector for the given token.
// The collector is a value owned by the caller for the run's lifetime;
// there is no process-wide client state.
func NewGitHubCollector(token string, logger *log.Logger) Collector {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(logger),
		logger:      logger,
	}
}

// GetOrganization retrieves the organization profile
func (c *githubCollector) GetOrganization(ctx context.Context, org string) (*domain.Organization, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	o, resp, err := c.client.Organizations.Get(ctx, org)
	if err != nil {
		return nil, c.remoteError(resp, fmt.Sprintf("organization %q", org), err)
	}
	c.updateRateLimitFromResponse(resp)

	return &domain.Organization{
		Login:       o.GetLogin(),
		Name:        o.GetName(),
		Description: o.GetDescription(),
		AvatarURL:   o.GetAvatarURL(),
		HTMLURL:     o.GetHTMLURL(),
		PublicRepos: o.GetPublicRepos(),
		CreatedAt:   o.GetCreatedAt().Time,
	}, nil
}

// ValidateToken checks that the configured token is accepted by the API
func (c *githubCollector) ValidateToken(ctx context.Context) (bool, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}

	_, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return false, nil
		}
		return false, c.remoteError(resp, "authenticated user", err)
	}
	c.updateRateLimitFromResponse(resp)
	return true, nil
}

// GetMembers retrieves all members of an organization. Each page's listing
// entries are enriched concurrently with profile details (name, email);
// the enrichment preserves input order and a single member's detail failure
// substitutes the basic listing entry rather than failing the batch.
func (c *githubCollector) GetMembers(ctx context.Context, org string) ([]*domain.Member, error) {
	var allMembers []*domain.Member
	opts := &github.ListMembersOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for page := 1; ; page++ {
		opts.Page = page

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		members, resp, err := c.client.Organizations.ListMembers(ctx, org, opts)
		if err != nil {
			return nil, c.remoteError(resp, fmt.Sprintf("members of %q", org), err)
		}
		c.updateRateLimitFromResponse(resp)

		enriched, err := c.enrichMembers(ctx, members)
		if err != nil {
			return nil, err
		}
		allMembers = append(allMembers, enriched...)

		if len(members) < pageSize {
			break
		}
	}

	return allMembers, nil
}

// enrichMembers fans out one profile request per listing entry, joined
// before the page's results are appended. Results keep the input order.
func (c *githubCollector) enrichMembers(ctx context.Context, users []*github.User) ([]*domain.Member, error) {
	members := make([]*domain.Member, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberDetailWorkers)

	for i, u := range users {
		i, u := i, u
		members[i] = &domain.Member{
			ID:        u.GetID(),
			Login:     u.GetLogin(),
			AvatarURL: u.GetAvatarURL(),
			HTMLURL:   u.GetHTMLURL(),
		}

		g.Go(func() error {
			if err := c.rateLimiter.Wait(gctx); err != nil {
				return err
			}
			detail, resp, err := c.client.Users.Get(gctx, u.GetLogin())
			if err != nil {
				// Keep the basic listing entry
				c.logger.Printf("failed to fetch details for member %s: %v", u.GetLogin(), err)
				return nil
			}
			c.updateRateLimitFromResponse(resp)
			members[i].Name = detail.GetName()
			members[i].Email = detail.GetEmail()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

// GetRepositories retrieves all repositories of an organization
func (c *githubCollector) GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	var allRepos []*domain.Repository
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for page := 1; ; page++ {
		opts.Page = page

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, c.remoteError(resp, fmt.Sprintf("repositories of %q", org), err)
		}
		c.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, &domain.Repository{
				ID:            repo.GetID(),
				Name:          repo.GetName(),
				FullName:      repo.GetFullName(),
				Description:   repo.GetDescription(),
				IsPrivate:     repo.GetPrivate(),
				IsFork:        repo.GetFork(),
				IsArchived:    repo.GetArchived(),
				DefaultBranch: repo.GetDefaultBranch(),
				Size:          repo.GetSize(),
				Language:      repo.GetLanguage(),
				Stars:         repo.GetStargazersCount(),
				Forks:         repo.GetForksCount(),
				Watchers:      repo.GetWatchersCount(),
				OpenIssues:    repo.GetOpenIssuesCount(),
				HTMLURL:       repo.GetHTMLURL(),
				CreatedAt:     repo.GetCreatedAt().Time,
				UpdatedAt:     repo.GetUpdatedAt().Time,
				PushedAt:      repo.GetPushedAt().Time,
			})
		}

		if len(repos) < pageSize {
			break
		}
	}

	return allRepos, nil
}

// GetCommits retrieves commits on the given branch, newest first
func (c *githubCollector) GetCommits(ctx context.Context, org, repo, branch string) ([]*domain.Commit, error) {
	var allCommits []*domain.Commit
	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for page := 1; page <= maxCommitPages; page++ {
		opts.Page = page

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		commits, resp, err := c.client.Repositories.ListCommits(ctx, org, repo, opts)
		if err != nil {
			// Empty repositories report 409
			if resp != nil && resp.StatusCode == http.StatusConflict {
				return allCommits, nil
			}
			return nil, c.remoteError(resp, fmt.Sprintf("commits of %s/%s", org, repo), err)
		}
		c.updateRateLimitFromResponse(resp)

		for _, commit := range commits {
			cm := &domain.Commit{
				SHA:     commit.GetSHA(),
				Repo:    repo,
				Message: commit.GetCommit().GetMessage(),
				HTMLURL: commit.GetHTMLURL(),
			}
			if author := commit.GetCommit().GetAuthor(); author != nil {
				cm.AuthorName = author.GetName()
				cm.AuthorEmail = author.GetEmail()
				cm.Date = author.GetDate().Time
			}
			if committer := commit.GetCommit().GetCommitter(); committer != nil {
				cm.CommitterName = committer.GetName()
				cm.CommitterEmail = committer.GetEmail()
			}
			if commit.Author != nil {
				cm.AuthorLogin = commit.Author.GetLogin()
			}
			allCommits = append(allCommits, cm)
		}

		if len(commits) < pageSize {
			break
		}
	}

	return allCommits, nil
}

// GetPullRequests retrieves pull requests in any state, newest first
func (c *githubCollector) GetPullRequests(ctx context.Context, org, repo string) ([]*domain.PullRequest, error) {
	var allPRs []*domain.PullRequest
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for page := 1; page <= maxPRPages; page++ {
		opts.Page = page

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		prs, resp, err := c.client.PullRequests.List(ctx, org, repo, opts)
		if err != nil {
			return nil, c.remoteError(resp, fmt.Sprintf("pull requests of %s/%s", org, repo), err)
		}
		c.updateRateLimitFromResponse(resp)

		for _, pr := range prs {
			var mergedAt *time.Time
			if pr.MergedAt != nil {
				t := pr.MergedAt.Time
				mergedAt = &t
			}

			allPRs = append(allPRs, &domain.PullRequest{
				ID:           pr.GetID(),
				Number:       pr.GetNumber(),
				Repo:         repo,
				Title:        pr.GetTitle(),
				State:        domain.ResolvePRState(pr.GetState(), mergedAt),
				AuthorLogin:  pr.GetUser().GetLogin(),
				CreatedAt:    pr.GetCreatedAt().Time,
				UpdatedAt:    pr.GetUpdatedAt().Time,
				MergedAt:     mergedAt,
				Additions:    pr.GetAdditions(),
				Deletions:    pr.GetDeletions(),
				ChangedFiles: pr.GetChangedFiles(),
				HTMLURL:      pr.GetHTMLURL(),
			})
		}

		if len(prs) < pageSize {
			break
		}
	}

	return allPRs, nil
}

// GetTree retrieves the full recursive file tree of a branch
func (c *githubCollector) GetTree(ctx context.Context, org, repo, branch string) ([]*domain.TreeEntry, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	tree, resp, err := c.client.Git.GetTree(ctx, org, repo, branch, true)
	if err != nil {
		return nil, c.remoteError(resp, fmt.Sprintf("tree of %s/%s@%s", org, repo, branch), err)
	}
	c.updateRateLimitFromResponse(resp)

	entries := make([]*domain.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		entries = append(entries, &domain.TreeEntry{
			Path: entry.GetPath(),
			Type: entry.GetType(),
			Size: entry.GetSize(),
			SHA:  entry.GetSHA(),
		})
	}
	return entries, nil
}

// GetFileContent retrieves and decodes a file's content. The provider
// base64-encodes file bodies; anything else is a decode error.
func (c *githubCollector) GetFileContent(ctx context.Context, org, repo, path string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	file, _, resp, err := c.client.Repositories.GetContents(ctx, org, repo, path, nil)
	if err != nil {
		return "", c.remoteError(resp, fmt.Sprintf("content of %s/%s:%s", org, repo, path), err)
	}
	c.updateRateLimitFromResponse(resp)

	if file == nil {
		return "", fmt.Errorf("%s is not a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return content, nil
}

// GetRateLimit retrieves the remaining API quota
func (c *githubCollector) GetRateLimit(ctx context.Context) (*domain.RateLimit, error) {
	limits, resp, err := c.client.RateLimits(ctx)
	if err != nil {
		return nil, c.remoteError(resp, "rate limit", err)
	}

	core := limits.GetCore()
	c.rateLimiter.UpdateLimit(core.Remaining, core.Reset.Time)

	return &domain.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// remoteError maps a failed API response to an AppError
func (c *githubCollector) remoteError(resp *github.Response, resource string, err error) error {
	if resp == nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to fetch %s", resource), err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError("invalid or expired GitHub token")
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(resource)
	case http.StatusForbidden, http.StatusTooManyRequests:
		if resp.Rate.Remaining == 0 {
			return apperrors.NewRateLimitedError("GitHub API rate limit exhausted")
		}
	}
	return apperrors.NewRemoteError(resp.StatusCode, http.StatusText(resp.StatusCode), err)
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
