package aggregator

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/orgscope/orgscope/internal/analyzer"
	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/domain"
)

const (
	// Per-repository contribution to the pooled recent-activity lists
	recentCommitsPerRepo = 10
	recentPRsPerRepo     = 5

	// Bounds on the final output
	recentActivityCap = 50
	topLanguagesCap   = 10
)

// Aggregator orchestrates one full organization analysis: fetch, per-repo
// line analysis, and roll-up into a single OrganizationStats record. All
// accumulator state is constructed fresh per run.
type Aggregator struct {
	collector collector.Collector
	analyzer  *analyzer.RepositoryAnalyzer
	logger    *log.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(coll collector.Collector, an *analyzer.RepositoryAnalyzer, logger *log.Logger) *Aggregator {
	return &Aggregator{
		collector: coll,
		analyzer:  an,
		logger:    logger,
	}
}

// PerformFullAnalysis runs the whole pipeline for one organization.
// Progress events are sent to the given channel at fixed milestones;
// sends never block (a slow consumer drops events, it cannot stall the
// run). A nil channel disables progress reporting.
//
// Only critical failures (organization lookup, member or repository
// listing) abort the run; a single repository's commit, pull request, tree
// or file failure is logged and absorbed as an empty contribution.
func (a *Aggregator) PerformFullAnalysis(ctx context.Context, org string, progress chan<- domain.ProgressEvent) (*domain.OrganizationStats, error) {
	emit := func(stage domain.ProgressStage, message string, pct int, repo string) {
		if progress == nil {
			return
		}
		select {
		case progress <- domain.ProgressEvent{Stage: stage, Message: message, Progress: pct, Repository: repo}:
		default:
		}
	}

	emit(domain.StageFetching, "Fetching organization profile", 0, "")
	orgInfo, err := a.collector.GetOrganization(ctx, org)
	if err != nil {
		emit(domain.StageError, err.Error(), 0, "")
		return nil, err
	}

	emit(domain.StageFetching, "Fetching organization members", 5, "")
	members, err := a.collector.GetMembers(ctx, org)
	if err != nil {
		emit(domain.StageError, err.Error(), 5, "")
		return nil, err
	}

	emit(domain.StageFetching, "Fetching repositories", 10, "")
	repos, err := a.collector.GetRepositories(ctx, org)
	if err != nil {
		emit(domain.StageError, err.Error(), 10, "")
		return nil, err
	}

	var (
		codeStats     []*domain.CodeStats
		pooledCommits []*domain.Commit
		pooledPRs     []*domain.PullRequest
	)

	for i, repo := range repos {
		pct := 15 + 80*i/len(repos)
		emit(domain.StageAnalyzing, "Analyzing repository", pct, repo.Name)

		stats, err := a.analyzer.Analyze(ctx, org, repo)
		if err != nil {
			a.logger.Printf("skipping code analysis for %s/%s: %v", org, repo.Name, err)
		} else {
			codeStats = append(codeStats, stats)
		}

		commits, err := a.collector.GetCommits(ctx, org, repo.Name, repo.DefaultBranch)
		if err != nil {
			a.logger.Printf("skipping commits for %s/%s: %v", org, repo.Name, err)
			commits = nil
		}
		pooledCommits = append(pooledCommits, capCommits(commits, recentCommitsPerRepo)...)

		prs, err := a.collector.GetPullRequests(ctx, org, repo.Name)
		if err != nil {
			a.logger.Printf("skipping pull requests for %s/%s: %v", org, repo.Name, err)
			prs = nil
		}
		pooledPRs = append(pooledPRs, capPRs(prs, recentPRsPerRepo)...)
	}

	result := BuildOrganizationStats(orgInfo, repos, members, codeStats, pooledCommits, pooledPRs)
	result.RunID = uuid.New().String()
	result.GeneratedAt = time.Now()

	emit(domain.StageComplete, "Analysis complete", 100, "")
	return result, nil
}

// BuildOrganizationStats combines organization metadata, the repository and
// member lists and the pooled recent commits/PRs into one summary record.
// It is pure: no I/O, deterministic for a given input.
func BuildOrganizationStats(org *domain.Organization, repos []*domain.Repository, members []*domain.Member, codeStats []*domain.CodeStats, commits []*domain.Commit, prs []*domain.PullRequest) *domain.OrganizationStats {
	userStats := buildUserStats(members, commits, prs)

	// Organization totals are sums over per-user counts, so only attributed
	// activity counts even though the recent-activity lists keep everything.
	totalCommits, totalPRs := 0, 0
	for _, us := range userStats {
		totalCommits += us.Commits
		totalPRs += us.PullRequests
	}

	totalLines := 0
	for _, cs := range codeStats {
		totalLines += cs.TotalLines
	}

	return &domain.OrganizationStats{
		Organization:      org,
		TotalRepositories: len(repos),
		TotalMembers:      len(members),
		TotalCommits:      totalCommits,
		TotalPullRequests: totalPRs,
		TotalLinesOfCode:  totalLines,
		TopLanguages:      topLanguages(codeStats),
		Repositories:      repos,
		Members:           members,
		UserStats:         userStats,
		CodeStats:         codeStats,
		RecentActivity: domain.RecentActivity{
			Commits:      recentCommits(commits),
			PullRequests: recentPRs(prs),
		},
	}
}

// buildUserStats attributes pooled commits and pull requests to the member
// roster. Commits match on exact author email, pull requests on exact
// login. Every member gets an entry, zero-activity members included.
func buildUserStats(members []*domain.Member, commits []*domain.Commit, prs []*domain.PullRequest) []*domain.UserStats {
	byLogin := make(map[string]*domain.UserStats, len(members))
	byEmail := make(map[string]*domain.UserStats, len(members))

	stats := make([]*domain.UserStats, 0, len(members))
	for _, m := range members {
		us := &domain.UserStats{
			Login:     m.Login,
			Name:      m.Name,
			AvatarURL: m.AvatarURL,
		}
		stats = append(stats, us)
		byLogin[m.Login] = us
		if m.Email != "" {
			byEmail[m.Email] = us
		}
	}

	// Commit author emails frequently differ from the provider-registered
	// account email; unmatched commits increment no one's tally.
	for _, c := range commits {
		us, ok := byEmail[c.AuthorEmail]
		if !ok {
			continue
		}
		us.Commits++
		if c.Date.After(us.LastActivity) {
			us.LastActivity = c.Date
		}
	}

	for _, pr := range prs {
		us, ok := byLogin[pr.AuthorLogin]
		if !ok {
			continue
		}
		us.PullRequests++
		us.Additions += pr.Additions
		us.Deletions += pr.Deletions
		if pr.CreatedAt.After(us.LastActivity) {
			us.LastActivity = pr.CreatedAt
		}
	}

	return stats
}

// topLanguages sums each language's line count across every repository's
// CodeStats and returns the top entries sorted descending by lines.
func topLanguages(codeStats []*domain.CodeStats) []domain.LanguageTotal {
	lines := make(map[string]int)
	for _, cs := range codeStats {
		for name, lang := range cs.Languages {
			lines[name] += lang.Lines
		}
	}

	totals := make([]domain.LanguageTotal, 0, len(lines))
	for name, n := range lines {
		totals = append(totals, domain.LanguageTotal{Name: name, Lines: n})
	}
	// Name order first so equal line counts rank deterministically
	sort.Slice(totals, func(i, j int) bool { return totals[i].Name < totals[j].Name })
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Lines > totals[j].Lines })

	if len(totals) > topLanguagesCap {
		totals = totals[:topLanguagesCap]
	}
	return totals
}

func recentCommits(commits []*domain.Commit) []*domain.Commit {
	sorted := make([]*domain.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	return capCommits(sorted, recentActivityCap)
}

func recentPRs(prs []*domain.PullRequest) []*domain.PullRequest {
	sorted := make([]*domain.PullRequest, len(prs))
	copy(sorted, prs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	return capPRs(sorted, recentActivityCap)
}

func capCommits(commits []*domain.Commit, n int) []*domain.Commit {
	if len(commits) > n {
		return commits[:n]
	}
	return commits
}

func capPRs(prs []*domain.PullRequest, n int) []*domain.PullRequest {
	if len(prs) > n {
		return prs[:n]
	}
	return prs
}
