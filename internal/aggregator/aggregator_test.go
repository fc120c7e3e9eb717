package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orgscope/orgscope/internal/analyzer"
	"github.com/orgscope/orgscope/internal/domain"
)

// mockCollector is a mock implementation of the collector.Collector interface
type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) GetOrganization(ctx context.Context, org string) (*domain.Organization, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *mockCollector) ValidateToken(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockCollector) GetMembers(ctx context.Context, org string) ([]*domain.Member, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Member), args.Error(1)
}

func (m *mockCollector) GetRepositories(ctx context.Context, org string) ([]*domain.Repository, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Repository), args.Error(1)
}

func (m *mockCollector) GetCommits(ctx context.Context, org, repo, branch string) ([]*domain.Commit, error) {
	args := m.Called(ctx, org, repo, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commit), args.Error(1)
}

func (m *mockCollector) GetPullRequests(ctx context.Context, org, repo string) ([]*domain.PullRequest, error) {
	args := m.Called(ctx, org, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PullRequest), args.Error(1)
}

func (m *mockCollector) GetTree(ctx context.Context, org, repo, branch string) ([]*domain.TreeEntry, error) {
	args := m.Called(ctx, org, repo, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TreeEntry), args.Error(1)
}

func (m *mockCollector) GetFileContent(ctx context.Context, org, repo, path string) (string, error) {
	args := m.Called(ctx, org, repo, path)
	return args.String(0), args.Error(1)
}

func (m *mockCollector) GetRateLimit(ctx context.Context) (*domain.RateLimit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimit), args.Error(1)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestBuildOrganizationStats_UserAttribution(t *testing.T) {
	org := &domain.Organization{Login: "acme"}
	members := []*domain.Member{
		{Login: "alice", Email: "alice@acme.dev"},
		{Login: "bob", Email: "bob@acme.dev"},
		{Login: "carol"}, // no public email, no activity
	}
	commits := []*domain.Commit{
		{SHA: "c1", AuthorEmail: "alice@acme.dev", Date: day(3)},
		{SHA: "c2", AuthorEmail: "alice@acme.dev", Date: day(1)},
		{SHA: "c3", AuthorEmail: "stranger@example.com", Date: day(5)}, // matches no member
	}
	prs := []*domain.PullRequest{
		{Number: 1, AuthorLogin: "bob", CreatedAt: day(4), Additions: 10, Deletions: 2},
		{Number: 2, AuthorLogin: "alice", CreatedAt: day(7), Additions: 3, Deletions: 1},
		{Number: 3, AuthorLogin: "outsider", CreatedAt: day(6)},
	}

	stats := BuildOrganizationStats(org, nil, members, nil, commits, prs)

	require.Len(t, stats.UserStats, 3)
	byLogin := make(map[string]*domain.UserStats)
	for _, us := range stats.UserStats {
		byLogin[us.Login] = us
	}

	alice := byLogin["alice"]
	assert.Equal(t, 2, alice.Commits)
	assert.Equal(t, 1, alice.PullRequests)
	assert.Equal(t, 3, alice.Additions)
	assert.Equal(t, day(7), alice.LastActivity, "PR creation is alice's latest activity")

	bob := byLogin["bob"]
	assert.Equal(t, 0, bob.Commits)
	assert.Equal(t, 1, bob.PullRequests)
	assert.Equal(t, 10, bob.Additions)
	assert.Equal(t, 2, bob.Deletions)
	assert.Equal(t, day(4), bob.LastActivity)

	// A zero-activity member keeps an entry with zero counts
	carol := byLogin["carol"]
	assert.Equal(t, 0, carol.Commits)
	assert.Equal(t, 0, carol.PullRequests)
	assert.True(t, carol.LastActivity.IsZero())

	// Totals are sums over per-user counts, so unattributed activity is excluded
	assert.Equal(t, 2, stats.TotalCommits)
	assert.Equal(t, 2, stats.TotalPullRequests)
}

func TestBuildOrganizationStats_TopLanguages(t *testing.T) {
	codeStats := make([]*domain.CodeStats, 0, 2)
	first := &domain.CodeStats{
		Repository: "a",
		Languages:  map[string]*domain.LanguageStat{},
	}
	for i := 0; i < 12; i++ {
		first.Languages[fmt.Sprintf("Lang%02d", i)] = &domain.LanguageStat{Lines: 10 * (i + 1)}
	}
	second := &domain.CodeStats{
		Repository: "b",
		Languages: map[string]*domain.LanguageStat{
			"Lang00": {Lines: 500}, // pushes Lang00 to the top across repos
		},
	}
	codeStats = append(codeStats, first, second)

	stats := BuildOrganizationStats(&domain.Organization{}, nil, nil, codeStats, nil, nil)

	require.Len(t, stats.TopLanguages, topLanguagesCap)
	assert.Equal(t, "Lang00", stats.TopLanguages[0].Name)
	assert.Equal(t, 510, stats.TopLanguages[0].Lines)
	for i := 1; i < len(stats.TopLanguages); i++ {
		assert.GreaterOrEqual(t, stats.TopLanguages[i-1].Lines, stats.TopLanguages[i].Lines,
			"top languages must be sorted non-increasing")
	}
}

func TestBuildOrganizationStats_RecentActivityBounds(t *testing.T) {
	var commits []*domain.Commit
	var prs []*domain.PullRequest
	for i := 0; i < 70; i++ {
		commits = append(commits, &domain.Commit{SHA: fmt.Sprintf("c%d", i), Date: day(i % 13)})
		prs = append(prs, &domain.PullRequest{Number: i, CreatedAt: day(i % 17)})
	}

	stats := BuildOrganizationStats(&domain.Organization{}, nil, nil, nil, commits, prs)

	require.Len(t, stats.RecentActivity.Commits, recentActivityCap)
	require.Len(t, stats.RecentActivity.PullRequests, recentActivityCap)

	for i := 1; i < len(stats.RecentActivity.Commits); i++ {
		assert.False(t, stats.RecentActivity.Commits[i].Date.After(stats.RecentActivity.Commits[i-1].Date),
			"recent commits must be sorted non-increasing by date")
	}
	for i := 1; i < len(stats.RecentActivity.PullRequests); i++ {
		assert.False(t, stats.RecentActivity.PullRequests[i].CreatedAt.After(stats.RecentActivity.PullRequests[i-1].CreatedAt),
			"recent PRs must be sorted non-increasing by date")
	}
}

func TestBuildOrganizationStats_TotalLinesOfCode(t *testing.T) {
	codeStats := []*domain.CodeStats{
		{Repository: "a", TotalLines: 120},
		{Repository: "b", TotalLines: 80},
	}

	stats := BuildOrganizationStats(&domain.Organization{}, nil, nil, codeStats, nil, nil)
	assert.Equal(t, 200, stats.TotalLinesOfCode)
}

func TestPerformFullAnalysis_OrgLookupFailureAbortsRun(t *testing.T) {
	coll := new(mockCollector)
	coll.On("GetOrganization", mock.Anything, "ghost").
		Return(nil, errors.New("organization not found"))

	agg := NewAggregator(coll, analyzer.NewRepositoryAnalyzer(coll, discardLogger()), discardLogger())

	_, err := agg.PerformFullAnalysis(context.Background(), "ghost", nil)
	assert.Error(t, err)

	// No repository processing happens after a critical failure
	coll.AssertNotCalled(t, "GetRepositories", mock.Anything, mock.Anything)
	coll.AssertNotCalled(t, "GetMembers", mock.Anything, mock.Anything)
}

func TestPerformFullAnalysis_PerRepoFailuresAreAbsorbed(t *testing.T) {
	coll := new(mockCollector)
	coll.On("GetOrganization", mock.Anything, "acme").
		Return(&domain.Organization{Login: "acme"}, nil)
	coll.On("GetMembers", mock.Anything, "acme").
		Return([]*domain.Member{{Login: "alice", Email: "alice@acme.dev"}}, nil)
	coll.On("GetRepositories", mock.Anything, "acme").
		Return([]*domain.Repository{
			{Name: "good", DefaultBranch: "main"},
			{Name: "flaky", DefaultBranch: "main"},
		}, nil)

	coll.On("GetTree", mock.Anything, "acme", "good", "main").
		Return([]*domain.TreeEntry{{Path: "main.go", Type: "blob", Size: 20}}, nil)
	coll.On("GetFileContent", mock.Anything, "acme", "good", "main.go").
		Return("package main\n", nil)
	coll.On("GetCommits", mock.Anything, "acme", "good", "main").
		Return([]*domain.Commit{{SHA: "c1", AuthorEmail: "alice@acme.dev", Date: day(1)}}, nil)
	coll.On("GetPullRequests", mock.Anything, "acme", "good").
		Return([]*domain.PullRequest{}, nil)

	// Every per-repo fetch fails for the flaky repository
	coll.On("GetTree", mock.Anything, "acme", "flaky", "main").
		Return(nil, errors.New("tree unavailable"))
	coll.On("GetCommits", mock.Anything, "acme", "flaky", "main").
		Return(nil, errors.New("commits unavailable"))
	coll.On("GetPullRequests", mock.Anything, "acme", "flaky").
		Return(nil, errors.New("prs unavailable"))

	agg := NewAggregator(coll, analyzer.NewRepositoryAnalyzer(coll, discardLogger()), discardLogger())

	progress := make(chan domain.ProgressEvent, 64)
	stats, err := agg.PerformFullAnalysis(context.Background(), "acme", progress)
	close(progress)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRepositories)
	require.Len(t, stats.CodeStats, 1, "only the analyzable repository contributes CodeStats")
	assert.Equal(t, "good", stats.CodeStats[0].Repository)
	assert.Equal(t, 1, stats.TotalCommits)
	assert.NotEmpty(t, stats.RunID)

	var sawComplete bool
	for ev := range progress {
		assert.GreaterOrEqual(t, ev.Progress, 0)
		assert.LessOrEqual(t, ev.Progress, 100)
		if ev.Stage == domain.StageComplete {
			sawComplete = true
		}
	}
	assert.True(t, sawComplete, "a successful run must emit a complete event")
}

func TestPerformFullAnalysis_PoolsAreCappedPerRepository(t *testing.T) {
	coll := new(mockCollector)
	coll.On("GetOrganization", mock.Anything, "acme").
		Return(&domain.Organization{Login: "acme"}, nil)
	coll.On("GetMembers", mock.Anything, "acme").
		Return([]*domain.Member{}, nil)
	coll.On("GetRepositories", mock.Anything, "acme").
		Return([]*domain.Repository{{Name: "busy", DefaultBranch: "main"}}, nil)
	coll.On("GetTree", mock.Anything, "acme", "busy", "main").
		Return([]*domain.TreeEntry{}, nil)

	var commits []*domain.Commit
	for i := 0; i < 40; i++ {
		commits = append(commits, &domain.Commit{SHA: fmt.Sprintf("c%d", i), Date: day(i)})
	}
	var prs []*domain.PullRequest
	for i := 0; i < 20; i++ {
		prs = append(prs, &domain.PullRequest{Number: i, CreatedAt: day(i)})
	}
	coll.On("GetCommits", mock.Anything, "acme", "busy", "main").Return(commits, nil)
	coll.On("GetPullRequests", mock.Anything, "acme", "busy").Return(prs, nil)

	agg := NewAggregator(coll, analyzer.NewRepositoryAnalyzer(coll, discardLogger()), discardLogger())

	stats, err := agg.PerformFullAnalysis(context.Background(), "acme", nil)
	require.NoError(t, err)

	assert.Len(t, stats.RecentActivity.Commits, recentCommitsPerRepo)
	assert.Len(t, stats.RecentActivity.PullRequests, recentPRsPerRepo)
}
