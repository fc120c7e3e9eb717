package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/orgscope/orgscope/internal/aggregator"
	"github.com/orgscope/orgscope/internal/analyzer"
	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/config"
	"github.com/orgscope/orgscope/internal/domain"
	"github.com/orgscope/orgscope/pkg/client"
)

var (
	outputJSON bool
	useRemote  bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "orgscope",
	Short: "GitHub organization statistics tool",
	Long: `A CLI tool for analyzing GitHub organization statistics.

It fetches repositories, members, commits and pull requests for an
organization, runs a line-based analysis of source files, and renders
per-contributor and per-organization statistics as tables.`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [org]",
	Short: "Run a full organization analysis",
	Long:  `Fetch and analyze all repositories of a GitHub organization and display the aggregated statistics.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured GitHub token",
	Long:  `Check that the configured GitHub token is accepted by the API and that the organization, if set, is visible to it.`,
	RunE:  runValidate,
}

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Show the remaining GitHub API quota",
	RunE:  runRateLimit,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&useRemote, "remote", false, "go through a running orgscope API server instead of calling GitHub directly")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rateLimitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// analysisConfig builds the per-run configuration from the environment,
// with an optional organization override from the command line
func analysisConfig(args []string) (config.AnalysisConfig, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AnalysisConfig{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	run := cfg.Analysis()
	if len(args) > 0 {
		run.Organization = args[0]
	}
	return run, cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	run, cfg, err := analysisConfig(args)
	if err != nil {
		return err
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var stats *domain.OrganizationStats
	if useRemote {
		stats, err = client.NewClient(cfg.APIEndpoint).Analyze(run)
	} else {
		stats, err = analyzeLocally(cmd.Context(), run)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if outputJSON {
		return printJSON(stats)
	}
	renderStats(stats)
	return nil
}

func analyzeLocally(ctx context.Context, run config.AnalysisConfig) (*domain.OrganizationStats, error) {
	logger := newLogger()
	coll := collector.NewGitHubCollector(run.Token, logger)
	an := analyzer.NewRepositoryAnalyzer(coll, logger)
	agg := aggregator.NewAggregator(coll, an, logger)

	progress := make(chan domain.ProgressEvent, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			if ev.Repository != "" {
				fmt.Fprintf(os.Stderr, "[%3d%%] %s %s\n", ev.Progress, ev.Message, ev.Repository)
			} else {
				fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", ev.Progress, ev.Message)
			}
		}
	}()

	stats, err := agg.PerformFullAnalysis(ctx, run.Organization, progress)
	close(progress)
	<-done
	return stats, err
}

func runValidate(cmd *cobra.Command, args []string) error {
	run, cfg, err := analysisConfig(args)
	if err != nil {
		return err
	}
	if run.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set")
	}

	var valid bool
	if useRemote {
		valid, err = client.NewClient(cfg.APIEndpoint).Validate(run)
	} else {
		coll := collector.NewGitHubCollector(run.Token, newLogger())
		valid, err = coll.ValidateToken(cmd.Context())
		if err == nil && valid && run.Organization != "" {
			_, orgErr := coll.GetOrganization(cmd.Context(), run.Organization)
			valid = orgErr == nil
		}
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(map[string]bool{"valid": valid})
	}
	if valid {
		fmt.Println("Token is valid")
	} else {
		fmt.Println("Token is invalid")
	}
	return nil
}

func runRateLimit(cmd *cobra.Command, args []string) error {
	run, cfg, err := analysisConfig(args)
	if err != nil {
		return err
	}
	if run.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set")
	}

	var limit *domain.RateLimit
	if useRemote {
		limit, err = client.NewClient(cfg.APIEndpoint).RateLimit(run)
	} else {
		limit, err = collector.NewGitHubCollector(run.Token, newLogger()).GetRateLimit(cmd.Context())
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(limit)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Limit", "Remaining", "Resets"})
	table.Append([]string{
		strconv.Itoa(limit.Limit),
		strconv.Itoa(limit.Remaining),
		limit.Reset.Local().Format(time.RFC1123),
	})
	table.Render()
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func renderStats(stats *domain.OrganizationStats) {
	fmt.Printf("\nOrganization: %s\n", stats.Organization.Login)
	if stats.Organization.Description != "" {
		fmt.Println(stats.Organization.Description)
	}
	fmt.Println()

	summary := tablewriter.NewWriter(os.Stdout)
	summary.SetHeader([]string{"Repositories", "Members", "Commits", "Pull Requests", "Lines of Code"})
	summary.Append([]string{
		strconv.Itoa(stats.TotalRepositories),
		strconv.Itoa(stats.TotalMembers),
		strconv.Itoa(stats.TotalCommits),
		strconv.Itoa(stats.TotalPullRequests),
		strconv.Itoa(stats.TotalLinesOfCode),
	})
	summary.Render()

	if len(stats.TopLanguages) > 0 {
		fmt.Println("\nTop languages:")
		langs := tablewriter.NewWriter(os.Stdout)
		langs.SetHeader([]string{"Language", "Lines"})
		for _, lang := range stats.TopLanguages {
			langs.Append([]string{lang.Name, strconv.Itoa(lang.Lines)})
		}
		langs.Render()
	}

	if len(stats.UserStats) > 0 {
		fmt.Println("\nContributors:")
		users := tablewriter.NewWriter(os.Stdout)
		users.SetHeader([]string{"Login", "Commits", "PRs", "Additions", "Deletions", "Last Activity"})
		for _, us := range stats.UserStats {
			last := "-"
			if !us.LastActivity.IsZero() {
				last = us.LastActivity.Format("2006-01-02")
			}
			users.Append([]string{
				us.Login,
				strconv.Itoa(us.Commits),
				strconv.Itoa(us.PullRequests),
				strconv.Itoa(us.Additions),
				strconv.Itoa(us.Deletions),
				last,
			})
		}
		users.Render()
	}

	if len(stats.CodeStats) > 0 {
		fmt.Println("\nRepositories:")
		repos := tablewriter.NewWriter(os.Stdout)
		repos.SetHeader([]string{"Repository", "Files", "Total", "Code", "Comments", "Blank"})
		for _, cs := range stats.CodeStats {
			repos.Append([]string{
				cs.Repository,
				strconv.Itoa(cs.FileCount),
				strconv.Itoa(cs.TotalLines),
				strconv.Itoa(cs.CodeLines),
				strconv.Itoa(cs.CommentLines),
				strconv.Itoa(cs.BlankLines),
			})
		}
		repos.Render()
	}

	if len(stats.RecentActivity.Commits) > 0 {
		fmt.Println("\nRecent commits:")
		commits := tablewriter.NewWriter(os.Stdout)
		commits.SetHeader([]string{"Date", "Repository", "Author", "Message"})
		for _, c := range stats.RecentActivity.Commits {
			commits.Append([]string{
				c.Date.Format("2006-01-02"),
				c.Repo,
				c.AuthorName,
				truncate(firstLine(c.Message), 60),
			})
		}
		commits.Render()
	}

	if len(stats.RecentActivity.PullRequests) > 0 {
		fmt.Println("\nRecent pull requests:")
		prs := tablewriter.NewWriter(os.Stdout)
		prs.SetHeader([]string{"Date", "Repository", "Author", "State", "Title"})
		for _, pr := range stats.RecentActivity.PullRequests {
			prs.Append([]string{
				pr.CreatedAt.Format("2006-01-02"),
				pr.Repo,
				pr.AuthorLogin,
				pr.State,
				truncate(pr.Title, 60),
			})
		}
		prs.Render()
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
