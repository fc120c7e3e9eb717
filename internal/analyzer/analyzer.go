package analyzer

import (
	"context"
	"log"

	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/domain"
)

// maxFileSize is the byte ceiling above which a file is skipped entirely
// and contributes zero counts regardless of content
const maxFileSize = 100_000

// RepositoryAnalyzer produces one CodeStats per repository by fetching the
// filtered file list, classifying each file's lines and rolling the counts
// up into totals and a per-language breakdown.
type RepositoryAnalyzer struct {
	collector collector.Collector
	logger    *log.Logger
}

// NewRepositoryAnalyzer creates a new repository analyzer
func NewRepositoryAnalyzer(coll collector.Collector, logger *log.Logger) *RepositoryAnalyzer {
	return &RepositoryAnalyzer{
		collector: coll,
		logger:    logger,
	}
}

// Analyze fetches and classifies the repository's source files. Per-file
// failures are logged and treated as zero-contribution; they never abort
// the repository's analysis.
func (a *RepositoryAnalyzer) Analyze(ctx context.Context, org string, repo *domain.Repository) (*domain.CodeStats, error) {
	tree, err := a.collector.GetTree(ctx, org, repo.Name, repo.DefaultBranch)
	if err != nil {
		return nil, err
	}

	stats := &domain.CodeStats{
		Repository: repo.Name,
		Languages:  make(map[string]*domain.LanguageStat),
	}

	for _, file := range SelectFiles(tree) {
		if file.Size > maxFileSize {
			continue
		}

		content, err := a.collector.GetFileContent(ctx, org, repo.Name, file.Path)
		if err != nil {
			a.logger.Printf("skipping %s/%s:%s: %v", org, repo.Name, file.Path, err)
			continue
		}

		counts := ClassifyContent(content, file.Path)
		stats.TotalLines += counts.Total
		stats.CodeLines += counts.Code
		stats.CommentLines += counts.Comment
		stats.BlankLines += counts.Blank
		stats.FileCount++

		lang, ok := stats.Languages[counts.Language]
		if !ok {
			lang = &domain.LanguageStat{}
			stats.Languages[counts.Language] = lang
		}
		lang.Lines += counts.Total
		lang.Files++
	}

	// Percentages are recomputed once all files are counted. With no
	// countable lines every percentage stays 0.
	if stats.TotalLines > 0 {
		for _, lang := range stats.Languages {
			lang.Percentage = float64(lang.Lines) / float64(stats.TotalLines) * 100
		}
	}

	return stats, nil
}
