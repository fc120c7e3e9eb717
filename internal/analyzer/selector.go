package analyzer

import "github.com/orgscope/orgscope/internal/domain"

// maxFilesPerRepo caps how many files are analyzed per repository. The cap
// is a fixed resource bound, not a quality filter: the first qualifying
// entries in tree order win.
const maxFilesPerRepo = 100

// SelectFiles filters a repository's full recursive file tree down to
// analyzable source files: blob entries whose lowercase extension is in the
// language allow-list. Files with no extension or an unknown extension are
// excluded. The result is truncated to the first maxFilesPerRepo entries in
// tree order.
func SelectFiles(tree []*domain.TreeEntry) []*domain.TreeEntry {
	var selected []*domain.TreeEntry
	for _, entry := range tree {
		if entry.Type != "blob" {
			continue
		}
		ext := extensionOf(entry.Path)
		if ext == "" {
			continue
		}
		if _, ok := languageByExtension[ext]; !ok {
			continue
		}
		selected = append(selected, entry)
		if len(selected) == maxFilesPerRepo {
			break
		}
	}
	return selected
}
