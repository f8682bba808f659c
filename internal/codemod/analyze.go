package codemod

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
)

// DefaultAnalyzeExclude skips files that rarely hold components.
var DefaultAnalyzeExclude = []string{
	"node_modules",
	"dist",
	"**/*.spec.tsx",
	"**/*.stories.tsx",
	"**/index.tsx",
	"**/use*.tsx",
}

// Count is a name with its number of occurrences.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// sortCounts orders by descending count, then by name.
func sortCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return natural.Less(out[i].Name, out[j].Name)
	})
	return out
}

// UniqueProps returns every attribute name used on tag across files with
// the number of elements using it. Files that cannot be read or parsed are
// skipped and reported in the returned error.
func UniqueProps(files []string, tag string) ([]Count, error) {
	counts := make(map[string]int)
	var errs error
	for _, path := range files {
		doc, err := parseFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, node := range doc.Elements(tag) {
			for _, a := range node.Element.Attrs {
				counts[a.Name]++
			}
		}
	}
	return sortCounts(counts), errs
}

// ImportReport describes how much a code base depends on one module.
type ImportReport struct {
	Module string `json:"module"`
	// Files is the number of files scanned and Importing the number that
	// import from Module.
	Files     int `json:"files"`
	Importing int `json:"importing"`
	// Components counts named imports from Module. Names ending in "Props"
	// are type imports and are left out.
	Components []Count `json:"components"`
	// Projects counts the same imports per project, the first three path
	// segments below the root.
	Projects []Count `json:"projects"`
}

// Total returns the number of named imports counted.
func (r *ImportReport) Total() int {
	n := 0
	for _, c := range r.Components {
		n += c.Count
	}
	return n
}

// Share returns the percentage of files importing the module, rounded to
// two decimals.
func (r *ImportReport) Share() float64 {
	if r.Files == 0 {
		return 0
	}
	return math.Round(float64(r.Importing)/float64(r.Files)*10000) / 100
}

// ImportUsage reports the named imports from module across files. Project
// keys are taken from the path relative to root.
func ImportUsage(root string, files []string, module string) (*ImportReport, error) {
	components := make(map[string]int)
	projects := make(map[string]int)
	report := &ImportReport{Module: module, Files: len(files)}

	var errs error
	for _, path := range files {
		data, err := os.ReadFile(path) //nolint:gosec // G304: paths come from discovery
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to read %s: %w", path, err))
			continue
		}
		project := projectKey(root, path)

		imported := false
		for _, decl := range jsx.Imports(string(data)) {
			if decl.Module != module {
				continue
			}
			imported = true
			for _, name := range decl.ImportedNames() {
				if name == "" || strings.HasSuffix(name, "Props") {
					continue
				}
				components[name]++
				projects[project]++
			}
		}
		if imported {
			report.Importing++
		}
	}

	report.Components = sortCounts(components)
	report.Projects = sortCounts(projects)
	return report, errs
}

func projectKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	segs := strings.Split(filepath.ToSlash(rel), "/")
	if len(segs) > 3 {
		segs = segs[:3]
	}
	return strings.Join(segs, "/")
}

func parseFile(path string) (*jsx.Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: paths come from discovery
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return jsx.Parse(path, string(data))
}
