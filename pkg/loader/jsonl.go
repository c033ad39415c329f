// Package loader reads beads issues from .beads/*.jsonl files and locates
// the beads directory for a project.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/beadtree/pkg/model"
)

// BeadsDirName is the directory beads keeps its data in.
const BeadsDirName = ".beads"

// ErrNoBeadsDir is returned when no .beads directory or JSONL file exists.
var ErrNoBeadsDir = errors.New("no .beads directory found")

// preferredJSONL lists the file names beads has used for the issue log, in
// order of preference.
var preferredJSONL = []string{"issues.jsonl", "beads.jsonl", "beads.base.jsonl"}

// maxLineSize bounds a single JSONL record. Issues with long descriptions
// exceed bufio's 64KB default.
const maxLineSize = 16 * 1024 * 1024

// FindJSONLPath returns the issue log inside beadsDir. Known names win; any
// other *.jsonl file is accepted as long as it is not a deletions or merge
// artifact.
func FindJSONLPath(beadsDir string) (string, error) {
	entries, err := os.ReadDir(beadsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", beadsDir, ErrNoBeadsDir)
		}
		return "", fmt.Errorf("read beads dir: %w", err)
	}

	present := make(map[string]bool, len(entries))
	var fallback string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		present[name] = true
		if fallback == "" && !isArtifact(name) {
			fallback = name
		}
	}
	for _, name := range preferredJSONL {
		if present[name] {
			return filepath.Join(beadsDir, name), nil
		}
	}
	if fallback != "" {
		return filepath.Join(beadsDir, fallback), nil
	}
	return "", fmt.Errorf("no issues file in %s: %w", beadsDir, ErrNoBeadsDir)
}

func isArtifact(name string) bool {
	return strings.Contains(name, "deletions") ||
		strings.Contains(name, ".orig") ||
		strings.Contains(name, ".merge") ||
		strings.HasSuffix(name, ".backup.jsonl")
}

// LoadIssues loads the issues of the project rooted at repoPath. An empty
// repoPath means the current directory.
func LoadIssues(repoPath string) ([]model.Issue, error) {
	if repoPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		repoPath = cwd
	}
	path, err := FindJSONLPath(filepath.Join(repoPath, BeadsDirName))
	if err != nil {
		return nil, err
	}
	return LoadIssuesFromFile(path)
}

// LoadIssuesFromFile parses one JSONL file. Malformed and invalid records are
// skipped with a warning; tombstoned issues are dropped.
func LoadIssuesFromFile(path string) ([]model.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open issues file: %w", err)
	}
	defer f.Close()

	issues, err := ParseIssues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return issues, nil
}

// ParseIssues decodes newline-delimited issue records from r.
func ParseIssues(r io.Reader) ([]model.Issue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var issues []model.Issue
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var issue model.Issue
		if err := json.Unmarshal(line, &issue); err != nil {
			log.Printf("warning: skipping malformed issue on line %d: %v", lineNo, err)
			continue
		}
		if issue.Status.IsTombstone() {
			continue
		}
		if err := issue.Validate(); err != nil {
			log.Printf("warning: skipping invalid issue %q on line %d: %v", issue.ID, lineNo, err)
			continue
		}
		issues = append(issues, issue)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan issues: %w", err)
	}
	return issues, nil
}

// RepoSource names one project of a multi-repo load.
type RepoSource struct {
	Name string // prefix recorded in Issue.SourceRepo; empty keeps it unset
	Path string // project root containing .beads
}

// LoadIssuesFromDirs loads several projects in parallel and concatenates the
// results in source order. Every issue is tagged with its source name.
// A project without a .beads directory is skipped with a warning; any other
// failure aborts the whole load.
func LoadIssuesFromDirs(ctx context.Context, sources []RepoSource) ([]model.Issue, error) {
	results := make([][]model.Issue, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			issues, err := LoadIssues(src.Path)
			if errors.Is(err, ErrNoBeadsDir) {
				log.Printf("warning: repo %s has no beads data, skipping", src.Path)
				return nil
			}
			if err != nil {
				return fmt.Errorf("load repo %s: %w", src.Path, err)
			}
			for j := range issues {
				issues[j].SourceRepo = src.Name
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Issue
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
