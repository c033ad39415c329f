package config

import (
	"os"
	"path/filepath"
	"strings"
)

const beadsDirName = ".beads"

// DiscoverRepos returns the configured repos followed by any project found
// under the discovery scan paths. A scanned project already listed by path
// keeps its configured entry.
func DiscoverRepos(cfg Config) []Repo {
	seen := make(map[string]bool)
	var result []Repo

	for _, r := range cfg.Repos {
		resolved := r.ResolvedPath()
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		if r.Name == "" {
			r.Name = filepath.Base(resolved)
		}
		result = append(result, r)
	}

	maxDepth := cfg.Discovery.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	for _, scanPath := range cfg.Discovery.ScanPaths {
		for _, found := range scanForBeads(scanPath, maxDepth) {
			if seen[found] {
				continue
			}
			seen[found] = true
			result = append(result, Repo{Name: filepath.Base(found), Path: found})
		}
	}
	return result
}

// scanForBeads walks root up to maxDepth levels looking for directories with
// a .beads/ subdirectory. Hidden directories are skipped, and so is the
// inside of every project found.
func scanForBeads(root string, maxDepth int) []string {
	root = expandHome(root)
	var results []string
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if strings.Count(filepath.Clean(path), string(filepath.Separator))-rootDepth > maxDepth {
			return filepath.SkipDir
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if isDir(filepath.Join(path, beadsDirName)) {
			results = append(results, path)
			return filepath.SkipDir
		}
		return nil
	})
	return results
}

// ResolveBeadsDir picks the .beads directory to load: the configured one if
// set, otherwise the nearest one at or above startDir.
func ResolveBeadsDir(cfg Config, startDir string) (string, bool) {
	if cfg.BeadsDir != "" {
		dir := expandHome(cfg.BeadsDir)
		return dir, isDir(dir)
	}
	root, ok := findBeadsRoot(startDir)
	if !ok {
		return "", false
	}
	return filepath.Join(root, beadsDirName), true
}

// DetectCurrentProject walks up from the working directory looking for a
// project root.
func DetectCurrentProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findBeadsRoot(dir)
}

// findBeadsRoot walks up from dir to the first directory holding .beads/,
// stopping at the home directory or the filesystem root.
func findBeadsRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()
	for {
		if isDir(filepath.Join(dir, beadsDirName)) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && dir == home) {
			return "", false
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
