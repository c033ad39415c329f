package config

import (
	"os"
	"path/filepath"
	"testing"
)

func mkBeads(t *testing.T, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(d, ".beads"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanForBeads(t *testing.T) {
	root := t.TempDir()
	proj1 := filepath.Join(root, "project1")
	proj2 := filepath.Join(root, "subdir", "project2")
	nested := filepath.Join(proj1, "vendor", "inner")
	mkBeads(t, proj1, proj2, nested)
	if err := os.MkdirAll(filepath.Join(root, "nobeads"), 0o755); err != nil {
		t.Fatal(err)
	}

	found := make(map[string]bool)
	for _, r := range scanForBeads(root, 3) {
		found[r] = true
	}
	if len(found) != 2 || !found[proj1] || !found[proj2] {
		t.Errorf("scanForBeads() = %v, want project1 and project2 only", found)
	}
}

func TestScanForBeads_DepthLimit(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d", "deep")
	shallow := filepath.Join(root, "shallow")
	mkBeads(t, deep, shallow)

	results := scanForBeads(root, 2)
	if len(results) != 1 || results[0] != shallow {
		t.Errorf("scanForBeads(depth 2) = %v, want [%s]", results, shallow)
	}
}

func TestScanForBeads_SkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	mkBeads(t, filepath.Join(root, ".hidden", "project"))

	if results := scanForBeads(root, 3); len(results) != 0 {
		t.Errorf("expected hidden dirs to be skipped, got %v", results)
	}
}

func TestDiscoverRepos(t *testing.T) {
	root := t.TempDir()
	proj1 := filepath.Join(root, "proj1")
	proj2 := filepath.Join(root, "proj2")
	mkBeads(t, proj1, proj2)

	cfg := Config{
		Repos: []Repo{
			{Name: "registered", Path: proj1},
			{Path: proj1},
		},
		Discovery: Discovery{ScanPaths: []string{root}, MaxDepth: 3},
	}
	result := DiscoverRepos(cfg)

	if len(result) != 2 {
		t.Fatalf("DiscoverRepos() = %v, want 2 entries", result)
	}
	if result[0].Name != "registered" {
		t.Errorf("configured name lost: %q", result[0].Name)
	}
	if result[1].Name != "proj2" || result[1].Path != proj2 {
		t.Errorf("discovered repo = %+v", result[1])
	}
}

func TestDiscoverReposNamesUnnamed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "api")
	result := DiscoverRepos(Config{Repos: []Repo{{Path: dir}}})
	if len(result) != 1 || result[0].Name != "api" {
		t.Errorf("DiscoverRepos() = %v, want name api", result)
	}
}

func TestFindBeadsRoot(t *testing.T) {
	root := t.TempDir()
	mkBeads(t, root)
	sub := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	found, ok := findBeadsRoot(sub)
	if !ok || found != root {
		t.Errorf("findBeadsRoot() = %q, %v; want %q", found, ok, root)
	}
}

func TestResolveBeadsDir(t *testing.T) {
	root := t.TempDir()
	mkBeads(t, root)
	sub := filepath.Join(root, "cmd")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	dir, ok := ResolveBeadsDir(Config{}, sub)
	if !ok || dir != filepath.Join(root, ".beads") {
		t.Errorf("discovered = %q, %v", dir, ok)
	}

	explicit := filepath.Join(t.TempDir(), "elsewhere")
	if _, ok := ResolveBeadsDir(Config{BeadsDir: explicit}, sub); ok {
		t.Error("a configured dir that does not exist must not resolve")
	}
	if err := os.MkdirAll(explicit, 0o755); err != nil {
		t.Fatal(err)
	}
	if dir, ok := ResolveBeadsDir(Config{BeadsDir: explicit}, sub); !ok || dir != explicit {
		t.Errorf("explicit = %q, %v", dir, ok)
	}
}
