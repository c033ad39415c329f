package loader

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const ignoreComment = "# bt local config and logs"

// EnsureIgnored makes sure the project's .gitignore covers dir (for example
// ".bv"), so files bt writes there never show up in git status. It creates
// .gitignore when missing, leaves it alone when an equivalent pattern is
// already present and otherwise appends "dir/". An empty projectDir means the
// current directory.
func EnsureIgnored(projectDir, dir string) error {
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		projectDir = cwd
	}
	dir = strings.Trim(dir, "/")
	path := filepath.Join(projectDir, ".gitignore")

	covered, err := isIgnored(path, dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if covered {
		return nil
	}
	return appendPattern(path, dir+"/")
}

func isIgnored(path, dir string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir reports whether a gitignore line ignores the whole of dir.
func coversDir(line, dir string) bool {
	switch strings.TrimPrefix(line, "/") {
	case dir, dir + "/", dir + "/*", dir + "/**", dir + "/**/*":
		return true
	}
	return false
}

func appendPattern(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var b strings.Builder
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(ignoreComment + "\n" + pattern + "\n")
	_, err = f.WriteString(b.String())
	return err
}
